package sanitize

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Tiered serves the basic tier until a richer list has loaded, then switches
// to the composite tier. Callers only see the Sanitizer interface.
type Tiered struct {
	basic  *BasicSanitizer
	mask   rune
	active atomic.Pointer[tier]
}

type tier struct {
	name string
	s    Sanitizer
}

// NewTiered starts on basic.
func NewTiered(basic *BasicSanitizer, mask rune) *Tiered {
	t := &Tiered{basic: basic, mask: mask}
	t.active.Store(&tier{name: "basic", s: basic})
	return t
}

func (t *Tiered) IsProfane(text string) bool { return t.active.Load().s.IsProfane(text) }

func (t *Tiered) Clean(text string) string { return t.active.Load().s.Clean(text) }

// Tier names the active tier: "basic" or "composite".
func (t *Tiered) Tier() string { return t.active.Load().name }

// Upgrade switches to a composite tier over words.
func (t *Tiered) Upgrade(words []string) {
	t.active.Store(&tier{name: "composite", s: NewComposite(t.basic, words, t.mask)})
}

// LoadWordList reads the word list at path and upgrades on success. On
// failure the basic tier stays active. Intended to run in its own goroutine.
func (t *Tiered) LoadWordList(path string, log logrus.FieldLogger) error {
	words, err := LoadWordList(path)
	if err != nil {
		log.WithError(err).Warn("word list unavailable, keeping basic sanitizer")
		return err
	}
	t.Upgrade(words)
	log.WithField("words", len(words)).Info("sanitizer upgraded to composite word list")
	return nil
}
