package sanitize

import (
	"regexp"
	"strings"
)

// CompositeSanitizer adds an external word list on top of the basic tier.
// External words only count on word boundaries.
type CompositeSanitizer struct {
	basic *BasicSanitizer
	words []externalWord
	mask  func(string) string
}

type externalWord struct {
	boundary *regexp.Regexp
	anywhere *regexp.Regexp
}

// NewComposite wraps basic with words. A zero mask means DefaultMask.
func NewComposite(basic *BasicSanitizer, words []string, mask rune) *CompositeSanitizer {
	if mask == 0 {
		mask = DefaultMask
	}
	c := &CompositeSanitizer{basic: basic, mask: maskFunc(mask)}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		q := regexp.QuoteMeta(w)
		c.words = append(c.words, externalWord{
			boundary: regexp.MustCompile(`(?i)\b` + q + `\b`),
			anywhere: regexp.MustCompile(`(?i)` + q),
		})
	}
	return c
}

// Len is the number of distinct external words.
func (c *CompositeSanitizer) Len() int { return len(c.words) }

func (c *CompositeSanitizer) IsProfane(text string) bool {
	if c.basic.IsProfane(text) {
		return true
	}
	for _, w := range c.words {
		if w.boundary.MatchString(text) {
			return true
		}
	}
	return false
}

// Clean runs the basic tier. Only when that changes nothing are the external
// words applied: each word found on a word boundary is masked wherever it
// occurs.
func (c *CompositeSanitizer) Clean(text string) string {
	out := c.basic.Clean(text)
	if out != text {
		return out
	}

	var hits []externalWord
	for _, w := range c.words {
		if w.boundary.MatchString(text) {
			hits = append(hits, w)
		}
	}
	for _, w := range hits {
		out = w.anywhere.ReplaceAllStringFunc(out, c.mask)
	}
	return out
}
