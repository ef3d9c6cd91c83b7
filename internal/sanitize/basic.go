package sanitize

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultWords is the fixed list the basic tier checks.
var DefaultWords = []string{
	"fuck", "shit", "ass", "bitch", "cunt", "bastard", "dick",
	"asshole", "bullshit", "cock", "pussy", "whore", "rape",
}

// BasicSanitizer matches a fixed word list anywhere in the text, word
// boundaries or not, so "classic" is profane because of "ass".
type BasicSanitizer struct {
	boundary  *regexp.Regexp
	substring *regexp.Regexp
	mask      func(string) string
}

// NewBasic builds the basic tier over DefaultWords. A zero mask means
// DefaultMask.
func NewBasic(mask rune) *BasicSanitizer {
	return NewBasicWords(DefaultWords, mask)
}

// NewBasicWords builds the basic tier over words.
func NewBasicWords(words []string, mask rune) *BasicSanitizer {
	if mask == 0 {
		mask = DefaultMask
	}
	alt := alternation(words)
	return &BasicSanitizer{
		boundary:  regexp.MustCompile(`(?i)\b(?:` + alt + `)\b`),
		substring: regexp.MustCompile(`(?i)(?:` + alt + `)`),
		mask:      maskFunc(mask),
	}
}

// IsProfane reports whether any listed word occurs in text.
func (b *BasicSanitizer) IsProfane(text string) bool {
	return b.substring.MatchString(text)
}

// Clean masks whole-word occurrences first and then any remaining embedded
// ones. Masked text no longer matches, so nothing is masked twice.
func (b *BasicSanitizer) Clean(text string) string {
	out := b.boundary.ReplaceAllStringFunc(text, b.mask)
	return b.substring.ReplaceAllStringFunc(out, b.mask)
}

// alternation joins the quoted words longest first, so "asshole" wins over
// "ass" at the same position.
func alternation(words []string) string {
	sorted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			sorted = append(sorted, w)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = regexp.QuoteMeta(w)
	}
	if len(quoted) == 0 {
		// Matches nothing.
		return `[^\x00-\x{10FFFF}]`
	}
	return strings.Join(quoted, "|")
}
