// Package sanitize censors everyday profanity. It is independent of the
// matcher: a sanitized message is masked and answered with a notice, but the
// sender is never escalated.
package sanitize

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/whisper/chat-moderation/internal/lexicon"
)

// DefaultMask replaces every rune of a match except the first.
const DefaultMask = '*'

// Sanitizer detects and masks profanity.
type Sanitizer interface {
	IsProfane(text string) bool
	Clean(text string) string
}

// Sanitize returns the cleaned text and true when text is profane, and text
// unchanged with false otherwise.
func Sanitize(s Sanitizer, text string) (string, bool) {
	if !s.IsProfane(text) {
		return text, false
	}
	return s.Clean(text), true
}

// LoadWordList reads a word list in lexicon format: one word per line, "#"
// comments and blank lines ignored.
func LoadWordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sanitize: open word list: %w", err)
	}
	defer f.Close()

	words, err := lexicon.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("sanitize: %w", err)
	}
	return words, nil
}

// maskFunc keeps the first rune of a match and masks the rest.
func maskFunc(mask rune) func(string) string {
	return func(match string) string {
		first, size := utf8.DecodeRuneInString(match)
		if size == 0 {
			return match
		}
		n := utf8.RuneCountInString(match) - 1
		return string(first) + strings.Repeat(string(mask), n)
	}
}
