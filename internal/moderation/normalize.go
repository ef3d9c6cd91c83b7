package moderation

import (
	"strings"

	"golang.org/x/text/width"
)

// charSubstitutions maps look-alike digits, symbols and accented letters to
// the plain letter they stand in for. An empty replacement deletes the rune,
// which strips separators such as "b.a.d" or "b-a-d".
var charSubstitutions = map[rune]string{
	'0': "o", 'ø': "o", 'ö': "o", 'ô': "o", 'ò': "o", 'ó': "o", 'õ': "o",
	'1': "i", '!': "i", '|': "i", 'í': "i", 'ì': "i", 'î': "i", 'ï': "i",
	'2': "z",
	'3': "e", 'é': "e", 'è': "e", 'ê': "e", 'ë': "e",
	'4': "a", 'à': "a", 'á': "a", 'â': "a", 'ä': "a", 'ã': "a", '@': "a",
	'5': "s", '$': "s",
	'6': "g",
	'7': "t",
	'8': "b",
	'9': "g",
	'ç': "c",
	'ñ': "n",
	'ü': "u", 'û': "u", 'ù': "u", 'ú': "u",
	'ÿ': "y",
	'*': "",
	'.': "",
	' ': "",
	'-': "",
	'_': "",
	'+': "",
	',': "",
}

// collapseThreshold is the run length at which repeated runes are squashed.
const collapseThreshold = 3

// Normalize canonicalizes text so that common evasions compare equal to the
// plain spelling: full-width forms are folded, the text is lower-cased, the
// substitution table is applied and runs of three or more identical runes are
// collapsed to one ("heeeello" -> "hello").
//
// Normalize is idempotent.
func Normalize(text string) string {
	folded := strings.ToLower(width.Fold.String(text))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if repl, ok := charSubstitutions[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	return collapseRuns(b.String(), collapseThreshold)
}

// collapseRuns replaces every run of at least min identical runes with a
// single rune. RE2 has no backreferences, so this is a linear scan rather
// than the usual (.)\1{2,} expression.
func collapseRuns(s string, min int) string {
	runes := []rune(s)
	if len(runes) < min {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		n := j - i
		if n >= min {
			n = 1
		}
		for k := 0; k < n; k++ {
			b.WriteRune(runes[i])
		}
		i = j
	}
	return b.String()
}
