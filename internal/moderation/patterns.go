package moderation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// patternSeparator matches the junk people put between letters to dodge a
// plain substring match: whitespace, dots, asterisks, underscores, dashes.
const patternSeparator = `[\s.*_\-]*`

// substitutionClasses are the per-letter character classes used by the
// substitution pattern.
var substitutionClasses = map[rune]string{
	'a': `[a4@á]`,
	'e': `[e3é]`,
	'i': `[i1!|í]`,
	'o': `[o0øó]`,
	's': `[s$5]`,
	't': `[t7]`,
	'l': `[l1]`,
}

const (
	minPatternLength      = 2
	minSubstitutionLength = 4
)

// GeneratePatterns derives the regular expressions that catch deliberate
// evasions of term. Terms of two runes or fewer get none. Every other term
// gets a spaced pattern (letters separated by optional junk); terms of four
// runes or more also get a substitution-class pattern. Patterns are returned
// without flags; use CompilePattern to compile them.
func GeneratePatterns(term string) []string {
	runes := []rune(term)
	if len(runes) <= minPatternLength {
		return nil
	}

	quoted := make([]string, len(runes))
	for i, r := range runes {
		quoted[i] = regexp.QuoteMeta(string(r))
	}
	patterns := []string{`\b` + strings.Join(quoted, patternSeparator) + `\b`}

	if len(runes) >= minSubstitutionLength {
		var b strings.Builder
		b.WriteString(`\b`)
		for i, r := range runes {
			if class, ok := substitutionClasses[unicode.ToLower(r)]; ok {
				b.WriteString(class)
				continue
			}
			b.WriteString(quoted[i])
		}
		b.WriteString(`\b`)
		patterns = append(patterns, b.String())
	}
	return patterns
}

// CompilePattern compiles a generated pattern for case-insensitive matching.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("moderation: compile pattern %q: %w", pattern, err)
	}
	return re, nil
}
