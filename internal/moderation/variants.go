package moderation

import "strings"

// LeetAlternates lists the characters commonly typed in place of a letter.
// Variant generation walks this table; the order of each slice is the order
// variants are emitted in.
var LeetAlternates = map[rune][]rune{
	'a': {'4', '@'},
	'e': {'3'},
	'i': {'1', '!', '|'},
	'o': {'0'},
	's': {'$', '5'},
	't': {'7'},
	'l': {'1'},
}

// Separators are placed between every letter of a term to produce spaced-out
// spellings such as "b.a.d".
var Separators = []string{" ", ".", "-", "_"}

const (
	// substitutionBudget bounds len(current)*len(new) before the generator
	// stops taking every new combination.
	substitutionBudget = 100

	// substitutionSample is how many new variants are kept per position once
	// the budget is exceeded.
	substitutionSample = 20
)

// orderedSet is a string set that remembers insertion order so repeated
// builds produce identical output.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

// GenerateVariants expands term into the spellings that should hit as an
// exact token: the lower-cased term, its normalized form, leetspeak
// substitutions and separator-spaced spellings. The result has no duplicates
// and is deterministic for a given term.
func GenerateVariants(term string) []string {
	lower := strings.ToLower(term)
	out := newOrderedSet()
	out.add(lower)
	out.add(Normalize(term))

	for _, v := range substitutionVariants([]rune(lower)) {
		out.add(v)
	}
	for _, sep := range Separators {
		out.add(spaced(lower, sep))
	}
	return out.items
}

// substitutionVariants builds leetspeak combinations position by position.
// Each position with alternates multiplies the current list; once the
// product passes substitutionBudget only the first substitutionSample new
// variants are kept. The first new variants always derive from the
// unmodified base, so every single substitution survives the cap.
func substitutionVariants(base []rune) []string {
	current := [][]rune{base}

	for i, r := range base {
		alts, ok := LeetAlternates[r]
		if !ok {
			continue
		}

		var added [][]rune
		for _, v := range current {
			for _, alt := range alts {
				next := make([]rune, len(v))
				copy(next, v)
				next[i] = alt
				added = append(added, next)
			}
		}

		if len(current)*len(added) >= substitutionBudget && len(added) > substitutionSample {
			added = added[:substitutionSample]
		}
		current = append(current, added...)
	}

	out := make([]string, 0, len(current))
	for _, v := range current {
		out = append(out, string(v))
	}
	return out
}

// spaced joins the runes of term with sep.
func spaced(term, sep string) string {
	runes := []rune(term)
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}
	return strings.Join(parts, sep)
}
