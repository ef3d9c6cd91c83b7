package moderation

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	// DefaultThreshold is the largest share of differing characters still
	// considered "similar" (0.16 allows roughly one edit in seven letters).
	DefaultThreshold = 0.16

	// minSimilarLength: terms this short or shorter get no near misses.
	minSimilarLength = 3

	// maxInsertionLength bounds the insertion search space.
	maxInsertionLength = 6

	alphabet = "abcdefghijklmnopqrstuvwxyz"
)

// Distance is the Levenshtein edit distance between a and b, counted in
// runes with unit cost for insertion, deletion and substitution.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity returns 1 - Distance(a,b)/max(len(a),len(b)), lengths in runes.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(Distance(a, b))/float64(longest)
}

// GenerateSimilar returns single-edit near misses of term whose Similarity
// to term is at least 1-threshold. Substitutions and deletions are tried at
// every position; insertions only for terms of at most six runes. Terms of
// three runes or fewer produce nothing.
func GenerateSimilar(term string, threshold float64) []string {
	runes := []rune(term)
	out := newOrderedSet()
	if len(runes) <= minSimilarLength {
		return out.items
	}

	minSimilarity := 1 - threshold
	accept := func(candidate []rune) {
		v := string(candidate)
		if Similarity(term, v) >= minSimilarity {
			out.add(v)
		}
	}

	for i := range runes {
		for _, c := range alphabet {
			if c == runes[i] {
				continue
			}
			candidate := make([]rune, len(runes))
			copy(candidate, runes)
			candidate[i] = c
			accept(candidate)
		}
	}

	if len(runes) <= maxInsertionLength {
		for i := 0; i <= len(runes); i++ {
			for _, c := range alphabet {
				candidate := make([]rune, 0, len(runes)+1)
				candidate = append(candidate, runes[:i]...)
				candidate = append(candidate, c)
				candidate = append(candidate, runes[i:]...)
				accept(candidate)
			}
		}
	}

	for i := range runes {
		candidate := make([]rune, 0, len(runes)-1)
		candidate = append(candidate, runes[:i]...)
		candidate = append(candidate, runes[i+1:]...)
		accept(candidate)
	}

	return out.items
}
