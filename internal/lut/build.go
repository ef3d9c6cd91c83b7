package lut

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/whisper/chat-moderation/internal/moderation"
)

// Options tunes Build.
type Options struct {
	// Threshold is the largest normalized edit distance accepted for near
	// misses. Zero means moderation.DefaultThreshold.
	Threshold float64

	// Now stamps GeneratedAt. Nil means time.Now.
	Now func() time.Time
}

// Report summarizes a build for the operator.
type Report struct {
	Terms                int
	ExactMatches         int // distinct keys in the table
	SubstitutionVariants int // variants generated before dedup
	SimilarVariants      int // Levenshtein near misses before dedup
	NormalizedTerms      int
	RegexPatterns        int
	DroppedPatterns      int
}

// Build expands every lexicon term into the lookup table. Terms are
// lower-cased; empty terms are skipped. When variants of different terms
// collide, the later term wins; detection only needs the key to exist.
//
// A pattern that fails to compile is logged and left out, never failing the
// build.
func Build(terms []string, opts Options, log logrus.FieldLogger) (*Table, Report) {
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = moderation.DefaultThreshold
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	t := &Table{
		Version:           Version,
		GeneratedAt:       now().UTC(),
		Threshold:         threshold,
		ExactMatches:      make(map[string]string),
		NormalizedMatches: make(map[string]string),
		RegexPatterns:     []string{},
	}
	var rep Report

	for _, raw := range terms {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term == "" {
			continue
		}
		rep.Terms++

		if normalized := moderation.Normalize(term); normalized != "" {
			if _, seen := t.NormalizedMatches[normalized]; !seen {
				t.NormalizedOrder = append(t.NormalizedOrder, normalized)
			}
			t.NormalizedMatches[normalized] = term
		}

		variants := moderation.GenerateVariants(term)
		for _, v := range variants {
			if v != "" {
				t.ExactMatches[v] = term
			}
		}
		rep.SubstitutionVariants += len(variants)

		similar := moderation.GenerateSimilar(term, threshold)
		for _, v := range similar {
			t.ExactMatches[v] = term
		}
		rep.SimilarVariants += len(similar)

		for _, p := range moderation.GeneratePatterns(term) {
			if _, err := moderation.CompilePattern(p); err != nil {
				log.WithError(err).WithField("term", term).Warn("dropping pattern")
				rep.DroppedPatterns++
				continue
			}
			t.RegexPatterns = append(t.RegexPatterns, p)
			t.PatternTerms = append(t.PatternTerms, term)
		}
	}

	rep.ExactMatches = len(t.ExactMatches)
	rep.NormalizedTerms = len(t.NormalizedMatches)
	rep.RegexPatterns = len(t.RegexPatterns)
	return t, rep
}
