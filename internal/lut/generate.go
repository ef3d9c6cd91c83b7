package lut

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/whisper/chat-moderation/internal/lexicon"
)

// Generate is the offline batch job: it reads the lexicon at lexiconPath,
// builds the table and saves it to outPath. The lexicon is only read.
//
// A missing lexicon is replaced by the placeholder and reported as
// lexicon.ErrPlaceholderCreated; no artifact is written in that case.
func Generate(lexiconPath, outPath string, opts Options, log logrus.FieldLogger) (Report, error) {
	terms, err := lexicon.Load(lexiconPath)
	if err != nil {
		return Report{}, err
	}
	log.WithFields(logrus.Fields{
		"path":  lexiconPath,
		"terms": len(terms),
	}).Info("loaded lexicon")

	table, rep := Build(terms, opts, log)
	if err := table.Save(outPath); err != nil {
		return rep, fmt.Errorf("lut: generate: %w", err)
	}

	log.WithFields(logrus.Fields{
		"exact_matches":         rep.ExactMatches,
		"substitution_variants": rep.SubstitutionVariants,
		"similar_variants":      rep.SimilarVariants,
		"normalized_terms":      rep.NormalizedTerms,
		"regex_patterns":        rep.RegexPatterns,
		"dropped_patterns":      rep.DroppedPatterns,
		"path":                  outPath,
	}).Info("saved lookup table")
	return rep, nil
}
