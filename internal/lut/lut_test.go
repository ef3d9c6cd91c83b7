package lut

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whisper/chat-moderation/internal/lexicon"
	"github.com/whisper/chat-moderation/internal/moderation"
)

func testLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

var fixedNow = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestBuild_Badword(t *testing.T) {
	table, rep := Build([]string{"BadWord"}, Options{Now: fixedNow}, testLogger())

	assert.Equal(t, Version, table.Version)
	assert.Equal(t, moderation.DefaultThreshold, table.Threshold)
	assert.Equal(t, fixedNow(), table.GeneratedAt)

	assert.Equal(t, "badword", table.ExactMatches["badword"])
	assert.Equal(t, "badword", table.ExactMatches["b4dw0rd"])
	assert.Equal(t, "badword", table.ExactMatches["b.a.d.w.o.r.d"])
	assert.Equal(t, "badword", table.ExactMatches["badwrd"]) // near miss
	assert.Equal(t, map[string]string{"badword": "badword"}, table.NormalizedMatches)
	assert.Equal(t, []string{"badword"}, table.NormalizedOrder)
	assert.Len(t, table.RegexPatterns, 2)
	assert.Equal(t, []string{"badword", "badword"}, table.PatternTerms)

	assert.Equal(t, 1, rep.Terms)
	assert.Equal(t, len(table.ExactMatches), rep.ExactMatches)
	assert.Equal(t, 1, rep.NormalizedTerms)
	assert.Equal(t, 2, rep.RegexPatterns)
	assert.Zero(t, rep.DroppedPatterns)
	assert.Positive(t, rep.SimilarVariants)
}

func TestBuild_EveryEntryTraceable(t *testing.T) {
	terms := []string{"badword", "offensive", "slur"}
	table, _ := Build(terms, Options{}, testLogger())

	known := map[string]bool{}
	for _, term := range terms {
		known[term] = true
	}
	for k, v := range table.ExactMatches {
		assert.True(t, known[v], "exact %q maps to unknown %q", k, v)
	}
	for k, v := range table.NormalizedMatches {
		assert.True(t, known[v], "normalized %q maps to unknown %q", k, v)
	}
	for _, v := range table.PatternTerms {
		assert.True(t, known[v])
	}
	assert.Equal(t, []string{"badword", "offensive", "slur"}, table.NormalizedOrder)
}

func TestBuild_SkipsEmptyAndShort(t *testing.T) {
	table, rep := Build([]string{"", "   ", "ab", "..."}, Options{}, testLogger())

	assert.Equal(t, 2, rep.Terms)
	assert.NotContains(t, table.PatternTerms, "ab")
	// "..." normalizes to nothing and must not become a match-everything key.
	assert.NotContains(t, table.NormalizedMatches, "")
	assert.NotContains(t, table.ExactMatches, "")
	assert.Equal(t, "ab", table.NormalizedMatches["ab"])
}

func TestBuild_Deterministic(t *testing.T) {
	a, _ := Build([]string{"badword", "offensive"}, Options{Now: fixedNow}, testLogger())
	b, _ := Build([]string{"badword", "offensive"}, Options{Now: fixedNow}, testLogger())
	assert.Equal(t, a, b)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "profanity_lut.json")
	table, _ := Build([]string{"badword"}, Options{Now: fixedNow}, testLogger())

	require.NoError(t, table.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, table, loaded)

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoad_LegacyUpdatedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	legacy := `{
  "version": "1.0",
  "updated": "2025-01-02T03:04:05.000Z",
  "threshold": 0.16,
  "exactMatches": {"badword": "badword"},
  "normalizedMatches": {"badword": "badword"},
  "regexPatterns": ["\\bbadword\\b"]
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), table.GeneratedAt.UTC())
	assert.Empty(t, table.PatternTerms)
	assert.Equal(t, []string{`\bbadword\b`}, table.RegexPatterns)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{"},
		{"no version", `{"threshold":0.16,"exactMatches":{},"normalizedMatches":{}}`},
		{"bad threshold", `{"version":"1.0","threshold":1.5,"exactMatches":{},"normalizedMatches":{}}`},
		{"missing tables", `{"version":"1.0","threshold":0.16}`},
		{"misaligned terms", `{"version":"1.0","threshold":0.16,"exactMatches":{},"normalizedMatches":{},"regexPatterns":["a"],"patternTerms":["a","b"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	lexPath := filepath.Join(dir, "lexicon.txt")
	outPath := filepath.Join(dir, "profanity_lut.json")
	require.NoError(t, os.WriteFile(lexPath, []byte("# terms\nbadword\noffensive\n"), 0o600))
	before, err := os.ReadFile(lexPath)
	require.NoError(t, err)

	rep, err := Generate(lexPath, outPath, Options{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Terms)

	table, err := Load(outPath)
	require.NoError(t, err)
	assert.Equal(t, "offensive", table.ExactMatches["0ffensive"])

	after, err := os.ReadFile(lexPath)
	require.NoError(t, err)
	assert.Equal(t, before, after, "lexicon must not be modified")
}

func TestGenerate_MissingLexicon(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "profanity_lut.json")

	_, err := Generate(filepath.Join(dir, "lexicon.txt"), outPath, Options{}, testLogger())
	assert.ErrorIs(t, err, lexicon.ErrPlaceholderCreated)

	_, statErr := os.Stat(outPath)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist), "no artifact should be written")
}
