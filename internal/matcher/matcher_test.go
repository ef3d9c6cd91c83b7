package matcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whisper/chat-moderation/internal/lut"
	"github.com/whisper/chat-moderation/internal/moderation"
)

func testLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

// writeLUT builds a table for terms and saves it under dir.
func writeLUT(t *testing.T, dir string, terms ...string) string {
	t.Helper()
	table, _ := lut.Build(terms, lut.Options{}, testLogger())
	path := filepath.Join(dir, "profanity_lut.json")
	require.NoError(t, table.Save(path))
	return path
}

func TestClassify_LUT(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{
		LUTPath:     writeLUT(t, dir, "badword"),
		LexiconPath: filepath.Join(dir, "lexicon.txt"),
	}, testLogger())
	require.Equal(t, ModeLUT, m.Stats().Mode)

	tests := []struct {
		name     string
		text     string
		detected bool
		method   moderation.Method
		evidence string
	}{
		{"leet token", "this is a b4dw0rd", true, moderation.MethodExact, "b4dw0rd"},
		{"punctuated token", "BADWORD!", true, moderation.MethodNormalized, "badword"},
		{"near miss token", "what a badwrd", true, moderation.MethodExact, "badwrd"},
		{"embedded", "xxb4dw0rdxx", true, moderation.MethodNormalized, "badword"},
		{"dotted inside sentence", "you b.a.d.w.o.r.d.", true, moderation.MethodNormalized, "badword"},
		{"tab separated", "b\ta\td\tw\to\tr\td", true, moderation.MethodRegex, "b\ta\td\tw\to\tr\td"},
		{"clean", "this is fine", false, "", ""},
		{"empty", "", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := m.Classify(tt.text)
			assert.Equal(t, tt.detected, d.Detected)
			assert.Equal(t, tt.method, d.Method)
			assert.False(t, d.Degraded)
			if tt.detected {
				assert.Equal(t, "badword", d.Term)
				assert.Equal(t, tt.evidence, d.Evidence)
			}
		})
	}
}

func TestClassify_NormalizedAttributionFollowsLexiconOrder(t *testing.T) {
	dir := t.TempDir()

	m := New(Config{LUTPath: writeLUT(t, dir, "bad", "badword")}, testLogger())
	d := m.Classify("xxbadwordxx")
	require.True(t, d.Detected)
	assert.Equal(t, moderation.MethodNormalized, d.Method)
	assert.Equal(t, "bad", d.Term)

	m = New(Config{LUTPath: writeLUT(t, dir, "badword", "bad")}, testLogger())
	d = m.Classify("xxbadwordxx")
	require.True(t, d.Detected)
	assert.Equal(t, "badword", d.Term)
}

func TestClassify_DegradedFallbackTerms(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{
		LUTPath:       filepath.Join(dir, "missing.json"),
		FallbackTerms: []string{"BadWord", " "},
	}, testLogger())

	stats := m.Stats()
	require.Equal(t, ModeDirect, stats.Mode)
	assert.Equal(t, 1, stats.FallbackTerms)
	assert.Equal(t, "config", stats.Source)
	assert.True(t, m.State().Degraded())

	d := m.Classify("such a BADWORD here")
	assert.True(t, d.Detected)
	assert.True(t, d.Degraded)
	assert.Equal(t, moderation.MethodSubstring, d.Method)
	assert.Equal(t, "badword", d.Term)

	d = m.Classify("b4dw0rd")
	assert.True(t, d.Detected)
	assert.Equal(t, moderation.MethodNormalized, d.Method)

	d = m.Classify("this is fine")
	assert.False(t, d.Detected)
	assert.True(t, d.Degraded)
}

func TestClassify_DegradedCreatesPlaceholderLexicon(t *testing.T) {
	dir := t.TempDir()
	lexPath := filepath.Join(dir, "lexicon.txt")
	m := New(Config{
		LUTPath:     filepath.Join(dir, "missing.json"),
		LexiconPath: lexPath,
	}, testLogger())

	_, err := os.Stat(lexPath)
	require.NoError(t, err, "placeholder lexicon should be created")
	assert.Equal(t, 2, m.Stats().FallbackTerms)
	assert.True(t, m.Classify("an example_slur1 here").Detected)
}

func TestNew_InvalidLUTFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profanity_lut.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	m := New(Config{LUTPath: path, FallbackTerms: []string{"badword"}}, testLogger())
	assert.Equal(t, ModeDirect, m.Stats().Mode)
}

func TestNew_DropsMalformedPattern(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profanity_lut.json")
	artifact := `{
  "version": "1.0",
  "generatedAt": "2025-01-01T00:00:00Z",
  "threshold": 0.16,
  "exactMatches": {},
  "normalizedMatches": {},
  "regexPatterns": ["([", "\\bbadword\\b"],
  "patternTerms": ["broken", "badword"]
}`
	require.NoError(t, os.WriteFile(path, []byte(artifact), 0o600))

	m := New(Config{LUTPath: path}, testLogger())
	stats := m.Stats()
	require.Equal(t, ModeLUT, stats.Mode)
	assert.Equal(t, 1, stats.RegexPatterns)
	assert.Equal(t, 1, stats.DroppedPatterns)

	d := m.Classify("a BadWord appears")
	assert.True(t, d.Detected)
	assert.Equal(t, moderation.MethodRegex, d.Method)
	assert.Equal(t, "badword", d.Term)
	assert.Equal(t, "BadWord", d.Evidence)
}

func TestReload_SwapsState(t *testing.T) {
	dir := t.TempDir()
	lutPath := filepath.Join(dir, "profanity_lut.json")
	m := New(Config{LUTPath: lutPath, FallbackTerms: []string{"other"}}, testLogger())
	require.Equal(t, ModeDirect, m.Stats().Mode)
	assert.False(t, m.Classify("b4dw0rd").Detected)

	old := m.State()
	writeLUT(t, dir, "badword")
	stats := m.Reload()

	assert.Equal(t, ModeLUT, stats.Mode)
	assert.Equal(t, lutPath, stats.Source)
	assert.True(t, m.Classify("b4dw0rd").Detected)

	// A snapshot taken before the reload keeps answering from the old tables.
	assert.True(t, old.Degraded())
	assert.False(t, old.Classify("b4dw0rd").Detected)
}

func TestClassify_ConcurrentWithReload(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{LUTPath: writeLUT(t, dir, "badword")}, testLogger())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	misses := make(chan string, 100)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if !m.Classify("this is a b4dw0rd").Detected {
					select {
					case misses <- "missed":
					default:
					}
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		m.Reload()
	}
	close(stop)
	wg.Wait()
	close(misses)

	assert.Empty(t, misses)
}

func TestAddTermToLexicon(t *testing.T) {
	dir := t.TempDir()
	lexPath := filepath.Join(dir, "lexicon.txt")
	m := New(Config{
		LUTPath:     writeLUT(t, dir, "badword"),
		LexiconPath: lexPath,
	}, testLogger())

	res, err := m.AddTermToLexicon("newterm")
	require.NoError(t, err)
	assert.True(t, res.Success)

	content, err := os.ReadFile(lexPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "newterm\n")

	// Not applied until the table is regenerated.
	assert.False(t, m.Classify("newterm").Detected)

	res, err = m.AddTermToLexicon("newterm")
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestWatch_ReloadsOnSave(t *testing.T) {
	dir := t.TempDir()
	lutPath := filepath.Join(dir, "profanity_lut.json")
	m := New(Config{LUTPath: lutPath, FallbackTerms: []string{"other"}}, testLogger())
	require.Equal(t, ModeDirect, m.Stats().Mode)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeLUT(t, dir, "badword")

	assert.Eventually(t, func() bool {
		return m.Stats().Mode == ModeLUT
	}, 3*time.Second, 20*time.Millisecond)
	assert.True(t, m.Classify("b4dw0rd").Detected)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_RequiresPath(t *testing.T) {
	m := New(Config{FallbackTerms: []string{"x"}}, testLogger())
	assert.Error(t, m.Watch(context.Background()))
}
