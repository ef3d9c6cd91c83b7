package lexicon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := "# comment\n\nbadword\n  spaced term  \n#another\r\nslur\n"

	terms, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"badword", "spaced term", "slur"}, terms)
}

func TestParse_Empty(t *testing.T) {
	terms, err := Parse(strings.NewReader("# only comments\n\n"))
	require.NoError(t, err)
	assert.Empty(t, terms)
}

func TestLoad_MissingCreatesPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moderation", "lexicon.txt")

	terms, err := Load(path)
	assert.ErrorIs(t, err, ErrPlaceholderCreated)
	assert.Nil(t, terms)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Placeholder, string(content))

	// A second load reads the placeholder terms.
	terms, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"example_slur1", "example_slur2"}, terms)
}

func TestFile_Add(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.txt")
	require.NoError(t, os.WriteFile(path, []byte("# header\nbadword"), 0o600))
	f := NewFile(path)

	res, err := f.Add("  slur  ")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "regenerate")

	terms, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"badword", "slur"}, terms)
}

func TestFile_AddDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.txt")
	require.NoError(t, os.WriteFile(path, []byte("badword\n"), 0o600))
	f := NewFile(path)

	res, err := f.Add("badword")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "term already exists in lexicon", res.Message)

	terms, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"badword"}, terms)
}

func TestFile_AddRejectsInvalid(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "lexicon.txt"))

	for _, term := range []string{"", "   ", "two\nlines", "# comment"} {
		res, err := f.Add(term)
		require.NoError(t, err)
		assert.False(t, res.Success, "term %q", term)
	}
}

func TestFile_AddCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lexicon.txt")
	f := NewFile(path)

	res, err := f.Add("newterm")
	require.NoError(t, err)
	assert.True(t, res.Success)

	terms, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"newterm"}, terms)
}
