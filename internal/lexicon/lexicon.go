// Package lexicon reads and appends to the banned-term lexicon: a plain
// UTF-8 text file with one term per line, where lines starting with "#" are
// comments and blank lines are ignored.
package lexicon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrPlaceholderCreated is returned by Load when the lexicon did not exist and
// a placeholder was written in its place. The operator has to fill it in.
var ErrPlaceholderCreated = errors.New("lexicon: placeholder created, add terms and re-run")

const header = "# Hate speech lexicon - add one term per line\n" +
	"# Lines starting with # are comments\n" +
	"# Only severe, unambiguous terms belong here: every match escalates the sender\n" +
	"# IMPORTANT: Keep this file secure\n"

// Placeholder is written when the lexicon is missing.
const Placeholder = header +
	"example_slur1\n" +
	"example_slur2\n"

// Parse reads terms from r, skipping comments and blank lines. Terms are
// trimmed but otherwise returned as written, in file order.
func Parse(r io.Reader) ([]string, error) {
	var terms []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lexicon: read: %w", err)
	}
	return terms, nil
}

// Load reads the lexicon at path. If the file does not exist, Load writes the
// placeholder and returns ErrPlaceholderCreated.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		if werr := writeFile(path, Placeholder); werr != nil {
			return nil, werr
		}
		return nil, ErrPlaceholderCreated
	}
	if err != nil {
		return nil, fmt.Errorf("lexicon: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("lexicon: create dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("lexicon: write %s: %w", path, err)
	}
	return nil
}

// AddResult reports the outcome of File.Add.
type AddResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// File serializes appends to one lexicon file.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a File for the lexicon at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the lexicon location.
func (f *File) Path() string {
	return f.path
}

// Add appends term to the lexicon. Existing terms are rejected rather than
// duplicated. The LUT is not rebuilt; the caller has to regenerate it.
func (f *File) Add(term string) (AddResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return AddResult{Success: false, Message: "term is empty"}, nil
	}
	if strings.ContainsAny(term, "\r\n") || strings.HasPrefix(term, "#") {
		return AddResult{Success: false, Message: "term must be a single non-comment line"}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	content, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := writeFile(f.path, header); err != nil {
			return AddResult{Success: false, Message: err.Error()}, err
		}
		content = []byte(header)
	} else if err != nil {
		err = fmt.Errorf("lexicon: read %s: %w", f.path, err)
		return AddResult{Success: false, Message: err.Error()}, err
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == term {
			return AddResult{Success: false, Message: "term already exists in lexicon"}, nil
		}
	}

	entry := term + "\n"
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		entry = "\n" + entry
	}

	out, err := os.OpenFile(f.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		err = fmt.Errorf("lexicon: open %s: %w", f.path, err)
		return AddResult{Success: false, Message: err.Error()}, err
	}
	defer out.Close()
	if _, err := out.WriteString(entry); err != nil {
		err = fmt.Errorf("lexicon: append: %w", err)
		return AddResult{Success: false, Message: err.Error()}, err
	}

	return AddResult{
		Success: true,
		Message: fmt.Sprintf("added %q to lexicon, regenerate the LUT to apply it", term),
	}, nil
}
