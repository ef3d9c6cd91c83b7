// Package lut builds, saves and loads the profanity lookup table: the
// precomputed artifact that maps exact spellings and normalized forms back
// to canonical lexicon terms, plus the evasion patterns derived from them.
//
// The artifact is plain indented JSON so operators can inspect it.
package lut

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Version is the artifact format tag written by this package.
const Version = "1.0"

// ErrNotFound is returned by Load when the artifact does not exist.
var ErrNotFound = fmt.Errorf("lut: artifact not found: %w", fs.ErrNotExist)

// Table is the compiled lookup artifact. It is never mutated after Build or
// Load returns.
type Table struct {
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generatedAt"`
	Threshold   float64   `json:"threshold"`

	// ExactMatches maps every generated spelling to its canonical term.
	ExactMatches map[string]string `json:"exactMatches"`

	// NormalizedMatches maps each normalized term to its canonical term.
	NormalizedMatches map[string]string `json:"normalizedMatches"`

	// NormalizedOrder lists the NormalizedMatches keys in lexicon order.
	NormalizedOrder []string `json:"normalizedOrder,omitempty"`

	RegexPatterns []string `json:"regexPatterns"`

	// PatternTerms[i] is the canonical term RegexPatterns[i] came from.
	PatternTerms []string `json:"patternTerms,omitempty"`
}

// UnmarshalJSON accepts artifacts that carry the generation time under the
// older "updated" key.
func (t *Table) UnmarshalJSON(data []byte) error {
	type plain Table
	aux := struct {
		*plain
		Updated *time.Time `json:"updated"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.GeneratedAt.IsZero() && aux.Updated != nil {
		t.GeneratedAt = *aux.Updated
	}
	return nil
}

// Validate checks the invariants a consumer relies on.
func (t *Table) Validate() error {
	if t.Version == "" {
		return errors.New("lut: missing version")
	}
	if t.Threshold <= 0 || t.Threshold >= 1 {
		return fmt.Errorf("lut: threshold %v outside (0,1)", t.Threshold)
	}
	if t.ExactMatches == nil || t.NormalizedMatches == nil {
		return errors.New("lut: missing match tables")
	}
	if len(t.PatternTerms) != 0 && len(t.PatternTerms) != len(t.RegexPatterns) {
		return fmt.Errorf("lut: %d pattern terms for %d patterns", len(t.PatternTerms), len(t.RegexPatterns))
	}
	return nil
}

// Save writes the table as indented JSON. The file is written next to path
// and renamed into place, so readers never see a partial artifact.
func (t *Table) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("lut: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("lut: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".lut-*.json")
	if err != nil {
		return fmt.Errorf("lut: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("lut: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("lut: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("lut: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("lut: rename: %w", err)
	}
	return nil
}

// Load reads and validates the artifact at path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lut: read %s: %w", path, err)
	}

	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("lut: decode %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}
