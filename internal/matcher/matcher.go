// Package matcher classifies chat messages against the compiled lookup table.
//
// The active table lives in an immutable State published through an atomic
// pointer. Reload builds a complete replacement before swapping it in, so a
// Classify call always sees one consistent table, old or new. When no valid
// table is available the matcher runs in degraded mode against a plain term
// list.
package matcher

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cloudflare/ahocorasick"
	"github.com/sirupsen/logrus"

	"github.com/whisper/chat-moderation/internal/lexicon"
	"github.com/whisper/chat-moderation/internal/lut"
	"github.com/whisper/chat-moderation/internal/metrics"
	"github.com/whisper/chat-moderation/internal/moderation"
)

// Mode is how the active State was loaded.
type Mode string

const (
	ModeLUT    Mode = "lut"
	ModeDirect Mode = "direct" // degraded: fallback term list
)

// Config locates the inputs the matcher loads from.
type Config struct {
	LUTPath     string
	LexiconPath string

	// FallbackTerms replaces the lexicon file as the degraded-mode term list
	// when non-empty.
	FallbackTerms []string
}

// LoadStats describes the State produced by a load.
type LoadStats struct {
	Mode            Mode      `json:"method"`
	ExactMatches    int       `json:"exactMatches,omitempty"`
	NormalizedTerms int       `json:"normalizedTerms,omitempty"`
	RegexPatterns   int       `json:"regexPatterns,omitempty"`
	DroppedPatterns int       `json:"droppedPatterns,omitempty"`
	FallbackTerms   int       `json:"terms,omitempty"`
	Source          string    `json:"source"`
	LoadedAt        time.Time `json:"loadedAt"`
}

// Matcher is safe for concurrent use.
type Matcher struct {
	cfg     Config
	log     logrus.FieldLogger
	lexicon *lexicon.File
	state   atomic.Pointer[State]
}

// New loads the initial State and returns a ready Matcher. It never fails:
// a missing or broken table puts the matcher in degraded mode.
func New(cfg Config, log logrus.FieldLogger) *Matcher {
	m := &Matcher{
		cfg:     cfg,
		log:     log.WithField("component", "matcher"),
		lexicon: lexicon.NewFile(cfg.LexiconPath),
	}
	m.Reload()
	return m
}

// State returns the active snapshot.
func (m *Matcher) State() *State {
	return m.state.Load()
}

// Stats returns the load statistics of the active snapshot.
func (m *Matcher) Stats() LoadStats {
	return m.state.Load().stats
}

// Classify reports whether text contains a banned term, and how it was found.
func (m *Matcher) Classify(text string) moderation.Detection {
	start := time.Now()
	d := m.state.Load().Classify(text)
	metrics.ClassifyLatency.Observe(time.Since(start).Seconds())

	method := string(d.Method)
	if method == "" {
		method = "none"
	}
	metrics.Classifications.WithLabelValues(method).Inc()
	return d
}

// Reload rebuilds the State from disk and swaps it in.
func (m *Matcher) Reload() LoadStats {
	s := m.load()
	m.state.Store(s)

	st := s.stats
	metrics.Reloads.WithLabelValues(string(st.Mode)).Inc()
	metrics.LUTEntries.WithLabelValues("exact").Set(float64(st.ExactMatches))
	metrics.LUTEntries.WithLabelValues("normalized").Set(float64(st.NormalizedTerms))
	metrics.LUTEntries.WithLabelValues("regex").Set(float64(st.RegexPatterns))
	metrics.LUTEntries.WithLabelValues("fallback").Set(float64(st.FallbackTerms))
	if st.Mode == ModeDirect {
		metrics.Degraded.Set(1)
	} else {
		metrics.Degraded.Set(0)
	}
	return st
}

// AddTermToLexicon appends term to the lexicon file. The running State is
// unchanged until the table is regenerated and reloaded.
func (m *Matcher) AddTermToLexicon(term string) (lexicon.AddResult, error) {
	res, err := m.lexicon.Add(term)
	if err != nil {
		m.log.WithError(err).Error("add term to lexicon")
		return res, err
	}
	m.log.WithField("success", res.Success).Info(res.Message)
	return res, nil
}

func (m *Matcher) load() *State {
	if m.cfg.LUTPath != "" {
		table, err := lut.Load(m.cfg.LUTPath)
		if err == nil {
			s := newLUTState(table, m.cfg.LUTPath, m.log)
			m.log.WithFields(logrus.Fields{
				"exact_matches":    s.stats.ExactMatches,
				"normalized_terms": s.stats.NormalizedTerms,
				"regex_patterns":   s.stats.RegexPatterns,
				"dropped_patterns": s.stats.DroppedPatterns,
			}).Info("loaded lookup table")
			return s
		}
		if errors.Is(err, lut.ErrNotFound) {
			m.log.WithField("path", m.cfg.LUTPath).Warn("lookup table not found, falling back to term list")
		} else {
			m.log.WithError(err).Warn("lookup table unusable, falling back to term list")
		}
	}

	terms, source := m.fallbackTerms()
	s := newDirectState(terms, source)
	m.log.WithFields(logrus.Fields{
		"terms":  len(s.fallback),
		"source": source,
	}).Warn("matcher running in degraded mode")
	return s
}

func (m *Matcher) fallbackTerms() ([]string, string) {
	if len(m.cfg.FallbackTerms) > 0 {
		return m.cfg.FallbackTerms, "config"
	}

	terms, err := lexicon.Load(m.cfg.LexiconPath)
	switch {
	case errors.Is(err, lexicon.ErrPlaceholderCreated):
		m.log.WithField("path", m.cfg.LexiconPath).Warn("lexicon not found, created placeholder")
		terms, _ = lexicon.Parse(strings.NewReader(lexicon.Placeholder))
	case err != nil:
		m.log.WithError(err).Error("load lexicon")
		return nil, m.cfg.LexiconPath
	}
	return terms, m.cfg.LexiconPath
}

// State is one immutable generation of the matcher's tables.
type State struct {
	mode  Mode
	stats LoadStats

	exact map[string]string

	normalizedTerms []string // lexicon order
	normalizedCanon []string // canonical term for normalizedTerms[i]
	ac              *ahocorasick.Matcher

	patterns     []*regexp.Regexp
	patternTerms []string

	fallback []fallbackTerm
}

type fallbackTerm struct {
	term       string // lower-cased
	boundary   *regexp.Regexp
	normalized string
}

// Mode reports how the State was loaded.
func (s *State) Mode() Mode { return s.mode }

// Degraded reports whether the State is the fallback term list.
func (s *State) Degraded() bool { return s.mode == ModeDirect }

func newLUTState(t *lut.Table, source string, log logrus.FieldLogger) *State {
	s := &State{
		mode:  ModeLUT,
		exact: t.ExactMatches,
	}

	order := t.NormalizedOrder
	if len(order) != len(t.NormalizedMatches) {
		order = sortedKeys(t.NormalizedMatches)
	}
	for _, k := range order {
		canon, ok := t.NormalizedMatches[k]
		if !ok || k == "" {
			continue
		}
		s.normalizedTerms = append(s.normalizedTerms, k)
		s.normalizedCanon = append(s.normalizedCanon, canon)
	}
	if len(s.normalizedTerms) > 0 {
		s.ac = ahocorasick.NewStringMatcher(s.normalizedTerms)
	}

	dropped := 0
	for i, p := range t.RegexPatterns {
		re, err := moderation.CompilePattern(p)
		if err != nil {
			log.WithError(err).Warn("dropping pattern")
			dropped++
			continue
		}
		term := ""
		if i < len(t.PatternTerms) {
			term = t.PatternTerms[i]
		}
		s.patterns = append(s.patterns, re)
		s.patternTerms = append(s.patternTerms, term)
	}

	s.stats = LoadStats{
		Mode:            ModeLUT,
		ExactMatches:    len(t.ExactMatches),
		NormalizedTerms: len(s.normalizedTerms),
		RegexPatterns:   len(s.patterns),
		DroppedPatterns: dropped,
		Source:          source,
		LoadedAt:        time.Now(),
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newDirectState(terms []string, source string) *State {
	s := &State{mode: ModeDirect}
	for _, raw := range terms {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term == "" {
			continue
		}
		s.fallback = append(s.fallback, fallbackTerm{
			term:       term,
			boundary:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
			normalized: moderation.Normalize(term),
		})
	}
	s.stats = LoadStats{
		Mode:          ModeDirect,
		FallbackTerms: len(s.fallback),
		Source:        source,
		LoadedAt:      time.Now(),
	}
	return s
}

// Classify runs the detection stages against this State. The first stage
// to hit decides the result.
func (s *State) Classify(text string) moderation.Detection {
	if s.mode == ModeDirect {
		return s.classifyDirect(text)
	}

	for _, token := range strings.Fields(strings.ToLower(text)) {
		if term, ok := s.exact[token]; ok {
			return moderation.Detection{Detected: true, Method: moderation.MethodExact, Term: term, Evidence: token}
		}
	}

	if s.ac != nil {
		normalized := moderation.Normalize(text)
		if hits := s.ac.MatchThreadSafe([]byte(normalized)); len(hits) > 0 {
			first := hits[0]
			for _, h := range hits[1:] {
				if h < first {
					first = h
				}
			}
			return moderation.Detection{
				Detected: true,
				Method:   moderation.MethodNormalized,
				Term:     s.normalizedCanon[first],
				Evidence: s.normalizedTerms[first],
			}
		}
	}

	for i, re := range s.patterns {
		if loc := re.FindStringIndex(text); loc != nil {
			return moderation.Detection{
				Detected: true,
				Method:   moderation.MethodRegex,
				Term:     s.patternTerms[i],
				Evidence: text[loc[0]:loc[1]],
			}
		}
	}
	return moderation.Detection{}
}

func (s *State) classifyDirect(text string) moderation.Detection {
	if len(s.fallback) == 0 {
		return moderation.Detection{Degraded: true}
	}
	lower := strings.ToLower(text)
	normalized := moderation.Normalize(text)

	for _, ft := range s.fallback {
		hit := moderation.Detection{Detected: true, Term: ft.term, Evidence: ft.term, Degraded: true}
		switch {
		case strings.Contains(lower, ft.term):
			hit.Method = moderation.MethodSubstring
		case ft.boundary.MatchString(lower):
			hit.Method = moderation.MethodRegex
		case ft.normalized != "" && strings.Contains(normalized, ft.normalized):
			hit.Method = moderation.MethodNormalized
			hit.Evidence = ft.normalized
		default:
			continue
		}
		return hit
	}
	return moderation.Detection{Degraded: true}
}
