// Package search provides a simple, deterministic, concurrency-safe
// relevance scorer used to rank client documents against a query. It is
// intentionally small and dependency-free:
//
//   - No logging in the library (callers decide how/what to log)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Immutable scorer after construction (safe for concurrent use)
//   - Deterministic scoring (stable results for identical input)
//
// Scoring uses Jaccard similarity between the query token set and the
// candidate text's token set: score = |Q ∩ T| / |Q ∪ T|.
package search

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Option configures a Scorer.
type Option func(*Scorer)

// WithStopwords removes the given words (case-insensitive) from both query
// and candidate token sets before scoring.
func WithStopwords(words []string) Option {
	return func(s *Scorer) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			s.stopwords = m
		}
	}
}

// Scorer computes query/text relevance. The zero value is usable; NewScorer
// applies options on top of it.
type Scorer struct {
	stopwords map[string]struct{}
}

// NewScorer constructs a Scorer with the given options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score returns the Jaccard similarity between query and text in [0,1].
// An empty query or empty text scores 0.
func (s *Scorer) Score(query, text string) float64 {
	q := tokenize(query, s.stopwords)
	if len(q) == 0 {
		return 0
	}
	t := tokenize(text, s.stopwords)
	if len(t) == 0 {
		return 0
	}
	inter := 0
	for w := range q {
		if _, ok := t[w]; ok {
			inter++
		}
	}
	if inter == 0 {
		return 0
	}
	union := len(q) + len(t) - inter
	return float64(inter) / float64(union)
}

// SplitParagraphs splits text into trimmed paragraphs on blank lines.
// Empty paragraphs are dropped. Used by callers that must truncate at a
// content boundary instead of mid-unit.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ---------------------------------------------------------------------------

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			continue
		}
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}
