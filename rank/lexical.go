package rank

import (
	"strings"
	"time"

	"github.com/arclight-labs/kbase/core"
)

// minTokenLen is the shortest query token that participates in matching.
// Shorter tokens are noise words.
const minTokenLen = 3

// LexicalScorer computes relevance from substring and word-overlap
// heuristics. It has no external dependencies and is always available.
//
// The score is a pure function of (query, entry, now): the recency boost is
// the only time-dependent term. Tests inject a fixed clock.
type LexicalScorer struct {
	now func() time.Time
}

// NewLexicalScorer creates a lexical scorer using the wall clock.
func NewLexicalScorer() *LexicalScorer {
	return &LexicalScorer{now: time.Now}
}

// NewLexicalScorerAt creates a lexical scorer with an injected clock.
func NewLexicalScorerAt(now func() time.Time) *LexicalScorer {
	if now == nil {
		now = time.Now
	}
	return &LexicalScorer{now: now}
}

// Score returns a non-negative relevance score for the query against one
// entry, plus the set of query tokens that matched.
func (s *LexicalScorer) Score(query string, entry *core.Entry) (float64, []string) {
	q := strings.ToLower(strings.TrimSpace(query))
	text := entry.SearchableText()

	var score float64
	var matched []string

	tokens := tokenize(q)
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			score++
			matched = append(matched, tok)
		}
	}

	title := strings.ToLower(entry.Title)
	switch {
	case q != "" && strings.Contains(title, q):
		score += 10
	case len(tokens) > 0 && allContained(title, tokens):
		score += 5
	}

	if q != "" && entry.Summary != "" && strings.Contains(strings.ToLower(entry.Summary), q) {
		score += 3
	}
	if q != "" && entry.Source != "" && strings.Contains(strings.ToLower(entry.Source), q) {
		score += 2
	}

	// Recency amplifies existing matches only. An entry with no lexical
	// overlap stays at zero regardless of age.
	if score > 0 {
		score += s.recencyBoost(entry)
	}

	return score, matched
}

// recencyBoost favors recent entries: +2 under 30 days old, +1 under 90.
// Entries without a parseable date get no boost.
func (s *LexicalScorer) recencyBoost(entry *core.Entry) float64 {
	date, ok := entry.ParsedDate()
	if !ok {
		return 0
	}
	ageDays := s.now().Sub(date).Hours() / 24
	switch {
	case ageDays < 30:
		return 2
	case ageDays < 90:
		return 1
	}
	return 0
}

// tokenize splits a normalized query on whitespace and drops noise tokens.
func tokenize(q string) []string {
	words := strings.Fields(q)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) >= minTokenLen {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// allContained reports whether every token appears as a substring of text.
func allContained(text string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(text, tok) {
			return false
		}
	}
	return true
}
