package core

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DateLayout is the canonical date format for entry dates and filter bounds.
// Dates in this layout compare correctly as plain strings, which is what the
// range filters rely on.
const DateLayout = "2006-01-02"

// Entry is a single knowledge-base record. Entries are immutable once loaded;
// the store replaces whole snapshots rather than mutating entries in place.
type Entry struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary,omitempty"`
	Category string   `json:"category,omitempty"`
	Source   string   `json:"source,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Date     string   `json:"date,omitempty"`
	URL      string   `json:"url,omitempty"`
}

// Key returns the entry's identity as a string, used to key the persisted
// embedding mapping.
func (e *Entry) Key() string {
	return strconv.Itoa(e.ID)
}

// SearchableText returns the lowercased concatenation of all text fields the
// lexical scorer matches against.
func (e *Entry) SearchableText() string {
	parts := []string{e.Title, e.Summary, e.Category, e.Source, strings.Join(e.Tags, " ")}
	return strings.ToLower(strings.Join(parts, " "))
}

// EmbedText builds the text submitted to the embedding provider for this
// entry. Title first, then summary and the remaining descriptive fields.
func (e *Entry) EmbedText() string {
	var b strings.Builder
	b.WriteString(e.Title)
	if e.Summary != "" {
		b.WriteString("\n")
		b.WriteString(e.Summary)
	}
	if e.Category != "" {
		b.WriteString("\n")
		b.WriteString(e.Category)
	}
	if e.Source != "" {
		b.WriteString("\n")
		b.WriteString(e.Source)
	}
	if len(e.Tags) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(e.Tags, " "))
	}
	return b.String()
}

// ParsedDate parses the entry's date. The second return value is false when
// the entry has no date or the date is not in a recognized layout.
func (e *Entry) ParsedDate() (time.Time, bool) {
	if e.Date == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, e.Date); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, e.Date); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Snapshot is an immutable view of the knowledge base at one point in time.
type Snapshot struct {
	Entries     []Entry
	Categories  []string
	LastUpdated string
	Checksum    string
}

// Stats holds aggregate counts derived from a snapshot.
type Stats struct {
	TotalEntries int    `json:"totalEntries"`
	Categories   int    `json:"categories"`
	Sources      int    `json:"sources"`
	LastUpdated  string `json:"lastUpdated"`
	Checksum     string `json:"checksum"`
}

// Strategy identifies which scorer produced a result set.
type Strategy string

const (
	// StrategyLexical is the local substring/word-overlap scorer.
	StrategyLexical Strategy = "lexical"
	// StrategyVector is the embedding cosine-similarity scorer.
	StrategyVector Strategy = "vector"
)

// ScoredEntry pairs an entry with its relevance score for one query.
// Transient, recomputed per query, never persisted.
type ScoredEntry struct {
	Entry        Entry
	Score        float64
	MatchedTerms []string
}

// SearchOptions narrows and shapes a ranked search.
type SearchOptions struct {
	// Category filters entries by exact case-insensitive category match.
	// Empty or "all" disables the filter.
	Category string
	// DateFrom and DateTo are inclusive bounds in DateLayout form.
	// Entries without a date always pass.
	DateFrom string
	DateTo   string
	// Limit caps the number of results. Defaults to DefaultLimit when <= 0.
	Limit int
	// LocalOnly forces the lexical strategy even when a provider is configured.
	LocalOnly bool
}

// DefaultLimit is the result cap applied when SearchOptions.Limit is unset.
const DefaultLimit = 10

// ResultRecord is one entry of the result envelope, with the display-oriented
// 0-100 relevance percentage derived from the raw score.
type ResultRecord struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Summary      string   `json:"summary,omitempty"`
	Category     string   `json:"category,omitempty"`
	Source       string   `json:"source,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Date         string   `json:"date,omitempty"`
	URL          string   `json:"url,omitempty"`
	Relevance    int      `json:"relevance"`
	MatchedTerms []string `json:"matchedTerms,omitempty"`
}

// Result is the envelope returned to search callers.
type Result struct {
	Narration string         `json:"narration,omitempty"`
	Results   []ResultRecord `json:"results"`
	Total     int            `json:"total"`
	Degraded  bool           `json:"degraded"`
	Strategy  Strategy       `json:"strategy"`
}

// Fingerprint returns a short hex digest of content using BLAKE2b.
// Identical content always produces an identical fingerprint.
func Fingerprint(data []byte) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
