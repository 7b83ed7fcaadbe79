package narrate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arclight-labs/kbase/ai"
	"github.com/arclight-labs/kbase/core"
)

// contextEntries is the number of top results included in the prompt.
const contextEntries = 5

// systemPrompt constrains the model to the supplied context. Entries are
// cited by their rank number.
const systemPrompt = `You are a research assistant summarizing knowledge-base search results.
Answer ONLY from the numbered context entries supplied by the user.
Cite entries by their number, e.g. [1] or [2].
If the context does not answer the query, say so.
Stay concise: at most three sentences.`

// Narrator turns a ranked result set into a short natural-language synthesis
// by delegating to a priority chain of text-generation providers. Narration
// is best-effort: when every provider fails or none are configured, it is
// omitted, never fatal to the search.
type Narrator struct {
	chain  []ai.TextGenerator
	logger *slog.Logger
}

// Option configures a Narrator.
type Option func(*Narrator)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(n *Narrator) {
		if logger == nil {
			logger = slog.Default()
		}
		n.logger = logger
	}
}

// New creates a narrator over an ordered provider chain. The first generator
// that succeeds wins; later ones are only consulted on failure. An empty
// chain is legal and always yields no narration.
func New(chain []ai.TextGenerator, opts ...Option) *Narrator {
	n := &Narrator{
		chain:  chain,
		logger: slog.Default().With("component", "narrate"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Narrate generates a synthesis of the ranked results for the query.
// Returns the empty string when no provider could generate one.
func (n *Narrator) Narrate(ctx context.Context, query string, results []core.ScoredEntry) string {
	if len(results) == 0 || len(n.chain) == 0 {
		return ""
	}

	prompt := buildPrompt(query, results)

	for _, gen := range n.chain {
		text, err := gen.GenerateText(ctx, systemPrompt, prompt)
		if err != nil {
			n.logger.Warn("narration provider failed, trying next",
				"provider", gen.Name(),
				"err", err)
			continue
		}
		if text == "" {
			n.logger.Debug("narration provider returned empty text", "provider", gen.Name())
			continue
		}
		return text
	}

	n.logger.Warn("all narration providers failed, omitting narration",
		"providers", len(n.chain))
	return ""
}

// buildPrompt renders the query and the top results as a bounded numbered
// context block.
func buildPrompt(query string, results []core.ScoredEntry) string {
	top := results
	if len(top) > contextEntries {
		top = top[:contextEntries]
	}

	var b strings.Builder
	b.WriteString("Query: ")
	b.WriteString(query)
	b.WriteString("\n\nContext entries:\n")
	for i := range top {
		entry := &top[i].Entry
		fmt.Fprintf(&b, "[%d] %s", i+1, entry.Title)
		if entry.Summary != "" {
			b.WriteString(" - ")
			b.WriteString(entry.Summary)
		}
		var meta []string
		if entry.Source != "" {
			meta = append(meta, entry.Source)
		}
		if entry.Date != "" {
			meta = append(meta, entry.Date)
		}
		if len(meta) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(meta, ", "))
		}
		if entry.URL != "" {
			b.WriteString(" ")
			b.WriteString(entry.URL)
		}
		b.WriteString("\n")
	}
	return b.String()
}
