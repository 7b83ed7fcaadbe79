package render

import (
	"fmt"
	"strings"

	"github.com/arclight-labs/kbase/core"
)

// Display bounds for chat rendering.
const (
	maxTitleLen   = 80
	maxSummaryLen = 200
)

// escaper escapes the special characters of the MarkdownV2 chat dialect.
var escaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]",
	"(", "\\(", ")", "\\)", "~", "\\~", "`", "\\`",
	">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}",
	".", "\\.", "!", "\\!",
)

// Escape escapes every markup special character in s so the result renders
// literally. Escaping is total over well-formed UTF-8 input.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Truncate shortens s to at most n runes, appending a truncation marker when
// anything was cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// Result renders a search result envelope as escaped chat markup.
func Result(res *core.Result) string {
	var b strings.Builder

	if res.Narration != "" {
		b.WriteString(Escape(res.Narration))
		b.WriteString("\n\n")
	}

	if res.Total == 0 {
		b.WriteString("No results\\.")
		return b.String()
	}

	for i, rec := range res.Results {
		fmt.Fprintf(&b, "%d\\. *%s* \\(%d%%\\)\n",
			i+1,
			Escape(Truncate(rec.Title, maxTitleLen)),
			rec.Relevance)
		if rec.Summary != "" {
			b.WriteString(Escape(Truncate(rec.Summary, maxSummaryLen)))
			b.WriteString("\n")
		}
		var meta []string
		if rec.Source != "" {
			meta = append(meta, rec.Source)
		}
		if rec.Date != "" {
			meta = append(meta, rec.Date)
		}
		if len(meta) > 0 {
			b.WriteString(Escape(strings.Join(meta, " · ")))
			b.WriteString("\n")
		}
		if rec.URL != "" {
			b.WriteString(Escape(rec.URL))
			b.WriteString("\n")
		}
		if i < len(res.Results)-1 {
			b.WriteString("\n")
		}
	}

	if res.Degraded {
		b.WriteString("\n_degraded: remote search unavailable_")
	}

	return b.String()
}
