package core

import (
	"strings"
	"testing"
	"time"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same fingerprint", content: "test content"},
		{name: "empty input", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp1 := Fingerprint([]byte(tt.content))
			fp2 := Fingerprint([]byte(tt.content))

			if fp1 != fp2 {
				t.Errorf("Fingerprint() produced different digests for same content: %s vs %s", fp1, fp2)
			}
			if len(fp1) != 16 {
				t.Errorf("Fingerprint() length = %d, want 16 hex chars", len(fp1))
			}
		})
	}
}

func TestFingerprint_Different(t *testing.T) {
	fp1 := Fingerprint([]byte("content1"))
	fp2 := Fingerprint([]byte("content2"))

	if fp1 == fp2 {
		t.Errorf("Fingerprint() produced same digest for different content")
	}
}

func TestEntrySearchableText(t *testing.T) {
	entry := Entry{
		ID:       1,
		Title:    "Karpathy Releases New Tokenizer",
		Summary:  "A minimal BPE implementation",
		Category: "Research",
		Source:   "HackerNews",
		Tags:     []string{"LLM", "tokenizers"},
	}

	text := entry.SearchableText()

	for _, want := range []string{"karpathy", "bpe", "research", "hackernews", "llm", "tokenizers"} {
		if !strings.Contains(text, want) {
			t.Errorf("SearchableText() missing %q in %q", want, text)
		}
	}
}

func TestEntryEmbedText(t *testing.T) {
	entry := Entry{
		ID:      1,
		Title:   "Title here",
		Summary: "Summary here",
		Tags:    []string{"a", "b"},
	}

	text := entry.EmbedText()
	if !strings.Contains(text, "Title here") || !strings.Contains(text, "Summary here") || !strings.Contains(text, "a b") {
		t.Errorf("EmbedText() = %q, missing expected fields", text)
	}
}

func TestEntryParsedDate(t *testing.T) {
	t.Run("canonical layout", func(t *testing.T) {
		entry := Entry{Date: "2024-06-01"}
		d, ok := entry.ParsedDate()
		if !ok {
			t.Fatal("ParsedDate() failed for canonical layout")
		}
		if d.Year() != 2024 || d.Month() != time.June {
			t.Errorf("ParsedDate() = %v", d)
		}
	})

	t.Run("rfc3339", func(t *testing.T) {
		entry := Entry{Date: "2024-06-01T12:00:00Z"}
		if _, ok := entry.ParsedDate(); !ok {
			t.Error("ParsedDate() failed for RFC3339")
		}
	})

	t.Run("absent", func(t *testing.T) {
		entry := Entry{}
		if _, ok := entry.ParsedDate(); ok {
			t.Error("ParsedDate() succeeded for empty date")
		}
	})

	t.Run("unparseable", func(t *testing.T) {
		entry := Entry{Date: "last tuesday"}
		if _, ok := entry.ParsedDate(); ok {
			t.Error("ParsedDate() succeeded for junk date")
		}
	})
}

func TestEntryKey(t *testing.T) {
	entry := Entry{ID: 42}
	if entry.Key() != "42" {
		t.Errorf("Key() = %q, want \"42\"", entry.Key())
	}
}
