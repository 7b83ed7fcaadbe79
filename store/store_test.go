package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arclight-labs/kbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, path string, doc map[string]any) {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

func sampleDoc() map[string]any {
	return map[string]any{
		"entries": []core.Entry{
			{ID: 1, Title: "First entry", Category: "research", Source: "arxiv", Date: "2024-01-01"},
			{ID: 2, Title: "Second entry", Category: "misc", Source: "blog"},
			{ID: 3, Title: "Third entry", Category: "research", Source: "arxiv"},
		},
		"categories":  []string{"research", "misc"},
		"lastUpdated": "2024-06-01",
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	writeSource(t, path, sampleDoc())
	s := New(path)

	snap, err := s.Load()
	require.NoError(t, err)
	require.Len(t, snap.Entries, 3)
	assert.Equal(t, "First entry", snap.Entries[0].Title)
	assert.Equal(t, []string{"research", "misc"}, snap.Categories)
	assert.Equal(t, "2024-06-01", snap.LastUpdated)
	assert.NotEmpty(t, snap.Checksum)
}

func TestLoad_MissingSource(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing.json"))
	_, err := s.Load()
	assert.ErrorIs(t, err, core.ErrLoad)
}

func TestLoad_MalformedSource(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "entries.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		_, err := New(path).Load()
		assert.ErrorIs(t, err, core.ErrLoad)
	})

	t.Run("entry without title", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "entries.json")
		writeSource(t, path, map[string]any{
			"entries": []map[string]any{{"id": 1}},
		})
		_, err := New(path).Load()
		assert.ErrorIs(t, err, core.ErrLoad)
		assert.ErrorIs(t, err, core.ErrEmptyTitle)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "entries.json")
		writeSource(t, path, map[string]any{
			"entries": []map[string]any{{"id": "abc", "title": "x"}},
		})
		_, err := New(path).Load()
		assert.ErrorIs(t, err, core.ErrLoad)
	})
}

func TestLoad_SnapshotReuse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	writeSource(t, path, sampleDoc())
	s := New(path)

	first, err := s.Load()
	require.NoError(t, err)

	t.Run("unchanged mtime returns identical snapshot", func(t *testing.T) {
		second, err := s.Load()
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("changed mtime reparses", func(t *testing.T) {
		doc := sampleDoc()
		doc["lastUpdated"] = "2024-07-01"
		writeSource(t, path, doc)
		// Push the mtime well past the original to defeat coarse
		// filesystem timestamp resolution.
		future := time.Now().Add(2 * time.Second)
		require.NoError(t, os.Chtimes(path, future, future))

		third, err := s.Load()
		require.NoError(t, err)
		assert.NotSame(t, first, third)
		assert.Equal(t, "2024-07-01", third.LastUpdated)
	})
}

func TestStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	writeSource(t, path, sampleDoc())
	s := New(path)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, 2, stats.Categories)
	assert.Equal(t, 2, stats.Sources)
	assert.Equal(t, "2024-06-01", stats.LastUpdated)
	assert.NotEmpty(t, stats.Checksum)
}

func TestRandom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	writeSource(t, path, sampleDoc())
	s := New(path)

	t.Run("unfiltered", func(t *testing.T) {
		entry, err := s.Random("")
		require.NoError(t, err)
		require.NotNil(t, entry)
	})

	t.Run("category filtered", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			entry, err := s.Random("research")
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.Equal(t, "research", entry.Category)
		}
	})

	t.Run("empty category set yields no entry, not an error", func(t *testing.T) {
		entry, err := s.Random("cooking")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("all matches everything", func(t *testing.T) {
		entry, err := s.Random("all")
		require.NoError(t, err)
		require.NotNil(t, entry)
	})
}
