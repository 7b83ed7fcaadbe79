package rank

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/arclight-labs/kbase/ai/mock"
	"github.com/arclight-labs/kbase/core"
	"github.com/arclight-labs/kbase/embedcache"
	"github.com/arclight-labs/kbase/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSnapshot writes a snapshot source document and returns its path.
func writeSnapshot(t *testing.T, entries []core.Entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entries.json")
	doc := map[string]any{
		"entries":     entries,
		"categories":  []string{"research", "misc"},
		"lastUpdated": "2024-06-02",
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

// writeCache persists an embedding mapping and returns its path.
func writeCache(t *testing.T, vectors map[string][]float32) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "embeddings.json")
	raw, err := json.Marshal(vectors)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

var testEntries = []core.Entry{
	{ID: 1, Title: "Karpathy releases new tokenizer", Category: "research", Date: "2024-01-01"},
	{ID: 2, Title: "Weather report", Category: "misc", Date: "2024-06-01"},
}

func newLexicalEngine(t *testing.T, entries []core.Entry) *Engine {
	t.Helper()
	st := store.New(writeSnapshot(t, entries))
	cache := embedcache.New(filepath.Join(t.TempDir(), "none.json"), nil)
	engine, err := NewEngine(st, cache, nil)
	require.NoError(t, err)
	return engine
}

func TestNewEngine(t *testing.T) {
	t.Run("nil store", func(t *testing.T) {
		_, err := NewEngine(nil, nil, nil)
		assert.Equal(t, ErrStoreRequired, err)
	})
}

func TestRank_EmptyQuery(t *testing.T) {
	// A store pointed at a nonexistent file proves validation happens
	// before any entry access.
	st := store.New(filepath.Join(t.TempDir(), "missing.json"))
	embedder := mock.NewMockEmbedder()
	cache := embedcache.New(filepath.Join(t.TempDir(), "none.json"), embedder)
	engine, err := NewEngine(st, cache, embedder)
	require.NoError(t, err)

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := engine.Rank(context.Background(), q, core.SearchOptions{})
		assert.ErrorIs(t, err, core.ErrValidation, "query %q", q)
	}
	assert.Equal(t, 0, embedder.CallCount(), "no provider calls for invalid queries")
}

func TestRank_LexicalEndToEnd(t *testing.T) {
	engine := newLexicalEngine(t, testEntries)

	ranking, err := engine.Rank(context.Background(), "karpathy tokenizer", core.SearchOptions{LocalOnly: true})
	require.NoError(t, err)

	assert.Equal(t, core.StrategyLexical, ranking.Strategy)
	assert.False(t, ranking.Degraded)
	require.Len(t, ranking.Entries, 1)
	assert.Equal(t, 1, ranking.Entries[0].Entry.ID)
	assert.ElementsMatch(t, []string{"karpathy", "tokenizer"}, ranking.Entries[0].MatchedTerms)
}

func TestRank_LexicalExcludesRecentNonMatches(t *testing.T) {
	entries := []core.Entry{
		testEntries[0],
		{ID: 2, Title: "Weather report", Category: "misc", Date: "2024-06-20"}, // 11 days before fixedNow
	}
	st := store.New(writeSnapshot(t, entries))
	cache := embedcache.New(filepath.Join(t.TempDir(), "none.json"), nil)
	engine, err := NewEngine(st, cache, nil, WithClock(fixedNow))
	require.NoError(t, err)

	ranking, err := engine.Rank(context.Background(), "karpathy tokenizer", core.SearchOptions{LocalOnly: true})
	require.NoError(t, err)

	require.Len(t, ranking.Entries, 1, "freshness alone never makes an entry a lexical result")
	assert.Equal(t, 1, ranking.Entries[0].Entry.ID)
}

func TestRank_CategoryFilter(t *testing.T) {
	engine := newLexicalEngine(t, testEntries)
	ctx := context.Background()

	t.Run("candidate set narrowed before scoring", func(t *testing.T) {
		var mon captureMonitor
		_, err := engine.RankWithMonitor(ctx, "anything", core.SearchOptions{Category: "research", LocalOnly: true}, &mon)
		require.NoError(t, err)
		assert.Equal(t, 1, mon.candidates)
	})

	t.Run("filtered results are a subset of unfiltered", func(t *testing.T) {
		all, err := engine.Rank(ctx, "report", core.SearchOptions{LocalOnly: true})
		require.NoError(t, err)
		filtered, err := engine.Rank(ctx, "report", core.SearchOptions{Category: "misc", LocalOnly: true})
		require.NoError(t, err)

		allIDs := make(map[int]bool)
		for _, se := range all.Entries {
			allIDs[se.Entry.ID] = true
		}
		for _, se := range filtered.Entries {
			assert.True(t, allIDs[se.Entry.ID])
		}
	})

	t.Run("category match is case-insensitive", func(t *testing.T) {
		ranking, err := engine.Rank(ctx, "karpathy", core.SearchOptions{Category: "RESEARCH", LocalOnly: true})
		require.NoError(t, err)
		require.Len(t, ranking.Entries, 1)
	})

	t.Run("all disables the filter", func(t *testing.T) {
		var mon captureMonitor
		_, err := engine.RankWithMonitor(ctx, "anything", core.SearchOptions{Category: "all", LocalOnly: true}, &mon)
		require.NoError(t, err)
		assert.Equal(t, 2, mon.candidates)
	})
}

func TestRank_DateFilters(t *testing.T) {
	entries := []core.Entry{
		{ID: 1, Title: "alpha report", Date: "2024-01-10"},
		{ID: 2, Title: "alpha report", Date: "2024-06-10"},
		{ID: 3, Title: "alpha report"}, // dateless always passes
	}
	engine := newLexicalEngine(t, entries)
	ctx := context.Background()

	ids := func(opts core.SearchOptions) []int {
		ranking, err := engine.Rank(ctx, "alpha report", opts)
		require.NoError(t, err)
		out := make([]int, 0, len(ranking.Entries))
		for _, se := range ranking.Entries {
			out = append(out, se.Entry.ID)
		}
		return out
	}

	t.Run("dateFrom inclusive", func(t *testing.T) {
		got := ids(core.SearchOptions{DateFrom: "2024-06-10", LocalOnly: true})
		assert.ElementsMatch(t, []int{2, 3}, got)
	})

	t.Run("dateTo inclusive", func(t *testing.T) {
		got := ids(core.SearchOptions{DateTo: "2024-01-10", LocalOnly: true})
		assert.ElementsMatch(t, []int{1, 3}, got)
	})

	t.Run("range", func(t *testing.T) {
		got := ids(core.SearchOptions{DateFrom: "2024-01-01", DateTo: "2024-02-01", LocalOnly: true})
		assert.ElementsMatch(t, []int{1, 3}, got)
	})
}

func TestRank_SortStabilityAndLimit(t *testing.T) {
	entries := []core.Entry{
		{ID: 10, Title: "gopher tutorial"},
		{ID: 20, Title: "gopher tutorial"},
		{ID: 30, Title: "gopher tutorial"},
	}
	engine := newLexicalEngine(t, entries)
	ctx := context.Background()

	t.Run("ties keep snapshot order", func(t *testing.T) {
		ranking, err := engine.Rank(ctx, "gopher tutorial", core.SearchOptions{LocalOnly: true})
		require.NoError(t, err)
		require.Len(t, ranking.Entries, 3)
		assert.Equal(t, 10, ranking.Entries[0].Entry.ID)
		assert.Equal(t, 20, ranking.Entries[1].Entry.ID)
		assert.Equal(t, 30, ranking.Entries[2].Entry.ID)
	})

	t.Run("limit truncates", func(t *testing.T) {
		ranking, err := engine.Rank(ctx, "gopher", core.SearchOptions{Limit: 2, LocalOnly: true})
		require.NoError(t, err)
		assert.Len(t, ranking.Entries, 2)
	})
}

func TestRank_VectorStrategy(t *testing.T) {
	ctx := context.Background()

	newVectorEngine := func(t *testing.T, embedder *mock.MockEmbedder, vectors map[string][]float32) *Engine {
		st := store.New(writeSnapshot(t, testEntries))
		cache := embedcache.New(writeCache(t, vectors), embedder)
		engine, err := NewEngine(st, cache, embedder)
		require.NoError(t, err)
		return engine
	}

	t.Run("ranks by cosine similarity", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 0}, nil
		}
		engine := newVectorEngine(t, embedder, map[string][]float32{
			"1": {0.9, 0.1},
			"2": {0.1, 0.9},
		})

		ranking, err := engine.Rank(ctx, "tokenizers", core.SearchOptions{})
		require.NoError(t, err)

		assert.Equal(t, core.StrategyVector, ranking.Strategy)
		assert.False(t, ranking.Degraded)
		// Both entries retained: the vector strategy never drops low
		// similarities.
		require.Len(t, ranking.Entries, 2)
		assert.Equal(t, 1, ranking.Entries[0].Entry.ID)
		assert.Equal(t, 2, ranking.Entries[1].Entry.ID)
		assert.Greater(t, ranking.Entries[0].Score, ranking.Entries[1].Score)
	})

	t.Run("missing embedding scores zero but is retained", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 0}, nil
		}
		engine := newVectorEngine(t, embedder, map[string][]float32{
			"1": {0.9, 0.1},
		})

		ranking, err := engine.Rank(ctx, "tokenizers", core.SearchOptions{})
		require.NoError(t, err)
		require.Len(t, ranking.Entries, 2)
		assert.Equal(t, 2, ranking.Entries[1].Entry.ID)
		assert.Equal(t, 0.0, ranking.Entries[1].Score)
	})

	t.Run("dimension mismatch falls back to lexical", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 0}, nil
		}
		engine := newVectorEngine(t, embedder, map[string][]float32{
			"1": {0.9, 0.1, 0.3},
		})

		ranking, err := engine.Rank(ctx, "karpathy tokenizer", core.SearchOptions{})
		require.NoError(t, err)
		assert.Equal(t, core.StrategyLexical, ranking.Strategy)
		assert.True(t, ranking.Degraded)
	})
}

func TestRank_Fallback(t *testing.T) {
	ctx := context.Background()

	t.Run("provider failure degrades to lexical, result matches local", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("connection refused")
		}
		st := store.New(writeSnapshot(t, testEntries))
		cache := embedcache.New(writeCache(t, map[string][]float32{"1": {1, 0}}), embedder)
		engine, err := NewEngine(st, cache, embedder)
		require.NoError(t, err)

		remote, err := engine.Rank(ctx, "karpathy tokenizer", core.SearchOptions{})
		require.NoError(t, err)
		local, err := engine.Rank(ctx, "karpathy tokenizer", core.SearchOptions{LocalOnly: true})
		require.NoError(t, err)

		assert.True(t, remote.Degraded)
		assert.False(t, local.Degraded)
		assert.Equal(t, core.StrategyLexical, remote.Strategy)
		require.Equal(t, len(local.Entries), len(remote.Entries))
		for i := range local.Entries {
			assert.Equal(t, local.Entries[i].Entry.ID, remote.Entries[i].Entry.ID)
			assert.Equal(t, local.Entries[i].Score, remote.Entries[i].Score)
		}
	})

	t.Run("no provider key degrades remote-preferring requests", func(t *testing.T) {
		engine := newLexicalEngine(t, testEntries)

		ranking, err := engine.Rank(ctx, "karpathy", core.SearchOptions{})
		require.NoError(t, err)
		assert.True(t, ranking.Degraded)
		assert.Equal(t, core.StrategyLexical, ranking.Strategy)
	})

	t.Run("empty cache with no key degrades", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		st := store.New(writeSnapshot(t, testEntries))
		// Cache path does not exist and the engine's cache has no
		// embedder, so the remote path cannot populate it.
		cache := embedcache.New(filepath.Join(t.TempDir(), "missing.json"), nil)
		engine, err := NewEngine(st, cache, embedder)
		require.NoError(t, err)

		ranking, err := engine.Rank(ctx, "karpathy", core.SearchOptions{})
		require.NoError(t, err)
		assert.True(t, ranking.Degraded)
		assert.Equal(t, core.StrategyLexical, ranking.Strategy)
	})

	t.Run("fallback is per request", func(t *testing.T) {
		calls := 0
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("transient outage")
			}
			return []float32{1, 0}, nil
		}
		st := store.New(writeSnapshot(t, testEntries))
		cache := embedcache.New(writeCache(t, map[string][]float32{"1": {1, 0}, "2": {0, 1}}), embedder)
		engine, err := NewEngine(st, cache, embedder)
		require.NoError(t, err)

		first, err := engine.Rank(ctx, "karpathy", core.SearchOptions{})
		require.NoError(t, err)
		assert.True(t, first.Degraded)

		second, err := engine.Rank(ctx, "karpathy", core.SearchOptions{})
		require.NoError(t, err)
		assert.False(t, second.Degraded)
		assert.Equal(t, core.StrategyVector, second.Strategy)
	})
}

func TestRank_LoadErrorPropagates(t *testing.T) {
	st := store.New(filepath.Join(t.TempDir(), "missing.json"))
	cache := embedcache.New(filepath.Join(t.TempDir(), "none.json"), nil)
	engine, err := NewEngine(st, cache, nil)
	require.NoError(t, err)

	_, err = engine.Rank(context.Background(), "query", core.SearchOptions{LocalOnly: true})
	assert.ErrorIs(t, err, core.ErrLoad)
}

// captureMonitor records pipeline callbacks for assertions.
type captureMonitor struct {
	query      string
	candidates int
	strategy   core.Strategy
	degraded   []error
	finished   int
}

var _ Monitor = (*captureMonitor)(nil)

func (m *captureMonitor) Start(query string)                { m.query = query }
func (m *captureMonitor) AfterFilter(candidates int)        { m.candidates = candidates }
func (m *captureMonitor) StrategySelected(s core.Strategy)  { m.strategy = s }
func (m *captureMonitor) Degraded(err error)                { m.degraded = append(m.degraded, err) }
func (m *captureMonitor) Finish(results []core.ScoredEntry) { m.finished = len(results) }
