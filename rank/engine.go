package rank

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/arclight-labs/kbase/ai"
	"github.com/arclight-labs/kbase/core"
	"github.com/arclight-labs/kbase/embedcache"
	"github.com/arclight-labs/kbase/store"
)

// Engine turns a query plus structural filters into a scored, ordered result
// set. It selects between the vector and lexical strategies per request and
// degrades to lexical whenever the vector path's prerequisites fail.
type Engine struct {
	store    *store.Store
	cache    *embedcache.Cache
	embedder ai.Embedder
	logger   *slog.Logger
	now      func() time.Time
}

// Ranking is the outcome of one Rank call.
type Ranking struct {
	Entries []core.ScoredEntry
	// Strategy is the scorer that actually produced the entries.
	Strategy core.Strategy
	// Degraded is true when Strategy differs from the caller's preference.
	Degraded bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// WithClock injects the clock used for the lexical recency boost.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a ranking engine. The embedder may be nil when no
// provider key is configured; the engine then always ranks lexically and
// flags remote-preferring requests as degraded.
func NewEngine(st *store.Store, cache *embedcache.Cache, embedder ai.Embedder, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, ErrStoreRequired
	}

	e := &Engine{
		store:    st,
		cache:    cache,
		embedder: embedder,
		logger:   slog.Default().With("component", "rank"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Rank scores, orders, and truncates the entries matching the query and
// options.
func (e *Engine) Rank(ctx context.Context, query string, opts core.SearchOptions) (*Ranking, error) {
	return e.RankWithMonitor(ctx, query, opts, nil)
}

// RankWithMonitor ranks with observation hooks. The monitor receives
// callbacks at each stage of the pipeline.
func (e *Engine) RankWithMonitor(ctx context.Context, query string, opts core.SearchOptions, monitor Monitor) (*Ranking, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	monitor.Start(query)

	snap, err := e.store.Load()
	if err != nil {
		return nil, err
	}

	candidates := filterEntries(snap.Entries, opts)
	monitor.AfterFilter(len(candidates))

	limit := opts.Limit
	if limit <= 0 {
		limit = core.DefaultLimit
	}

	preferRemote := !opts.LocalOnly

	if preferRemote && e.embedder != nil {
		scored, err := e.rankVector(ctx, query, snap.Entries, candidates)
		if err == nil {
			monitor.StrategySelected(core.StrategyVector)
			result := &Ranking{Entries: truncate(scored, limit), Strategy: core.StrategyVector}
			monitor.Finish(result.Entries)
			return result, nil
		}
		// Any failure of the remote path routes this request to the
		// lexical scorer. The next request re-attempts remote.
		e.logger.Warn("vector strategy unavailable, falling back to lexical", "err", err)
		monitor.Degraded(err)
	} else if preferRemote {
		err := fmt.Errorf("%w: no provider key configured for remote search", core.ErrConfiguration)
		e.logger.Debug("remote search requested without provider", "err", err)
		monitor.Degraded(err)
	}

	scored := e.rankLexical(query, candidates)
	monitor.StrategySelected(core.StrategyLexical)

	result := &Ranking{
		Entries:  truncate(scored, limit),
		Strategy: core.StrategyLexical,
		Degraded: preferRemote,
	}
	monitor.Finish(result.Entries)
	return result, nil
}

// rankLexical scores every candidate lexically, drops zero scores (no
// lexical overlap is not a result), and orders the rest.
func (e *Engine) rankLexical(query string, candidates []core.Entry) []core.ScoredEntry {
	scorer := NewLexicalScorerAt(e.now)

	scored := make([]core.ScoredEntry, 0, len(candidates))
	for i := range candidates {
		score, matched := scorer.Score(query, &candidates[i])
		if score <= 0 {
			continue
		}
		scored = append(scored, core.ScoredEntry{
			Entry:        candidates[i],
			Score:        score,
			MatchedTerms: matched,
		})
	}

	sortByScore(scored)
	return scored
}

// rankVector embeds the query and scores every candidate by cosine
// similarity. Unlike the lexical path, low or zero similarities are kept:
// cosine similarity is rarely exactly zero and a weak match is still a
// ranking signal. Errors here make the whole vector strategy unavailable for
// this request.
func (e *Engine) rankVector(ctx context.Context, query string, all, candidates []core.Entry) ([]core.ScoredEntry, error) {
	if err := e.cache.Ensure(ctx, all); err != nil {
		return nil, err
	}

	queryVec, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", core.ErrProvider, err)
	}
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("%w: provider returned empty query embedding", core.ErrProvider)
	}

	scorer := NewVectorScorer(queryVec, e.cache)

	scored := make([]core.ScoredEntry, 0, len(candidates))
	for i := range candidates {
		score, err := scorer.Score(&candidates[i])
		if err != nil {
			return nil, err
		}
		scored = append(scored, core.ScoredEntry{
			Entry: candidates[i],
			Score: score,
		})
	}

	sortByScore(scored)
	return scored, nil
}

// filterEntries applies the structural filters in order: category, then
// dateFrom, then dateTo. Entries without a date always pass the date bounds.
func filterEntries(entries []core.Entry, opts core.SearchOptions) []core.Entry {
	out := make([]core.Entry, 0, len(entries))
	for _, entry := range entries {
		if opts.Category != "" && !strings.EqualFold(opts.Category, "all") &&
			!strings.EqualFold(entry.Category, opts.Category) {
			continue
		}
		if opts.DateFrom != "" && entry.Date != "" && entry.Date < opts.DateFrom {
			continue
		}
		if opts.DateTo != "" && entry.Date != "" && entry.Date > opts.DateTo {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// sortByScore orders entries by score descending. The sort must be stable:
// ties keep their snapshot order.
func sortByScore(scored []core.ScoredEntry) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
}

// truncate caps the result set at limit.
func truncate(scored []core.ScoredEntry, limit int) []core.ScoredEntry {
	if len(scored) > limit {
		return scored[:limit]
	}
	return scored
}

// Percent maps a raw score to the 0-100 relevance percentage shown to users.
// Lexical scores scale by 10 and saturate at 100; vector similarities map
// directly to a rounded percentage.
func Percent(strategy core.Strategy, score float64) int {
	if strategy == core.StrategyVector {
		return int(math.Round(score * 100))
	}
	p := score * 10
	if p > 100 {
		p = 100
	}
	return int(p)
}
