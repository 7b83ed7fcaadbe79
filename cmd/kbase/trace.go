package main

import (
	"log/slog"

	"github.com/arclight-labs/kbase/core"
	"github.com/arclight-labs/kbase/rank"
)

// traceMonitor logs each stage of the ranking pipeline. Installed by the
// search command's --trace flag.
type traceMonitor struct {
	logger *slog.Logger
}

var _ rank.Monitor = (*traceMonitor)(nil)

func (t *traceMonitor) Start(query string) {
	t.logger.Info("search started", "query", query)
}

func (t *traceMonitor) AfterFilter(candidates int) {
	t.logger.Info("filters applied", "candidates", candidates)
}

func (t *traceMonitor) StrategySelected(strategy core.Strategy) {
	t.logger.Info("strategy selected", "strategy", strategy)
}

func (t *traceMonitor) Degraded(reason error) {
	t.logger.Warn("degraded to lexical strategy", "reason", reason)
}

func (t *traceMonitor) Finish(results []core.ScoredEntry) {
	for i, r := range results {
		t.logger.Info("result", "rank", i+1, "id", r.Entry.ID, "score", r.Score, "title", r.Entry.Title)
	}
	t.logger.Info("search finished", "results", len(results))
}
