package rank

import "github.com/arclight-labs/kbase/core"

// Monitor provides hooks to observe the ranking pipeline.
// Implement this interface to trace filtering, strategy selection, and
// fallback decisions during a search.
type Monitor interface {
	Start(query string)
	AfterFilter(candidates int)
	StrategySelected(strategy core.Strategy)
	Degraded(reason error)
	Finish(results []core.ScoredEntry)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                   {}
func (n *noopMonitor) AfterFilter(_ int)                {}
func (n *noopMonitor) StrategySelected(_ core.Strategy) {}
func (n *noopMonitor) Degraded(_ error)                 {}
func (n *noopMonitor) Finish(_ []core.ScoredEntry)      {}
