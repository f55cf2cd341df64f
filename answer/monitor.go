package answer

import "github.com/stophobia/restai/core"

// Monitor provides hooks to observe the answering process.
// Implement this interface to track intermediate steps during retrieval
// and generation.
type Monitor interface {
	Start(question string)
	AfterRetrieval(results []*core.ScoredChunk)
	AfterBudgeting(kept []*core.Chunk)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                       {}
func (n *noopMonitor) AfterRetrieval(_ []*core.ScoredChunk) {}
func (n *noopMonitor) AfterBudgeting(_ []*core.Chunk)       {}
func (n *noopMonitor) Finish(_ *Result)                     {}
