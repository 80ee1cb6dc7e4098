package collector

import (
	"context"
	"sync"

	"symdex/pkg/types"
)

// Collector is the downstream consumer of drained result batches. Depth
// reports how many inserted batches still await merging; the orchestrator
// uses it for backpressure.
type Collector interface {
	// Insert hands a fully formed batch to the collector. A batch is
	// inserted at most once.
	Insert(ctx context.Context, batch *types.ResultBatch) error

	// Depth reports the number of batches inserted but not yet merged.
	Depth() int
}

// MemoryCollector accumulates batches in memory. It backs tests and hosts
// that post-process results themselves.
type MemoryCollector struct {
	mu      sync.Mutex
	batches []*types.ResultBatch
	merged  int
}

// NewMemoryCollector creates an empty collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

func (c *MemoryCollector) Insert(_ context.Context, batch *types.ResultBatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, batch)
	return nil
}

func (c *MemoryCollector) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batches) - c.merged
}

// MarkMerged consumes n pending batches, reducing Depth. Tests use it to
// simulate a downstream consumer keeping up or falling behind.
func (c *MemoryCollector) MarkMerged(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.merged += n
	if c.merged > len(c.batches) {
		c.merged = len(c.batches)
	}
}

// Batches returns every batch ever inserted, in insertion order.
func (c *MemoryCollector) Batches() []*types.ResultBatch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*types.ResultBatch(nil), c.batches...)
}

// Errors returns all error records across inserted batches.
func (c *MemoryCollector) Errors() []types.ErrorRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []types.ErrorRecord
	for _, b := range c.batches {
		errs = append(errs, b.Errors...)
	}
	return errs
}
