package orchestrator

import (
	"context"
	"time"
)

// drainCycle moves completed batches from the per-slot sinks into the
// collector, bounded two ways: it skips entirely while the collector's
// backlog exceeds the backpressure threshold, and it stops after the
// wall-clock drain budget so large backlogs cannot stall the caller's
// status-update cadence. Returns whether at least one batch moved.
func (o *Orchestrator) drainCycle(ctx context.Context) bool {
	depth := o.deps.Collector.Depth()
	if depth > o.cfg.BackpressureThreshold {
		o.logger.Info("waiting, too many batches queued", "depth", depth)
		time.Sleep(o.cfg.BackpressureSleep)
		return false
	}

	popped := 0
	start := time.Now()
	for {
		slot, ok, err := o.status.NextFinishedSlot(ctx)
		if err != nil {
			o.logger.Error("failed to pop finished slot", "error", err)
			break
		}
		if !ok || slot < 1 || slot > len(o.sinks) {
			break
		}

		sink := o.sinks[slot-1]
		pending, err := sink.Count(ctx)
		if err != nil {
			o.logger.Error("failed to count batches", "slot", slot, "error", err)
			break
		}
		if pending == 0 {
			break
		}

		batch, ok, err := sink.Pop(ctx)
		if err != nil {
			o.logger.Error("failed to pop batch", "slot", slot, "error", err)
			break
		}
		if !ok {
			break
		}

		o.logger.Info("collected batch", "slot", slot, "pending", pending)
		if err := o.deps.Collector.Insert(ctx, batch); err != nil {
			o.logger.Error("failed to insert batch", "slot", slot, "error", err)
			break
		}
		popped++

		// don't process all batches at once, status updates need a turn
		if time.Since(start) >= o.cfg.DrainBudget {
			break
		}
	}

	if popped > 0 {
		o.deps.RunState.AddIndexed(popped)
		return true
	}
	return false
}
