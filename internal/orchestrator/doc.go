// Package orchestrator drives a fixed-size pool of indexing workers
// through a shared job backlog.
//
// The lifecycle is split into explicit phases so an external scheduler can
// tick it cooperatively:
//
//	o.Enter(ctx, jobs, workers, mode)   // load backlog, start pool
//	for o.Update(ctx) == StateRunning { // poll status, drain results
//	}
//	o.Exit(ctx)                         // join pool, settle results
//
// Update never blocks beyond a short fixed sleep. Each tick it checks the
// backlog size and the running-worker count, pushes progress on change,
// and runs one bounded drain cycle that moves finished batches into the
// collector, pausing under downstream backpressure.
//
// Interruption is cooperative: the interrupt flag clears the job queue so
// every worker finishes its current job and drains to empty; in-flight
// results are still captured by the final drain in Exit. Terminate is the
// hard variant that additionally kills spawned worker processes.
//
// A run ends in a single terminal state either way; the StopReason
// distinguishes an exhausted backlog from an interrupted run, and crashed
// files surface as error records in the result stream rather than through
// the lifecycle signal.
package orchestrator
