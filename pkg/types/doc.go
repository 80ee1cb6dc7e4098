// Package types defines the value types shared between the orchestrator,
// the worker executables, and the channel layer: indexing jobs, result
// batches, and structured error records.
//
// Everything here is plain data. Jobs are immutable once enqueued; a
// ResultBatch is owned by the sink that holds it until popped, after which
// ownership transfers to the downstream collector.
package types
