// Package collector receives drained result batches and merges them into
// the result store. Its Depth signal drives the orchestrator's
// backpressure: when too many batches queue up unmerged, draining pauses.
package collector
