// Package channel provides the cross-boundary structures an indexing run is
// built on: the shared job queue, the per-slot status channel, and one
// result sink per worker slot.
//
// Two conforming transports exist:
//
//   - MemoryTransport: mutex-guarded slices, for goroutine-mode workers and
//     tests.
//   - SQLiteTransport: a WAL-mode SQLite database file shared between the
//     host and externally spawned worker processes. Single-statement
//     DELETE ... RETURNING pops and short transactions keep every operation
//     atomic across process boundaries.
//
// The orchestrator never depends on a concrete transport, only on the
// JobQueue, StatusChannel, and ResultSink contracts.
package channel
