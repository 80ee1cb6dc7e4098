// Package worker implements the two execution strategies an indexing run
// can use behind one contract: ProcessWorker spawns and supervises an
// external worker executable (respawning it on crash until the queue
// drains or the run is interrupted), GoroutineWorker runs the same
// drain-the-queue loop on an in-process goroutine.
//
// The actual per-file indexing logic is injected as a Payload; this
// package only coordinates execution.
package worker
