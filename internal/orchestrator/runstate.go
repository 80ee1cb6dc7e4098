package orchestrator

import "sync"

// RunState is the typed shared state of one indexing run. The orchestrator
// mutates it and the progress/control collaborators read it, all under one
// lock. It replaces the string-keyed blackboard of older designs.
type RunState struct {
	mu                 sync.Mutex
	totalSourceFiles   int
	indexedSourceFiles int
	activeWorkerCount  int
	interrupted        bool
}

// RunSnapshot is a consistent copy of the counters.
type RunSnapshot struct {
	TotalSourceFiles   int
	IndexedSourceFiles int
	ActiveWorkerCount  int
	Interrupted        bool
}

// NewRunState creates a zeroed run state.
func NewRunState() *RunState {
	return &RunState{}
}

// SetTotalSourceFiles records the size of the upcoming backlog.
func (s *RunState) SetTotalSourceFiles(n int) {
	s.mu.Lock()
	s.totalSourceFiles = n
	s.mu.Unlock()
}

// ResetIndexed zeroes the completed-job counter at run start.
func (s *RunState) ResetIndexed() {
	s.mu.Lock()
	s.indexedSourceFiles = 0
	s.mu.Unlock()
}

// AddIndexed adds n completed jobs.
func (s *RunState) AddIndexed(n int) {
	s.mu.Lock()
	s.indexedSourceFiles += n
	s.mu.Unlock()
}

// SetActiveWorkers records how many worker slots the run started with;
// reset to zero on exit.
func (s *RunState) SetActiveWorkers(n int) {
	s.mu.Lock()
	s.activeWorkerCount = n
	s.mu.Unlock()
}

// SetInterrupted marks the run as interrupted.
func (s *RunState) SetInterrupted(v bool) {
	s.mu.Lock()
	s.interrupted = v
	s.mu.Unlock()
}

// Snapshot returns a consistent copy of all counters.
func (s *RunState) Snapshot() RunSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RunSnapshot{
		TotalSourceFiles:   s.totalSourceFiles,
		IndexedSourceFiles: s.indexedSourceFiles,
		ActiveWorkerCount:  s.activeWorkerCount,
		Interrupted:        s.interrupted,
	}
}
