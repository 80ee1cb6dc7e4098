package channel

import (
	"context"
	"fmt"
	"sync"

	"symdex/pkg/types"
)

// MemoryTransport is an in-process Transport backed by mutex-guarded
// slices. It serves goroutine-mode workers and tests; it cannot cross a
// process boundary.
type MemoryTransport struct {
	mu       sync.Mutex
	closed   bool
	jobs     []types.Job
	indexing map[int][]string
	finished []int
	crashed  []string
	sinks    map[int]*memorySink
}

// NewMemoryTransport creates an empty in-process transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		indexing: make(map[int][]string),
		sinks:    make(map[int]*memorySink),
	}
}

func (m *MemoryTransport) Queue() JobQueue       { return (*memoryQueue)(m) }
func (m *MemoryTransport) Status() StatusChannel { return (*memoryStatus)(m) }

// Sink returns the result sink for slot, creating it on first use.
func (m *MemoryTransport) Sink(slot int) ResultSink {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sinks[slot]
	if !ok {
		s = &memorySink{parent: m}
		m.sinks[slot] = s
	}
	return s
}

// Close marks the transport closed; every later operation returns
// types.ErrChannelClosed.
func (m *MemoryTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// memoryQueue implements JobQueue over the transport's job slice.
type memoryQueue MemoryTransport

func (q *memoryQueue) Load(_ context.Context, jobs []types.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return types.ErrChannelClosed
	}
	q.jobs = append(q.jobs, jobs...)
	return nil
}

func (q *memoryQueue) Pop(_ context.Context) (*types.Job, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, false, types.ErrChannelClosed
	}
	if len(q.jobs) == 0 {
		return nil, false, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return &job, true, nil
}

func (q *memoryQueue) Count(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0, types.ErrChannelClosed
	}
	return len(q.jobs), nil
}

func (q *memoryQueue) Clear(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return types.ErrChannelClosed
	}
	q.jobs = nil
	return nil
}

// memoryStatus implements StatusChannel over the transport's status maps.
type memoryStatus MemoryTransport

func (s *memoryStatus) SetIndexing(_ context.Context, slot int, files []string) error {
	if slot < 1 {
		return fmt.Errorf("%w: %d", types.ErrInvalidSlot, slot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrChannelClosed
	}
	s.indexing[slot] = append([]string(nil), files...)
	return nil
}

func (s *memoryStatus) ClearIndexing(_ context.Context, slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrChannelClosed
	}
	delete(s.indexing, slot)
	return nil
}

func (s *memoryStatus) CurrentlyIndexing(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrChannelClosed
	}
	var files []string
	for _, slotFiles := range s.indexing {
		files = append(files, slotFiles...)
	}
	return files, nil
}

func (s *memoryStatus) MarkFinished(_ context.Context, slot int) error {
	if slot < 1 {
		return fmt.Errorf("%w: %d", types.ErrInvalidSlot, slot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrChannelClosed
	}
	s.finished = append(s.finished, slot)
	return nil
}

func (s *memoryStatus) NextFinishedSlot(_ context.Context) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false, types.ErrChannelClosed
	}
	if len(s.finished) == 0 {
		return 0, false, nil
	}
	slot := s.finished[0]
	s.finished = s.finished[1:]
	return slot, true, nil
}

func (s *memoryStatus) RecordCrash(_ context.Context, slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrChannelClosed
	}
	s.crashed = append(s.crashed, s.indexing[slot]...)
	delete(s.indexing, slot)
	return nil
}

func (s *memoryStatus) CrashedFiles(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrChannelClosed
	}
	return append([]string(nil), s.crashed...), nil
}

// memorySink implements ResultSink for one slot.
type memorySink struct {
	parent  *MemoryTransport
	batches []*types.ResultBatch
}

func (s *memorySink) Push(_ context.Context, batch *types.ResultBatch) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if s.parent.closed {
		return types.ErrChannelClosed
	}
	s.batches = append(s.batches, batch)
	return nil
}

func (s *memorySink) Count(_ context.Context) (int, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if s.parent.closed {
		return 0, types.ErrChannelClosed
	}
	return len(s.batches), nil
}

func (s *memorySink) Pop(_ context.Context) (*types.ResultBatch, bool, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if s.parent.closed {
		return nil, false, types.ErrChannelClosed
	}
	if len(s.batches) == 0 {
		return nil, false, nil
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, true, nil
}
