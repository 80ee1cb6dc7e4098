package channel

import (
	"context"

	"symdex/pkg/types"
)

// JobQueue is the shared backlog of pending indexing jobs. The orchestrator
// loads it once at run start and clears it on interrupt; workers pop from it.
// A job is removed at most once.
type JobQueue interface {
	// Load appends jobs to the queue in one bulk transfer.
	Load(ctx context.Context, jobs []types.Job) error

	// Pop removes and returns the oldest job. The second return value is
	// false when the queue is empty.
	Pop(ctx context.Context) (*types.Job, bool, error)

	// Count reports the number of pending jobs.
	Count(ctx context.Context) (int, error)

	// Clear removes all pending jobs. Workers finish their current job and
	// then drain to empty.
	Clear(ctx context.Context) error
}

// StatusChannel reports per-slot worker status: the files currently being
// indexed, which slot most recently finished a batch, and which files were
// abandoned because their worker crashed. Slot ids are 1-based; writes
// for slot ids below 1 fail with types.ErrInvalidSlot.
type StatusChannel interface {
	// SetIndexing announces the files slot is currently working on.
	SetIndexing(ctx context.Context, slot int, files []string) error

	// ClearIndexing retracts slot's announcement after its job completes.
	ClearIndexing(ctx context.Context, slot int) error

	// CurrentlyIndexing returns the files in flight across all slots.
	CurrentlyIndexing(ctx context.Context) ([]string, error)

	// MarkFinished signals that slot completed a batch.
	MarkFinished(ctx context.Context, slot int) error

	// NextFinishedSlot pops the oldest finished-batch signal. The second
	// return value is false when no signal is pending.
	NextFinishedSlot(ctx context.Context) (int, bool, error)

	// RecordCrash moves slot's in-flight files onto the crashed list.
	RecordCrash(ctx context.Context, slot int) error

	// CrashedFiles returns every file abandoned by a crashed worker.
	CrashedFiles(ctx context.Context) ([]string, error)
}

// ResultSink holds the completed result batches of one worker slot until
// the orchestrator drains them. Batches pop in the order they were pushed.
type ResultSink interface {
	// Push appends a completed batch.
	Push(ctx context.Context, batch *types.ResultBatch) error

	// Count reports the number of batches waiting to be popped.
	Count(ctx context.Context) (int, error)

	// Pop removes and returns the oldest batch. The second return value is
	// false when the sink is empty.
	Pop(ctx context.Context) (*types.ResultBatch, bool, error)
}

// Transport bundles the shared structures of one indexing run behind a
// single handle: the job queue, the status channel, and one result sink per
// worker slot. Implementations must make every operation atomic with
// respect to concurrent callers, including callers in other processes.
type Transport interface {
	Queue() JobQueue
	Status() StatusChannel
	Sink(slot int) ResultSink
	Close() error
}
