package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"symdex/internal/channel"
	"symdex/pkg/types"
)

// GoroutineWorker drains the shared job queue on a dedicated goroutine,
// publishing one batch per job into its slot's result sink. It is the
// in-process counterpart of ProcessWorker; the external worker executable
// runs the same loop over a SQLite transport.
type GoroutineWorker struct {
	slot    int
	queue   channel.JobQueue
	status  channel.StatusChannel
	sink    channel.ResultSink
	payload Payload
	counter *Counter
	logger  *slog.Logger

	done chan struct{}
}

// NewGoroutineWorker binds a worker to its slot and channel endpoints.
func NewGoroutineWorker(slot int, queue channel.JobQueue, status channel.StatusChannel,
	sink channel.ResultSink, payload Payload, counter *Counter, logger *slog.Logger) *GoroutineWorker {

	return &GoroutineWorker{
		slot:    slot,
		queue:   queue,
		status:  status,
		sink:    sink,
		payload: payload,
		counter: counter,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

func (w *GoroutineWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		w.run(ctx)
	}()
}

func (w *GoroutineWorker) Join() error {
	<-w.done
	return nil
}

// run pops jobs until the queue drains to empty. Clearing the queue from
// the orchestrator is what makes this loop stop on interrupt.
func (w *GoroutineWorker) run(ctx context.Context) {
	w.counter.Inc()
	defer w.counter.Dec()

	for {
		if ctx.Err() != nil {
			return
		}

		job, ok, err := w.queue.Pop(ctx)
		if err != nil {
			w.logger.Error("worker failed to pop job", "slot", w.slot, "error", err)
			return
		}
		if !ok {
			return
		}

		w.processJob(ctx, job)
	}
}

// Work runs the loop synchronously until the queue is empty. The worker
// executable's main calls this directly.
func (w *GoroutineWorker) Work(ctx context.Context) {
	w.run(ctx)
}

func (w *GoroutineWorker) processJob(ctx context.Context, job *types.Job) {
	if err := w.status.SetIndexing(ctx, w.slot, []string{job.FilePath}); err != nil {
		w.logger.Error("failed to announce job", "slot", w.slot, "error", err)
	}

	batch, ok := w.runPayload(ctx, job)
	if !ok {
		// payload panicked; the crash record already captured the file
		return
	}
	batch.Slot = w.slot

	if err := w.status.ClearIndexing(ctx, w.slot); err != nil {
		w.logger.Error("failed to retract job announcement", "slot", w.slot, "error", err)
	}
	if err := w.sink.Push(ctx, batch); err != nil {
		w.logger.Error("failed to push batch", "slot", w.slot, "error", err)
		return
	}
	if err := w.status.MarkFinished(ctx, w.slot); err != nil {
		w.logger.Error("failed to signal finished batch", "slot", w.slot, "error", err)
	}
}

// runPayload isolates payload panics: an abnormal termination becomes a
// crash record instead of taking the whole run down. ok is false when the
// payload panicked; a plain payload error becomes an error batch so the
// failure travels through the ordinary result stream.
func (w *GoroutineWorker) runPayload(ctx context.Context, job *types.Job) (batch *types.ResultBatch, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("worker payload panicked", "slot", w.slot, "file", job.FilePath, "panic", r)
			if cerr := w.status.RecordCrash(context.WithoutCancel(ctx), w.slot); cerr != nil {
				w.logger.Error("failed to record crash", "slot", w.slot, "error", cerr)
			}
			batch, ok = nil, false
		}
	}()

	result, err := w.payload(ctx, job)
	if err != nil {
		result = &types.ResultBatch{ProducedAt: time.Now()}
		result.AddError(types.ErrorRecord{
			Message:  fmt.Sprintf("indexing failed: %v", err),
			FilePath: job.FilePath,
			Line:     1,
			Col:      1,
		})
	} else if result == nil {
		result = &types.ResultBatch{ProducedAt: time.Now()}
	}
	return result, true
}
