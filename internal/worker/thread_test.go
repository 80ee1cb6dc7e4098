package worker

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symdex/internal/channel"
	"symdex/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func loadTestJobs(t *testing.T, tr channel.Transport, n int) {
	t.Helper()
	jobs := make([]types.Job, n)
	for i := range jobs {
		jobs[i] = types.Job{
			FilePath: "/src/file" + string(rune('a'+i)) + ".go",
			Language: "go",
		}
	}
	require.NoError(t, tr.Queue().Load(context.Background(), jobs))
}

func TestGoroutineWorkerDrainsQueue(t *testing.T) {
	ctx := context.Background()
	tr := channel.NewMemoryTransport()
	loadTestJobs(t, tr, 5)

	payload := func(_ context.Context, job *types.Job) (*types.ResultBatch, error) {
		batch := &types.ResultBatch{ProducedAt: time.Now()}
		batch.AddFile(types.FileRecord{FilePath: job.FilePath})
		return batch, nil
	}

	counter := &Counter{}
	w := NewGoroutineWorker(1, tr.Queue(), tr.Status(), tr.Sink(1), payload, counter, testLogger())
	w.Start(ctx)
	require.NoError(t, w.Join())

	assert.Equal(t, 0, counter.Value())

	remaining, err := tr.Queue().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	// one batch per job, each stamped with the worker's slot
	for i := 0; i < 5; i++ {
		batch, ok, err := tr.Sink(1).Pop(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1, batch.Slot)
		require.Len(t, batch.Files, 1)
	}
	_, ok, err := tr.Sink(1).Pop(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// one finished signal per batch
	for i := 0; i < 5; i++ {
		slot, ok, err := tr.Status().NextFinishedSlot(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1, slot)
	}
}

func TestGoroutineWorkerPayloadError(t *testing.T) {
	ctx := context.Background()
	tr := channel.NewMemoryTransport()
	loadTestJobs(t, tr, 1)

	payload := func(_ context.Context, _ *types.Job) (*types.ResultBatch, error) {
		return nil, errors.New("unparseable input")
	}

	w := NewGoroutineWorker(2, tr.Queue(), tr.Status(), tr.Sink(2), payload, &Counter{}, testLogger())
	w.Work(ctx)

	batch, ok, err := tr.Sink(2).Pop(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, batch.Errors, 1)
	assert.Contains(t, batch.Errors[0].Message, "unparseable input")
	assert.Equal(t, "/src/filea.go", batch.Errors[0].FilePath)

	// an error is an ordinary result, not a crash
	crashed, err := tr.Status().CrashedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, crashed)
}

func TestGoroutineWorkerPayloadPanic(t *testing.T) {
	ctx := context.Background()
	tr := channel.NewMemoryTransport()
	loadTestJobs(t, tr, 2)

	calls := 0
	payload := func(_ context.Context, job *types.Job) (*types.ResultBatch, error) {
		calls++
		if calls == 1 {
			panic("segfault stand-in")
		}
		batch := &types.ResultBatch{ProducedAt: time.Now()}
		batch.AddFile(types.FileRecord{FilePath: job.FilePath})
		return batch, nil
	}

	w := NewGoroutineWorker(1, tr.Queue(), tr.Status(), tr.Sink(1), payload, &Counter{}, testLogger())
	w.Work(ctx)

	// crashed job produced a crash record, not a batch
	crashed, err := tr.Status().CrashedFiles(ctx)
	require.NoError(t, err)
	require.Len(t, crashed, 1)
	assert.Equal(t, "/src/filea.go", crashed[0])

	// the worker kept going after the panic
	count, err := tr.Sink(1).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGoroutineWorkerStopsOnCancel(t *testing.T) {
	tr := channel.NewMemoryTransport()
	loadTestJobs(t, tr, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload := func(_ context.Context, _ *types.Job) (*types.ResultBatch, error) {
		t.Fatal("payload should not run after cancellation")
		return nil, nil
	}

	w := NewGoroutineWorker(1, tr.Queue(), tr.Status(), tr.Sink(1), payload, &Counter{}, testLogger())
	w.Work(ctx)

	remaining, err := tr.Queue().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
}
