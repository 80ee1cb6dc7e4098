package channel

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symdex/pkg/types"
)

func testJobs(n int) []types.Job {
	jobs := make([]types.Job, n)
	for i := range jobs {
		jobs[i] = types.Job{FilePath: "/src/file" + string(rune('a'+i%26)) + ".go", Language: "go"}
	}
	return jobs
}

func TestMemoryQueueFIFO(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTransport()
	q := tr.Queue()

	jobs := []types.Job{
		{FilePath: "/src/a.go"},
		{FilePath: "/src/b.go"},
		{FilePath: "/src/c.go"},
	}
	require.NoError(t, q.Load(ctx, jobs))

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, want := range jobs {
		job, ok, err := q.Pop(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want.FilePath, job.FilePath)
	}

	_, ok, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryQueueClear(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTransport()
	q := tr.Queue()

	require.NoError(t, q.Load(ctx, testJobs(10)))
	require.NoError(t, q.Clear(ctx))

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryQueueConcurrentPop(t *testing.T) {
	// a job must be removed at most once, whatever the interleaving
	ctx := context.Background()
	tr := NewMemoryTransport()
	q := tr.Queue()

	const jobCount = 200
	require.NoError(t, q.Load(ctx, testJobs(jobCount)))

	var (
		mu     sync.Mutex
		popped int
		wg     sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, ok, err := q.Pop(ctx)
				require.NoError(t, err)
				if !ok {
					return
				}
				mu.Lock()
				popped++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, jobCount, popped)
}

func TestMemoryStatusFinishedFIFO(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryTransport().Status()

	require.NoError(t, st.MarkFinished(ctx, 2))
	require.NoError(t, st.MarkFinished(ctx, 1))
	require.NoError(t, st.MarkFinished(ctx, 2))

	for _, want := range []int{2, 1, 2} {
		slot, ok, err := st.NextFinishedSlot(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, slot)
	}

	_, ok, err := st.NextFinishedSlot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStatusRecordCrash(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryTransport().Status()

	require.NoError(t, st.SetIndexing(ctx, 1, []string{"/src/a.go"}))
	require.NoError(t, st.SetIndexing(ctx, 2, []string{"/src/b.go"}))

	require.NoError(t, st.RecordCrash(ctx, 1))

	crashed, err := st.CrashedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/a.go"}, crashed)

	// the healthy slot keeps its announcement
	current, err := st.CurrentlyIndexing(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/b.go"}, current)
}

func TestMemoryStatusClearIndexing(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryTransport().Status()

	require.NoError(t, st.SetIndexing(ctx, 1, []string{"/src/a.go"}))
	require.NoError(t, st.ClearIndexing(ctx, 1))

	current, err := st.CurrentlyIndexing(ctx)
	require.NoError(t, err)
	assert.Empty(t, current)

	// clearing must not produce crash records
	require.NoError(t, st.RecordCrash(ctx, 1))
	crashed, err := st.CrashedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, crashed)
}

func TestMemorySinkFIFO(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTransport()
	sink := tr.Sink(1)

	for i := 0; i < 3; i++ {
		batch := &types.ResultBatch{Slot: 1}
		batch.AddFile(types.FileRecord{FilePath: testJobs(3)[i].FilePath})
		require.NoError(t, sink.Push(ctx, batch))
	}

	n, err := sink.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		batch, ok, err := sink.Pop(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, batch.Files, 1)
		assert.False(t, seen[batch.Files[0].FilePath], "batch popped twice")
		seen[batch.Files[0].FilePath] = true
	}

	_, ok, err := sink.Pop(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStatusRejectsInvalidSlot(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryTransport().Status()

	err := st.SetIndexing(ctx, 0, []string{"/src/a.go"})
	assert.ErrorIs(t, err, types.ErrInvalidSlot)

	err = st.MarkFinished(ctx, -1)
	assert.ErrorIs(t, err, types.ErrInvalidSlot)

	// nothing leaked through
	current, err := st.CurrentlyIndexing(ctx)
	require.NoError(t, err)
	assert.Empty(t, current)
	_, ok, err := st.NextFinishedSlot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTransportClosed(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTransport()
	sink := tr.Sink(1)
	require.NoError(t, tr.Queue().Load(ctx, testJobs(1)))

	require.NoError(t, tr.Close())

	_, _, err := tr.Queue().Pop(ctx)
	assert.ErrorIs(t, err, types.ErrChannelClosed)
	assert.ErrorIs(t, tr.Queue().Clear(ctx), types.ErrChannelClosed)
	assert.ErrorIs(t, tr.Status().SetIndexing(ctx, 1, nil), types.ErrChannelClosed)
	_, err = tr.Status().CrashedFiles(ctx)
	assert.ErrorIs(t, err, types.ErrChannelClosed)
	assert.ErrorIs(t, sink.Push(ctx, &types.ResultBatch{Slot: 1}), types.ErrChannelClosed)
	_, _, err = sink.Pop(ctx)
	assert.ErrorIs(t, err, types.ErrChannelClosed)
}

func TestMemorySinkPerSlotIsolation(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTransport()

	require.NoError(t, tr.Sink(1).Push(ctx, &types.ResultBatch{Slot: 1}))

	n, err := tr.Sink(2).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// the same slot hands back the same sink
	n, err = tr.Sink(1).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
