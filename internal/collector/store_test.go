package collector

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symdex/pkg/types"
)

func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "results.db")
	store, err := NewStore(dbPath, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return store, dbPath
}

func TestStoreMergesPendingBatches(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	for i := 0; i < 4; i++ {
		batch := &types.ResultBatch{Slot: 1}
		batch.AddFile(types.FileRecord{FilePath: "/src/a.go", LineCount: 10})
		batch.AddFile(types.FileRecord{FilePath: "/src/b.go", LineCount: 20})
		require.NoError(t, store.Insert(ctx, batch))
	}
	assert.Equal(t, 4, store.Depth())

	store.Start(ctx)

	require.Eventually(t, func() bool {
		return store.Depth() == 0
	}, 2*time.Second, 10*time.Millisecond)

	files, err := store.FileCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, files)

	require.NoError(t, store.Close())
}

func TestStoreCloseDrainsPending(t *testing.T) {
	ctx := context.Background()
	store, dbPath := setupTestStore(t)
	store.Start(ctx)

	batch := &types.ResultBatch{Slot: 2}
	batch.AddError(types.ErrorRecord{
		Message:  "parse failure",
		FilePath: "/src/broken.go",
		Line:     3,
		Col:      1,
	})
	require.NoError(t, store.Insert(ctx, batch))

	// Close must flush whatever is still pending before the database goes away.
	require.NoError(t, store.Close())

	reopened, err := NewStore(dbPath, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer reopened.Close()

	errs, err := reopened.ErrorCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, errs)

	files, err := reopened.FileCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, files)
}
