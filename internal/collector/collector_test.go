package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symdex/pkg/types"
)

func TestMemoryCollectorDepth(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollector()

	assert.Equal(t, 0, c.Depth())

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Insert(ctx, &types.ResultBatch{Slot: 1}))
	}
	assert.Equal(t, 5, c.Depth())

	c.MarkMerged(3)
	assert.Equal(t, 2, c.Depth())

	// merging more than pending clamps at zero
	c.MarkMerged(10)
	assert.Equal(t, 0, c.Depth())
}

func TestMemoryCollectorErrors(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollector()

	good := &types.ResultBatch{Slot: 1}
	good.AddFile(types.FileRecord{FilePath: "/src/a.go"})
	require.NoError(t, c.Insert(ctx, good))

	bad := &types.ResultBatch{Slot: 2}
	bad.AddError(types.ErrorRecord{Message: "boom", FilePath: "/src/b.go"})
	require.NoError(t, c.Insert(ctx, bad))

	errs := c.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "/src/b.go", errs[0].FilePath)
	assert.Len(t, c.Batches(), 2)
}
