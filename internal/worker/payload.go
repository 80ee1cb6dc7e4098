package worker

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"time"

	"symdex/pkg/types"
)

// Payload turns one job into a result batch. The real parsing/analysis
// logic lives behind this type; hosts plug their own in.
type Payload func(ctx context.Context, job *types.Job) (*types.ResultBatch, error)

// DefaultPayload reads the source file and records its hash, size, and
// line count. It stands in for a language indexer and exercises the full
// orchestration path.
func DefaultPayload(ctx context.Context, job *types.Job) (*types.ResultBatch, error) {
	batch := &types.ResultBatch{ProducedAt: time.Now()}

	f, err := os.Open(job.FilePath)
	if err != nil {
		batch.AddError(types.ErrorRecord{
			Message:  "failed to open source file: " + err.Error(),
			FilePath: job.FilePath,
			Line:     1,
			Col:      1,
		})
		return batch, nil
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	hash := sha256.New()
	lines := 0
	scanner := bufio.NewScanner(io.TeeReader(f, hash))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	batch.AddFile(types.FileRecord{
		FilePath:    job.FilePath,
		ContentHash: hex.EncodeToString(hash.Sum(nil)),
		SizeBytes:   info.Size(),
		LineCount:   lines,
	})
	return batch, nil
}
