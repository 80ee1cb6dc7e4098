package collector

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"symdex/internal/channel"
	"symdex/pkg/types"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS indexed_files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT NOT NULL,
    content_hash TEXT,
    size_bytes INTEGER,
    line_count INTEGER,
    symbol_count INTEGER,
    slot INTEGER,
    indexed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_indexed_files_path ON indexed_files(file_path);

CREATE TABLE IF NOT EXISTS index_errors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    message TEXT NOT NULL,
    file_path TEXT NOT NULL,
    line INTEGER,
    col INTEGER,
    fatal BOOLEAN,
    indexed BOOLEAN,
    recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// Store is a Collector that persists batches to a SQLite result database.
// Insert only appends to an in-memory pending list; a merger goroutine
// started by Start writes batches out one transaction at a time, so Depth
// grows whenever producers outpace the merge and the orchestrator's
// backpressure kicks in.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu      sync.Mutex
	pending []*types.ResultBatch

	done chan struct{}
	stop sync.Once
	wg   sync.WaitGroup
}

// NewStore opens (or creates) the result database at dbPath.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open(channel.DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open result database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(storeSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply result schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

func (s *Store) Insert(_ context.Context, batch *types.ResultBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, batch)
	return nil
}

func (s *Store) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Start launches the merger goroutine. Call Close to stop it.
func (s *Store) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				// final pass so a clean shutdown loses nothing
				for s.mergeOne(context.Background()) {
				}
				return
			default:
			}
			if !s.mergeOne(ctx) {
				time.Sleep(20 * time.Millisecond)
			}
		}
	}()
}

// mergeOne writes the oldest pending batch. Returns false when nothing was
// pending or the write failed.
func (s *Store) mergeOne(ctx context.Context) bool {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return false
	}
	batch := s.pending[0]
	s.mu.Unlock()

	if err := s.writeBatch(ctx, batch); err != nil {
		s.logger.Error("failed to merge result batch", "slot", batch.Slot, "error", err)
		return false
	}

	s.mu.Lock()
	s.pending = s.pending[1:]
	s.mu.Unlock()
	return true
}

func (s *Store) writeBatch(ctx context.Context, batch *types.ResultBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, f := range batch.Files {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO indexed_files (file_path, content_hash, size_bytes, line_count, symbol_count, slot)
			VALUES (?, ?, ?, ?, ?, ?)
		`, f.FilePath, f.ContentHash, f.SizeBytes, f.LineCount, f.SymbolCount, batch.Slot)
		if err != nil {
			return fmt.Errorf("failed to store file record: %w", err)
		}
	}

	for _, e := range batch.Errors {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO index_errors (message, file_path, line, col, fatal, indexed)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.Message, e.FilePath, e.Line, e.Col, e.Fatal, e.Indexed)
		if err != nil {
			return fmt.Errorf("failed to store error record: %w", err)
		}
	}

	return tx.Commit()
}

// ErrorCount reports the number of persisted error records.
func (s *Store) ErrorCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM index_errors`).Scan(&n)
	return n, err
}

// FileCount reports the number of persisted file records.
func (s *Store) FileCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM indexed_files`).Scan(&n)
	return n, err
}

// Stop halts the merger after it drains pending batches. The database
// stays open for count queries.
func (s *Store) Stop() {
	s.stop.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}

// Close stops the merger and closes the database.
func (s *Store) Close() error {
	s.Stop()
	return s.db.Close()
}
