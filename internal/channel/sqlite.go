package channel

import (
	"context"
	"database/sql"
	"fmt"

	"symdex/pkg/types"
)

// SQLiteTransport is a Transport backed by a SQLite database file in WAL
// mode. Every operation runs as a single statement or transaction, which
// makes push/pop/clear/count atomic with respect to concurrent callers in
// other processes. The host creates the file; worker executables attach to
// it by path.
type SQLiteTransport struct {
	db *sql.DB
}

// openChannelDatabase opens the channel database with the settings the
// cross-process access pattern needs.
func openChannelDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// WAL lets the orchestrator read status while workers write batches
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Writers in other processes hold the lock only briefly; wait them out
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteTransport opens (or creates) the channel database at dbPath and
// ensures the schema exists.
func NewSQLiteTransport(dbPath string) (*SQLiteTransport, error) {
	db, err := openChannelDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open channel database: %w", err)
	}

	if err := applySchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteTransport{db: db}, nil
}

func (t *SQLiteTransport) Queue() JobQueue       { return &sqliteQueue{db: t.db} }
func (t *SQLiteTransport) Status() StatusChannel { return &sqliteStatus{db: t.db} }

func (t *SQLiteTransport) Sink(slot int) ResultSink {
	return &sqliteSink{db: t.db, slot: slot}
}

// Close closes the database connection. It does not remove the file; the
// host deletes run databases after a clean exit.
func (t *SQLiteTransport) Close() error {
	return t.db.Close()
}

// sqliteQueue implements JobQueue over the jobs table.
type sqliteQueue struct {
	db *sql.DB
}

func (q *sqliteQueue) Load(ctx context.Context, jobs []types.Job) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for i := range jobs {
		payload, err := jobs[i].Encode()
		if err != nil {
			return fmt.Errorf("failed to encode job %q: %w", jobs[i].FilePath, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO jobs (payload) VALUES (?)`, payload); err != nil {
			return fmt.Errorf("failed to enqueue job: %w", err)
		}
	}

	return tx.Commit()
}

func (q *sqliteQueue) Pop(ctx context.Context) (*types.Job, bool, error) {
	query := `
		DELETE FROM jobs
		WHERE id = (SELECT id FROM jobs ORDER BY id LIMIT 1)
		RETURNING payload
	`
	var payload []byte
	err := q.db.QueryRowContext(ctx, query).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to pop job: %w", err)
	}

	job, err := types.DecodeJob(payload)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode job: %w", err)
	}
	return job, true, nil
}

func (q *sqliteQueue) Count(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return n, nil
}

func (q *sqliteQueue) Clear(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM jobs`); err != nil {
		return fmt.Errorf("failed to clear jobs: %w", err)
	}
	return nil
}

// sqliteStatus implements StatusChannel over the indexing, finished, and
// crashed tables.
type sqliteStatus struct {
	db *sql.DB
}

func (s *sqliteStatus) SetIndexing(ctx context.Context, slot int, files []string) error {
	if slot < 1 {
		return fmt.Errorf("%w: %d", types.ErrInvalidSlot, slot)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM indexing WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("failed to reset indexing status: %w", err)
	}
	for _, file := range files {
		if _, err := tx.ExecContext(ctx, `INSERT INTO indexing (slot, file_path) VALUES (?, ?)`, slot, file); err != nil {
			return fmt.Errorf("failed to set indexing status: %w", err)
		}
	}

	return tx.Commit()
}

func (s *sqliteStatus) ClearIndexing(ctx context.Context, slot int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM indexing WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("failed to clear indexing status: %w", err)
	}
	return nil
}

func (s *sqliteStatus) CurrentlyIndexing(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT file_path FROM indexing ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexing status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []string
	for rows.Next() {
		var file string
		if err := rows.Scan(&file); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (s *sqliteStatus) MarkFinished(ctx context.Context, slot int) error {
	if slot < 1 {
		return fmt.Errorf("%w: %d", types.ErrInvalidSlot, slot)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO finished (slot) VALUES (?)`, slot); err != nil {
		return fmt.Errorf("failed to mark slot finished: %w", err)
	}
	return nil
}

func (s *sqliteStatus) NextFinishedSlot(ctx context.Context) (int, bool, error) {
	query := `
		DELETE FROM finished
		WHERE id = (SELECT id FROM finished ORDER BY id LIMIT 1)
		RETURNING slot
	`
	var slot int
	err := s.db.QueryRowContext(ctx, query).Scan(&slot)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to pop finished slot: %w", err)
	}
	return slot, true, nil
}

func (s *sqliteStatus) RecordCrash(ctx context.Context, slot int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO crashed (file_path) SELECT file_path FROM indexing WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("failed to record crash: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM indexing WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("failed to retract crashed slot status: %w", err)
	}

	return tx.Commit()
}

func (s *sqliteStatus) CrashedFiles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT file_path FROM crashed ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read crashed files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []string
	for rows.Next() {
		var file string
		if err := rows.Scan(&file); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// sqliteSink implements ResultSink over the batches table for one slot.
type sqliteSink struct {
	db   *sql.DB
	slot int
}

func (s *sqliteSink) Push(ctx context.Context, batch *types.ResultBatch) error {
	payload, err := batch.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO batches (slot, payload) VALUES (?, ?)`, s.slot, payload); err != nil {
		return fmt.Errorf("failed to push batch: %w", err)
	}
	return nil
}

func (s *sqliteSink) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM batches WHERE slot = ?`, s.slot).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count batches: %w", err)
	}
	return n, nil
}

func (s *sqliteSink) Pop(ctx context.Context) (*types.ResultBatch, bool, error) {
	query := `
		DELETE FROM batches
		WHERE id = (SELECT id FROM batches WHERE slot = ? ORDER BY id LIMIT 1)
		RETURNING payload
	`
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, s.slot).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to pop batch: %w", err)
	}

	batch, err := types.DecodeBatch(payload)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode batch: %w", err)
	}
	return batch, true, nil
}
