package channel

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaV1 is the channel database layout. One database file serves one
// run; every table acts as a FIFO keyed by its rowid.
const schemaV1 = `
-- Pending indexing jobs, popped by workers in rowid order
CREATE TABLE IF NOT EXISTS jobs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    payload BLOB NOT NULL
);

-- Files currently being indexed, one row per slot/file pair
CREATE TABLE IF NOT EXISTS indexing (
    slot INTEGER NOT NULL,
    file_path TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_indexing_slot ON indexing(slot);

-- Finished-batch signals, popped by the orchestrator in rowid order
CREATE TABLE IF NOT EXISTS finished (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slot INTEGER NOT NULL
);

-- Files abandoned by a crashed worker, read once at run exit
CREATE TABLE IF NOT EXISTS crashed (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT NOT NULL
);

-- Completed result batches, one FIFO per slot
CREATE TABLE IF NOT EXISTS batches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slot INTEGER NOT NULL,
    payload BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_batches_slot ON batches(slot);
`

// applySchema creates the channel tables if they do not exist yet. Both
// the host and the worker executables call this on attach, so whichever
// process opens the database first wins and the rest are no-ops.
func applySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to apply channel schema: %w", err)
	}
	return nil
}
