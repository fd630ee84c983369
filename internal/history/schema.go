// Package history keeps a SQLite log of quick-note runs.
package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	query            TEXT NOT NULL DEFAULT '',
	title            TEXT NOT NULL DEFAULT '',
	notebook         TEXT NOT NULL DEFAULT '',
	outcome          TEXT NOT NULL,
	note_id          TEXT NOT NULL DEFAULT '',
	reason           TEXT NOT NULL DEFAULT '',
	content_checksum TEXT NOT NULL DEFAULT '',
	joined_id        TEXT NOT NULL DEFAULT '',
	started_at       DATETIME NOT NULL,
	duration_ms      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_note_id ON runs(note_id);
`

// DB wraps a sql.DB with history operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the history database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	if err := addColumn(conn, "joined_id", "TEXT NOT NULL DEFAULT ''"); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

// addColumn adds a column to runs tables created by older versions.
func addColumn(conn *sql.DB, name, decl string) error {
	var n int
	err := conn.QueryRow(`SELECT count(*) FROM pragma_table_info('runs') WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return fmt.Errorf("history: inspect schema: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := conn.Exec(`ALTER TABLE runs ADD COLUMN ` + name + ` ` + decl); err != nil {
		return fmt.Errorf("history: add column %s: %w", name, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
