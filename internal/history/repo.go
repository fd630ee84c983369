package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/quicknote/internal/apperr"
)

// DefaultLimit is used by Recent when limit is not positive.
const DefaultLimit = 20

// Run is one recorded quick-note invocation.
type Run struct {
	ID              string        `json:"id"`
	Query           string        `json:"query"`
	Title           string        `json:"title"`
	Notebook        string        `json:"notebook,omitempty"`
	Outcome         string        `json:"outcome"`
	NoteID          string        `json:"note_id,omitempty"`
	Reason          string        `json:"reason,omitempty"`
	ContentChecksum string        `json:"content_checksum,omitempty"`
	JoinedID        string        `json:"joined_id,omitempty"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
}

// Recorder is the history interface consumed by the note service.
type Recorder interface {
	Record(ctx context.Context, r Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
	Get(ctx context.Context, id string) (*Run, error)
}

// Verify *DB satisfies Recorder at compile time.
var _ Recorder = (*DB)(nil)

// Record inserts a run. Recording the same id twice is an error.
func (db *DB) Record(ctx context.Context, r Run) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO runs (id, query, title, notebook, outcome, note_id, reason, content_checksum, joined_id, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Query, r.Title, r.Notebook, r.Outcome, r.NoteID, r.Reason, r.ContentChecksum, r.JoinedID,
		r.StartedAt.UTC(), r.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("history: record run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (db *DB) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, query, title, notebook, outcome, note_id, reason, content_checksum, joined_id, started_at, duration_ms
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Get returns the run with id, or apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, id string) (*Run, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, query, title, notebook, outcome, note_id, reason, content_checksum, joined_id, started_at, duration_ms
		FROM runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var ms int64
	if err := s.Scan(&r.ID, &r.Query, &r.Title, &r.Notebook, &r.Outcome, &r.NoteID,
		&r.Reason, &r.ContentChecksum, &r.JoinedID, &r.StartedAt, &ms); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("history: scan run: %w", err)
	}
	r.Duration = time.Duration(ms) * time.Millisecond
	return &r, nil
}
