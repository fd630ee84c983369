package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/quicknote/internal/apperr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	require.NoError(t, db.conn.QueryRow(`SELECT count(*) FROM runs`).Scan(&count))
	require.Zero(t, count)
}

func TestOpen_AddsJoinedIDToOlderTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = conn.Exec(`CREATE TABLE runs (
		id TEXT PRIMARY KEY, query TEXT NOT NULL DEFAULT '', title TEXT NOT NULL DEFAULT '',
		notebook TEXT NOT NULL DEFAULT '', outcome TEXT NOT NULL, note_id TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '', content_checksum TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL, duration_ms INTEGER NOT NULL DEFAULT 0)`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, db.Record(ctx, Run{ID: "r1", Outcome: "created", JoinedID: "r0", StartedAt: time.Now()}))
	got, err := db.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "r0", got.JoinedID)
}

func TestRecordAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	run := Run{
		ID:              "01HZZZ",
		Query:           "groceries buy milk",
		Title:           "Groceries",
		Outcome:         "created",
		NoteID:          "note-1",
		ContentChecksum: "abc",
		JoinedID:        "01HZZY",
		StartedAt:       started,
		Duration:        1500 * time.Millisecond,
	}
	require.NoError(t, db.Record(ctx, run))

	got, err := db.Get(ctx, "01HZZZ")
	require.NoError(t, err)
	require.Equal(t, "Groceries", got.Title)
	require.Equal(t, "note-1", got.NoteID)
	require.Equal(t, "created", got.Outcome)
	require.Equal(t, "abc", got.ContentChecksum)
	require.Equal(t, "01HZZY", got.JoinedID)
	require.True(t, got.StartedAt.Equal(started), "started_at = %v", got.StartedAt)
	require.Equal(t, 1500*time.Millisecond, got.Duration)
}

func TestRecordDuplicateID(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	run := Run{ID: "dup", Outcome: "created", StartedAt: time.Now()}
	require.NoError(t, db.Record(ctx, run))
	require.Error(t, db.Record(ctx, run))
}

func TestGetMissing(t *testing.T) {
	db := testDB(t)
	_, err := db.Get(context.Background(), "nope")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRecentNewestFirst(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.Record(ctx, Run{ID: id, Outcome: "created", StartedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	runs, err := db.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "c", runs[0].ID)
	require.Equal(t, "b", runs[1].ID)
}
