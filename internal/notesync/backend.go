// Package notesync decides whether a parsed query creates a new note or
// appends to an existing one, and carries out exactly one backend mutation.
package notesync

import (
	"context"

	"github.com/starford/quicknote/internal/models"
)

// Backend is the note store the synchronizer talks to. Implementations
// return *apperr.TransportError for failed calls.
type Backend interface {
	// Ping reports whether the backend is reachable and authorised.
	Ping(ctx context.Context) bool
	// CreateNote creates a note; notebookID may be empty for top level.
	CreateNote(ctx context.Context, title, body, notebookID string) (*models.Note, error)
	// UpdateNoteBody replaces the body of noteID, leaving the title untouched.
	UpdateNoteBody(ctx context.Context, noteID, body string) (*models.Note, error)
	// ListNotes returns the 1-indexed page of notes in a stable order.
	ListNotes(ctx context.Context, page int) (*models.NotePage, error)
	// ListNotebooks returns all notebooks.
	ListNotebooks(ctx context.Context) ([]models.Notebook, error)
}

// NoteLister is the subset of Backend used by Locator.
type NoteLister interface {
	ListNotes(ctx context.Context, page int) (*models.NotePage, error)
}

// NotebookLister is the subset of Backend used by Resolver.
type NotebookLister interface {
	ListNotebooks(ctx context.Context) ([]models.Notebook, error)
}
