package notesync

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/quicknote/internal/apperr"
	"github.com/starford/quicknote/internal/models"
)

// fakeBackend is an in-memory Backend that records every call.
type fakeBackend struct {
	reachable bool
	notes     []models.Note
	notebooks []models.Notebook
	pageSize  int

	listErrOnPage int // ListNotes fails on this page when > 0
	notebooksErr  error
	createErr     error
	createNoID    bool
	updateErr     error

	pings        int
	pagesFetched []int
	notebookList int
	created      []models.Note
	updated      []models.Note
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{reachable: true, pageSize: 100}
}

func (f *fakeBackend) Ping(context.Context) bool {
	f.pings++
	return f.reachable
}

func (f *fakeBackend) CreateNote(_ context.Context, title, body, notebookID string) (*models.Note, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	n := models.Note{Title: title, Body: body, ParentID: notebookID}
	if !f.createNoID {
		n.ID = fmt.Sprintf("note-%d", len(f.notes)+1)
	}
	f.created = append(f.created, n)
	f.notes = append(f.notes, n)
	return &n, nil
}

func (f *fakeBackend) UpdateNoteBody(_ context.Context, noteID, body string) (*models.Note, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.notes {
		if f.notes[i].ID == noteID {
			f.notes[i].Body = body
			f.updated = append(f.updated, f.notes[i])
			n := f.notes[i]
			return &n, nil
		}
	}
	return nil, apperr.Transport("update_note", 404, apperr.ErrNotFound)
}

func (f *fakeBackend) ListNotes(_ context.Context, page int) (*models.NotePage, error) {
	f.pagesFetched = append(f.pagesFetched, page)
	if f.listErrOnPage > 0 && page == f.listErrOnPage {
		return nil, apperr.Transport("list_notes", 500, errors.New("boom"))
	}
	start := (page - 1) * f.pageSize
	if start >= len(f.notes) {
		return &models.NotePage{}, nil
	}
	end := min(start+f.pageSize, len(f.notes))
	items := append([]models.Note(nil), f.notes[start:end]...)
	return &models.NotePage{Items: items, HasMore: end < len(f.notes)}, nil
}

func (f *fakeBackend) ListNotebooks(context.Context) ([]models.Notebook, error) {
	f.notebookList++
	if f.notebooksErr != nil {
		return nil, f.notebooksErr
	}
	return f.notebooks, nil
}

func (f *fakeBackend) mutations() int {
	return len(f.created) + len(f.updated)
}

// fillNotes adds n filler notes titled "filler-<i>".
func (f *fakeBackend) fillNotes(n int) {
	for i := range n {
		f.notes = append(f.notes, models.Note{ID: fmt.Sprintf("filler-%d", i), Title: fmt.Sprintf("filler-%d", i)})
	}
}
