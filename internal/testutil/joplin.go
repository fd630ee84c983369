// Package testutil provides shared test helpers, chiefly an in-memory fake of
// the Joplin Web Clipper API.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quicknote/internal/models"
)

// FakeJoplin serves the subset of the Joplin API quicknote uses.
type FakeJoplin struct {
	Server *httptest.Server
	Token  string

	mu        sync.Mutex
	notes     []models.Note
	notebooks []models.Notebook
	requests  []string
	nextID    int
	failures  map[string]int // "METHOD /path" -> status
	noIDs     bool
}

// NewFakeJoplin starts a fake server that requires token on every call but
// /ping. It is closed when the test ends.
func NewFakeJoplin(t *testing.T, token string) *FakeJoplin {
	t.Helper()
	f := &FakeJoplin{Token: token, failures: make(map[string]int)}

	r := chi.NewRouter()
	r.Use(f.record)
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("JoplinClipperServer"))
	})
	r.Group(func(r chi.Router) {
		r.Use(f.requireToken)
		r.Use(f.injectFailures)
		r.Get("/notes", f.listNotes)
		r.Post("/notes", f.createNote)
		r.Put("/notes/{id}", f.updateNote)
		r.Get("/folders", f.listFolders)
	})

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake server.
func (f *FakeJoplin) URL() string {
	return f.Server.URL
}

// AddNote seeds a note and returns it.
func (f *FakeJoplin) AddNote(title, body, parentID string) models.Note {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := models.Note{ID: f.newID("note"), Title: title, Body: body, ParentID: parentID}
	f.notes = append(f.notes, n)
	return n
}

// AddNotebook seeds a notebook and returns it.
func (f *FakeJoplin) AddNotebook(title string) models.Notebook {
	f.mu.Lock()
	defer f.mu.Unlock()
	nb := models.Notebook{ID: f.newID("folder"), Title: title}
	f.notebooks = append(f.notebooks, nb)
	return nb
}

// Notes returns a snapshot of all notes.
func (f *FakeJoplin) Notes() []models.Note {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Note(nil), f.notes...)
}

// Requests returns "METHOD /path" for every request received.
func (f *FakeJoplin) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Count returns how many requests matched "METHOD /path".
func (f *FakeJoplin) Count(route string) int {
	n := 0
	for _, r := range f.Requests() {
		if r == route {
			n++
		}
	}
	return n
}

// Fail makes route ("METHOD /path") answer with status.
func (f *FakeJoplin) Fail(route string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = status
}

// OmitIDs makes note creation answer without an id.
func (f *FakeJoplin) OmitIDs() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noIDs = true
}

func (f *FakeJoplin) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *FakeJoplin) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeJoplin) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != f.Token {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": `Invalid "token" parameter`})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeJoplin) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status, ok := f.failures[r.Method+" "+r.URL.Path]
		f.mu.Unlock()
		if ok {
			writeJSON(w, status, map[string]string{"error": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeJoplin) listNotes(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, more := paginate(f.notes, r)
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "has_more": more})
}

func (f *FakeJoplin) listFolders(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, more := paginate(f.notebooks, r)
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "has_more": more})
}

func (f *FakeJoplin) createNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string `json:"title"`
		Body     string `json:"body"`
		ParentID string `json:"parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := models.Note{ID: f.newID("note"), Title: req.Title, Body: req.Body, ParentID: req.ParentID}
	f.notes = append(f.notes, n)
	if f.noIDs {
		n.ID = ""
	}
	writeJSON(w, http.StatusOK, n)
}

func (f *FakeJoplin) updateNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notes {
		if f.notes[i].ID != id {
			continue
		}
		if body, ok := req["body"]; ok {
			f.notes[i].Body = body
		}
		if title, ok := req["title"]; ok {
			f.notes[i].Title = title
		}
		writeJSON(w, http.StatusOK, f.notes[i])
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func paginate[T any](all []T, r *http.Request) ([]T, bool) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []T{}, false
	}
	end := min(start+limit, len(all))
	return append([]T(nil), all[start:end]...), end < len(all)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
