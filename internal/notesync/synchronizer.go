package notesync

import (
	"context"
	"log/slog"
	"strings"

	"github.com/starford/quicknote/internal/apperr"
	"github.com/starford/quicknote/internal/query"
)

// ReasonNoID is the create_failed reason when the backend accepted a note
// but returned no id.
const ReasonNoID = "no id returned"

// Options is the per-call configuration of a run.
type Options struct {
	DefaultNotebook string
	HasCredentials  bool
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithMaxPages overrides DefaultMaxPages for title lookup.
func WithMaxPages(n int) Option {
	return func(s *Synchronizer) {
		s.maxPages = n
	}
}

// WithLogger sets the logger used for degraded branches.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// Synchronizer runs the create-or-append workflow against a Backend.
type Synchronizer struct {
	backend  Backend
	locator  *Locator
	resolver *Resolver
	maxPages int
	logger   *slog.Logger
}

// New creates a Synchronizer over backend.
func New(backend Backend, opts ...Option) *Synchronizer {
	s := &Synchronizer{backend: backend, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.locator = NewLocator(backend, s.maxPages)
	s.resolver = NewResolver(backend)
	return s
}

// Synchronize runs one workflow for q and returns its single outcome. Each
// step issues at most one backend call and nothing is retried.
func (s *Synchronizer) Synchronize(ctx context.Context, q query.Query, opts Options) Outcome {
	if !q.Valid() {
		return Outcome{Kind: KindInvalidQuery}
	}
	if !opts.HasCredentials {
		return Outcome{Kind: KindMissingCredentials, Reason: apperr.ErrMissingCredentials.Error()}
	}
	if !s.backend.Ping(ctx) {
		return ConnectionFailed()
	}

	var notebook Resolution
	if q.Notebook != "" {
		notebook = s.resolver.Resolve(ctx, q.Notebook, "")
		if !notebook.OK() {
			if notebook.Err != nil {
				s.logger.Warn("notebook lookup failed",
					slog.String("notebook", q.Notebook),
					slog.String("error", notebook.Err.Error()))
			}
			return NotebookNotFound(q.Notebook)
		}
	}

	lookup := s.locator.Find(ctx, q.Title)
	switch lookup.Status {
	case LookupFound:
		return s.appendTo(ctx, q, lookup)
	case LookupFailed:
		s.logger.Warn("note lookup failed, creating a new note",
			slog.String("title", q.Title),
			slog.Int("page", lookup.Pages),
			slog.String("error", lookup.Err.Error()))
	}

	if q.Notebook == "" {
		notebook = s.resolver.Resolve(ctx, "", opts.DefaultNotebook)
		if notebook.Status == NotebookDefaultMissing {
			attrs := []any{slog.String("notebook", notebook.Name)}
			if notebook.Err != nil {
				attrs = append(attrs, slog.String("error", notebook.Err.Error()))
			}
			s.logger.Warn("default notebook not found, creating at top level", attrs...)
		}
	}
	return s.create(ctx, q, notebook)
}

func (s *Synchronizer) appendTo(ctx context.Context, q query.Query, lookup Lookup) Outcome {
	note := lookup.Note
	body := MergeBody(note.Body, q.Content)
	if _, err := s.backend.UpdateNoteBody(ctx, note.ID, body); err != nil {
		return AppendFailed(note.ID, note.Title, err.Error())
	}
	return Appended(note.ID, note.Title)
}

func (s *Synchronizer) create(ctx context.Context, q query.Query, notebook Resolution) Outcome {
	created, err := s.backend.CreateNote(ctx, q.Title, q.Content, notebook.ID)
	if err != nil {
		return CreateFailed(q.Title, err.Error())
	}
	if created == nil || created.ID == "" {
		return CreateFailed(q.Title, ReasonNoID)
	}
	var name string
	if notebook.ID != "" {
		name = notebook.Name
	}
	return Created(created.ID, q.Title, name)
}

// MergeBody appends addition to existing, separated by exactly one newline
// when existing is non-empty and does not already end with one.
func MergeBody(existing, addition string) string {
	body := existing
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return body + addition
}
