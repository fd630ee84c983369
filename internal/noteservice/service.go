// Package noteservice runs quick-note invocations end to end: parse, synchronize
// against Joplin, record to history and publish the outcome.
package noteservice

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/singleflight"

	"github.com/starford/quicknote/internal/apperr"
	"github.com/starford/quicknote/internal/checksum"
	"github.com/starford/quicknote/internal/history"
	"github.com/starford/quicknote/internal/joplin"
	"github.com/starford/quicknote/internal/notesync"
	"github.com/starford/quicknote/internal/query"
)

// EventRunCompleted is the event name published after every run.
const EventRunCompleted = "run.completed"

// Settings is the snapshot of configuration one run is executed with.
type Settings struct {
	BaseURL         string
	Port            int
	Token           string
	Timeout         time.Duration
	DefaultNotebook string
	MaxPages        int
	PageSize        int
	DedupeInFlight  bool
}

// HasToken reports whether an API token is configured.
func (s Settings) HasToken() bool {
	return strings.TrimSpace(s.Token) != ""
}

// SettingsFunc returns the current settings snapshot.
type SettingsFunc func() Settings

// BackendFactory builds the backend a single run talks to.
type BackendFactory func(Settings) notesync.Backend

// JoplinBackend builds a Web Clipper client from s.
func JoplinBackend(s Settings) notesync.Backend {
	opts := []joplin.ClientOption{joplin.WithTimeout(s.Timeout)}
	if s.PageSize > 0 {
		opts = append(opts, joplin.WithPageSize(s.PageSize))
	}
	return joplin.NewClient(s.BaseURL, s.Token, opts...)
}

// Publisher receives completed runs.
type Publisher interface {
	Publish(event string, data any)
}

// Run is the result of one invocation. JoinedID names the run whose result
// this one shares when it was collapsed onto an identical in-flight query.
type Run struct {
	ID        string           `json:"id"`
	Raw       string           `json:"raw"`
	Query     query.Query      `json:"query"`
	Outcome   notesync.Outcome `json:"outcome"`
	Message   Message          `json:"message"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
	JoinedID  string           `json:"joined_id,omitempty"`
}

func (r Run) record() history.Run {
	rec := history.Run{
		ID:        r.ID,
		Query:     r.Raw,
		Title:     r.Query.Title,
		Notebook:  r.Outcome.Notebook,
		Outcome:   string(r.Outcome.Kind),
		NoteID:    r.Outcome.NoteID,
		Reason:    r.Outcome.Reason,
		JoinedID:  r.JoinedID,
		StartedAt: r.StartedAt,
		Duration:  r.Duration,

		ContentChecksum: checksum.Content(r.Query.Content),
	}
	if rec.Notebook == "" {
		rec.Notebook = r.Query.Notebook
	}
	return rec
}

// Option configures a Service.
type Option func(*Service)

// WithBackendFactory replaces JoplinBackend.
func WithBackendFactory(f BackendFactory) Option {
	return func(s *Service) {
		s.newBackend = f
	}
}

// WithRecorder enables run history.
func WithRecorder(r history.Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithPublisher enables run events.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service coordinates parsing, synchronization, history and events.
type Service struct {
	settings   SettingsFunc
	newBackend BackendFactory
	recorder   history.Recorder
	publisher  Publisher
	logger     *slog.Logger

	inflight singleflight.Group
	titles   keyedMutex
	pending  sync.WaitGroup
}

// NewService creates a note service reading settings on every run.
func NewService(settings SettingsFunc, opts ...Option) *Service {
	s := &Service{
		settings:   settings,
		newBackend: JoplinBackend,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs raw synchronously and returns the completed run.
func (s *Service) Submit(ctx context.Context, raw string) Run {
	return s.submit(ctx, ulid.Make().String(), raw)
}

// Dispatch starts raw in the background and returns its run id. The run is
// detached from ctx cancellation.
func (s *Service) Dispatch(ctx context.Context, raw string) string {
	id := ulid.Make().String()
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.submit(ctx, id, raw)
	}()
	return id
}

// Wait blocks until every dispatched run has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) submit(ctx context.Context, id, raw string) Run {
	cfg := s.settings()
	q := query.Parse(raw)
	if !cfg.DedupeInFlight || !q.Valid() {
		return s.finish(ctx, s.execute(ctx, cfg, id, raw, q))
	}

	// Identical queries in flight collapse onto one execution; different
	// queries for the same title run one after another so each body lands.
	v, _, _ := s.inflight.Do(dedupeKey(q), func() (any, error) {
		unlock := s.titles.Lock(query.Normalize(q.Title))
		defer unlock()
		return s.finish(ctx, s.execute(ctx, cfg, id, raw, q)), nil
	})
	leader := v.(Run)
	if leader.ID == id {
		return leader
	}

	s.logger.Info("joined in-flight run",
		slog.String("run_id", id),
		slog.String("joined", leader.ID))
	run := leader
	run.ID = id
	run.Raw = raw
	run.JoinedID = leader.ID
	return s.finish(ctx, run)
}

func dedupeKey(q query.Query) string {
	return query.Normalize(q.Title) + "\x00" + q.Content + "\x00" + query.Normalize(q.Notebook)
}

func (s *Service) execute(ctx context.Context, cfg Settings, id, raw string, q query.Query) Run {
	started := time.Now()
	syncer := notesync.New(s.newBackend(cfg),
		notesync.WithMaxPages(cfg.MaxPages),
		notesync.WithLogger(s.logger))
	outcome := syncer.Synchronize(ctx, q, notesync.Options{
		DefaultNotebook: cfg.DefaultNotebook,
		HasCredentials:  cfg.HasToken(),
	})

	run := Run{
		ID:        id,
		Raw:       raw,
		Query:     q,
		Outcome:   outcome,
		Message:   Describe(outcome, cfg.Port),
		StartedAt: started.UTC(),
		Duration:  time.Since(started),
	}

	level := slog.LevelInfo
	if !outcome.Succeeded() {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "quick note run finished",
		slog.String("run_id", run.ID),
		slog.String("outcome", string(outcome.Kind)),
		slog.String("title", q.Title),
		slog.Duration("duration", run.Duration))
	return run
}

// finish records and publishes run.
func (s *Service) finish(ctx context.Context, run Run) Run {
	if s.recorder != nil {
		if err := s.recorder.Record(ctx, run.record()); err != nil {
			s.logger.Error("failed to record run",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()))
		}
	}
	if s.publisher != nil {
		s.publisher.Publish(EventRunCompleted, run)
	}
	return run
}

// Lookup returns the recorded run with id, or apperr.ErrNotFound.
func (s *Service) Lookup(ctx context.Context, id string) (*history.Run, error) {
	if s.recorder == nil {
		return nil, apperr.ErrNotFound
	}
	return s.recorder.Get(ctx, id)
}

// History returns up to limit recorded runs, newest first. Without a
// recorder it returns nothing.
func (s *Service) History(ctx context.Context, limit int) ([]history.Run, error) {
	if s.recorder == nil {
		return nil, nil
	}
	return s.recorder.Recent(ctx, limit)
}

// Settings returns the current settings snapshot.
func (s *Service) Settings() Settings {
	return s.settings()
}
