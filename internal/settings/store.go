// Package settings holds the live configuration snapshot and reloads it when
// the file on disk changes. Readers take a snapshot per call; nothing reads
// configuration from globals.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events editors emit on save.
const reloadDebounce = 200 * time.Millisecond

// Loader reads and validates the configuration at path.
type Loader[T any] func(path string) (*T, error)

// ReloadCallback is called with each successfully reloaded snapshot.
type ReloadCallback[T any] func(cfg *T)

// Store holds the current configuration snapshot.
type Store[T any] struct {
	path    string
	load    Loader[T]
	current atomic.Pointer[T]
}

// NewStore loads path once and returns a Store serving that snapshot.
func NewStore[T any](path string, load Loader[T]) (*Store[T], error) {
	s := &Store[T]{path: path, load: load}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Static returns a Store that always serves cfg and never reloads.
func Static[T any](cfg *T) *Store[T] {
	s := &Store[T]{}
	s.current.Store(cfg)
	return s
}

// Current returns the latest valid snapshot. Callers must not mutate it.
func (s *Store[T]) Current() *T {
	return s.current.Load()
}

// Reload re-reads the file. On error the previous snapshot stays in place.
func (s *Store[T]) Reload() error {
	if s.load == nil {
		return nil
	}
	cfg, err := s.load(s.path)
	if err != nil {
		return fmt.Errorf("settings: reload %s: %w", s.path, err)
	}
	s.current.Store(cfg)
	return nil
}

// Watch reloads the snapshot whenever the file changes until ctx is
// cancelled. The parent directory is watched so that editors which replace
// the file by rename are picked up.
func (s *Store[T]) Watch(ctx context.Context, logger *slog.Logger, cb ReloadCallback[T]) error {
	if s.load == nil {
		<-ctx.Done()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings: new watcher: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(s.path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("settings: watch %s: %w", filepath.Dir(target), err)
	}
	logger.Info("settings: watching", slog.String("path", target))

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("settings: watcher stopped")
			return nil

		case <-fire:
			fire = nil
			if err := s.Reload(); err != nil {
				logger.Warn("settings: keeping previous configuration", slog.String("error", err.Error()))
				continue
			}
			logger.Info("settings: reloaded", slog.String("path", target))
			if cb != nil {
				cb(s.Current())
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("settings: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
