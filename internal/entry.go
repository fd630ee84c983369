// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/quicknote/internal/api"
	"github.com/starford/quicknote/internal/history"
	"github.com/starford/quicknote/internal/mcpserver"
	"github.com/starford/quicknote/internal/noteservice"
	"github.com/starford/quicknote/internal/settings"
	"github.com/starford/quicknote/internal/sse"
)

// App bundles the long-lived components shared by every command.
type App struct {
	Settings *settings.Store[Config]
	History  *history.DB
	Notes    *noteservice.Service
	Events   *sse.Broker
	Logger   *slog.Logger

	watch   bool
	version string
}

// Open loads configuration, opens the run history and builds the note service.
func Open(opts ...Option) (*App, error) {
	app := &application{version: "dev", logOutput: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil && app.configPath == "" {
		return nil, fmt.Errorf("config is required")
	}

	store, err := app.settingsStore()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := store.Current()

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	db, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}

	broker := sse.NewBroker(sse.DefaultHeartbeat)

	svc := noteservice.NewService(
		func() noteservice.Settings { return store.Current().ServiceSettings() },
		noteservice.WithRecorder(db),
		noteservice.WithPublisher(broker),
		noteservice.WithLogger(logger),
	)

	if !cfg.Joplin.HasToken() {
		logger.Warn("Joplin API token not configured", slog.String("env", TokenEnv))
	}

	return &App{
		Settings: store,
		History:  db,
		Notes:    svc,
		Events:   broker,
		Logger:   logger,
		watch:    app.config == nil,
		version:  app.version,
	}, nil
}

// Close waits for background runs and releases resources.
func (a *App) Close() error {
	a.Notes.Wait()
	a.Events.Close()
	return a.History.Close()
}

// watchSettings reloads configuration on file change until ctx is done.
func (a *App) watchSettings(ctx context.Context) error {
	if !a.watch {
		return nil
	}
	err := a.Settings.Watch(ctx, a.Logger, func(cfg *Config) {
		a.Logger.Info("Configuration reloaded",
			slog.String("joplin", cfg.Joplin.BaseURL()),
			slog.String("default_notebook", cfg.Notes.DefaultNotebook))
	})
	if err != nil {
		a.Logger.Warn("config watcher disabled", slog.String("error", err.Error()))
	}
	return nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	a, err := Open(opts...)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Serve(ctx)
}

// RunMCP serves the MCP tools on stdio with the given options.
func RunMCP(ctx context.Context, opts ...Option) error {
	a, err := Open(opts...)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.ServeMCP(ctx)
}

// Handler builds the HTTP handler: health checks plus the API under /api.
func (a *App) Handler() http.Handler {
	cfg := a.Settings.Current()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := a.History.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api, SSE included.
	r.Mount("/api", api.NewRouter(a.Notes, cfg.Auth.AuthEnabled(), cfg.Auth.Token, a.Events))

	return r
}

// Serve runs the HTTP server until ctx is cancelled or a signal arrives.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Settings.Current()
	logger := a.Logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("joplin", cfg.Joplin.BaseURL()),
		slog.String("history_path", cfg.History.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.watchSettings(gCtx)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP serves the MCP tools on stdin/stdout until the client disconnects.
func (a *App) ServeMCP(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() { _ = a.watchSettings(ctx) }()

	a.Logger.Info("Starting MCP server on stdio")
	return mcpserver.New(a.Notes, a.version).ServeStdio()
}

// errShutdown stops the errgroup once the server has been shut down, so the
// settings watcher exits with it.
var errShutdown = errors.New("shutdown")
