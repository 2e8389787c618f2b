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

	"github.com/starford/dou/internal/api"
	"github.com/starford/dou/internal/canvas"
	"github.com/starford/dou/internal/index"
	"github.com/starford/dou/internal/mcpserver"
	"github.com/starford/dou/internal/projectservice"
	"github.com/starford/dou/internal/session"
	"github.com/starford/dou/internal/sse"
	"github.com/starford/dou/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// runtime holds the components shared by every command.
type runtime struct {
	logger   *slog.Logger
	store    *storage.FS
	db       *index.DB
	sessions *session.Manager
	svc      *projectservice.Service
	closers  []func() error
}

// start opens storage, the index and the clipboard and builds the project
// service. notify may be nil.
func (a *application) start(notify session.Notifier) (*runtime, error) {
	cfg := a.config

	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("projects_path", cfg.Projects.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("clipboard", cfg.Clipboard.Backend),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Projects.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create projects dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Projects.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	rt := &runtime{logger: logger, store: store}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	rt.db = db
	rt.closers = append(rt.closers, db.Close)

	clipboard, err := a.openClipboard()
	if err != nil {
		rt.close()
		return nil, err
	}
	if rc, ok := clipboard.(*canvas.RedisClipboard); ok && a.clipboard == nil {
		rt.closers = append(rt.closers, rc.Close)
	}

	sessCfg := cfg.SessionConfig()
	sessCfg.Clipboard = clipboard
	rt.sessions = session.NewManager(store, sessCfg, notify, logger)
	rt.svc = projectservice.NewService(store, db, rt.sessions)
	return rt, nil
}

func (a *application) openClipboard() (canvas.Clipboard, error) {
	if a.clipboard != nil {
		return a.clipboard, nil
	}
	cfg := a.config.Clipboard
	if cfg.Backend != ClipboardRedis {
		return canvas.NewMemoryClipboard(), nil
	}
	cb, err := canvas.NewRedisClipboard(canvas.RedisClipboardOptions{
		URL: cfg.RedisURL,
		Key: cfg.Key,
		TTL: cfg.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("init clipboard: %w", err)
	}
	return cb, nil
}

// sync rebuilds the index from the project directory.
func (rt *runtime) sync() {
	if err := index.Sync(rt.db, rt.store, rt.logger); err != nil {
		rt.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
}

// close stops every session, then releases the index and the clipboard.
func (rt *runtime) close() {
	if rt.sessions != nil {
		rt.sessions.CloseAll()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := app.start(broker)
	if err != nil {
		return err
	}
	defer rt.close()
	logger := rt.logger

	rt.sync()

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := rt.db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// File watcher keeps the index current and feeds project.* events.
	g.Go(func() error {
		return index.Watch(gCtx, rt.db, rt.store, cfg.Projects.Path, logger, func(kind, path string) {
			broker.PublishProjectEvent(kind, path)
		})
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		if open := rt.sessions.Paths(); len(open) > 0 {
			logger.Info("Closing sessions", slog.Int("open", len(open)))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout until stdin closes.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.start(nil)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.sync()

	rt.logger.Info("Starting MCP server on stdio")
	return mcpserver.New(rt.store, rt.svc).ServeStdio()
}
