// Package session owns open projects. Each Session runs a single goroutine
// that holds the project's canvas.Controller; every read and every mutation
// is a closure executed on that goroutine, so the graph never sees two
// writers.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/starford/dou/internal/apperr"
	"github.com/starford/dou/internal/canvas"
	"github.com/starford/dou/internal/checksum"
	"github.com/starford/dou/internal/graph"
	"github.com/starford/dou/internal/models"
	"github.com/starford/dou/internal/project"
	"github.com/starford/dou/internal/storage"
)

// Notifier receives canvas notifications tagged with the project path. It is
// called from session goroutines and must not block.
type Notifier interface {
	NodeFocused(project string, n *models.Node)
	CanvasChanged(project string, revision uint64)
}

type nopNotifier struct{}

func (nopNotifier) NodeFocused(string, *models.Node) {}
func (nopNotifier) CanvasChanged(string, uint64)     {}

// Config holds the per-session canvas settings.
type Config struct {
	Zoom              canvas.ZoomConfig
	DoubleTapInterval time.Duration
	DoubleTapDistance float64
	// Clipboard is shared by every session. Nil gives each session its own
	// in-memory clipboard.
	Clipboard canvas.Clipboard
}

// DefaultConfig returns the stock canvas settings.
func DefaultConfig() Config {
	return Config{
		Zoom:              canvas.DefaultZoomConfig(),
		DoubleTapInterval: 400 * time.Millisecond,
		DoubleTapDistance: 10,
	}
}

// Session is one open project.
type Session struct {
	path   string
	store  storage.Provider
	logger *slog.Logger

	ctrl  *canvas.Controller
	input *canvas.Coalescer

	ops     chan func()
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

func newSession(path string, g *graph.Store, store storage.Provider, cfg Config, notify Notifier, logger *slog.Logger) *Session {
	s := &Session{
		path:    path,
		store:   store,
		logger:  logger.With(slog.String("project", path)),
		input:   canvas.NewCoalescer(cfg.DoubleTapInterval, cfg.DoubleTapDistance),
		ops:     make(chan func()),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	opts := []canvas.Option{
		canvas.WithLogger(s.logger),
		canvas.WithZoom(cfg.Zoom),
		canvas.WithListener(canvas.ListenerFuncs{
			OnNodeFocused: func(n *models.Node) { notify.NodeFocused(path, n) },
			OnRepaint:     func() { notify.CanvasChanged(path, s.ctrl.Revision()) },
		}),
	}
	if cfg.Clipboard != nil {
		opts = append(opts, canvas.WithClipboard(cfg.Clipboard))
	}
	s.ctrl = canvas.NewController(g, opts...)

	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.stopCh:
			return
		case op := <-s.ops:
			op()
		}
	}
}

// Path returns the project path the session was opened from.
func (s *Session) Path() string { return s.path }

// Do runs fn on the session goroutine and waits for its result. The
// controller must not escape fn.
//
// ctx only bounds the wait for the goroutine to pick fn up. Once fn is
// accepted it runs to completion and Do returns its result, so a ctx error
// from Do means fn never ran.
func (s *Session) Do(ctx context.Context, fn func(c *canvas.Controller) error) error {
	if s.closed.Load() {
		return fmt.Errorf("session: %s: %w", s.path, apperr.ErrSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	op := func() { done <- fn(s.ctrl) }

	select {
	case s.ops <- op:
	case <-s.stopped:
		return fmt.Errorf("session: %s: %w", s.path, apperr.ErrSessionClosed)
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-done
}

// Input runs raw pointer and keyboard events through the input coalescer and
// the controller, then returns the resulting canvas.
func (s *Session) Input(ctx context.Context, events []canvas.Event) (canvas.Snapshot, error) {
	var snap canvas.Snapshot
	err := s.Do(ctx, func(c *canvas.Controller) error {
		// Accepted input runs to the end even if the caller gives up.
		opCtx := context.WithoutCancel(ctx)
		for _, raw := range events {
			ev, ok := s.input.Filter(raw)
			if !ok {
				continue
			}
			if err := c.Handle(opCtx, ev); err != nil {
				return err
			}
		}
		snap = c.Snapshot()
		return nil
	})
	return snap, err
}

// Snapshot returns a copy of the current canvas.
func (s *Session) Snapshot(ctx context.Context) (canvas.Snapshot, error) {
	var snap canvas.Snapshot
	err := s.Do(ctx, func(c *canvas.Controller) error {
		snap = c.Snapshot()
		return nil
	})
	return snap, err
}

// Paths returns a copy of every traversal path in the project together with
// the path starting at the active node, if any.
func (s *Session) Paths(ctx context.Context) (all []graph.Path, active graph.Path, err error) {
	err = s.Do(ctx, func(c *canvas.Controller) error {
		for _, p := range c.Store().AllPaths() {
			all = append(all, clonePath(p))
		}
		active = clonePath(c.PathFromActive())
		return nil
	})
	return all, active, err
}

// Save writes the project back to storage and returns the new checksum. On
// failure the file is left as it was.
func (s *Session) Save(ctx context.Context) (string, error) {
	var sum string
	err := s.Do(ctx, func(c *canvas.Controller) error {
		data, err := project.Marshal(c.Store())
		if err != nil {
			return fmt.Errorf("session: save %s: %w: %w", s.path, apperr.ErrSaveIO, err)
		}
		if err := s.store.Write(s.path, data); err != nil {
			return fmt.Errorf("session: save %s: %w: %w", s.path, apperr.ErrSaveIO, err)
		}
		sum = checksum.Sum(data)
		return nil
	})
	if err == nil {
		s.logger.Info("session: saved", slog.String("checksum", sum))
	}
	return sum, err
}

// Load replaces the session graph with the document in data. A document that
// does not parse leaves the current graph untouched.
func (s *Session) Load(ctx context.Context, data []byte) (*project.Loaded, error) {
	loaded, err := project.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", s.path, err)
	}
	for _, d := range loaded.Dropped {
		s.logger.Debug("session: dropped connection", slog.String("error", d.Error()))
	}
	err = s.Do(ctx, func(c *canvas.Controller) error {
		c.Replace(loaded.Store)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

// Reload reads the project file again and loads it.
func (s *Session) Reload(ctx context.Context) error {
	data, err := s.store.Read(s.path)
	if err != nil {
		return fmt.Errorf("session: reload %s: %w", s.path, err)
	}
	_, err = s.Load(ctx, data)
	return err
}

// Close stops the session goroutine. Pending Do calls fail with
// apperr.ErrSessionClosed.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
	<-s.stopped
}

func clonePath(p graph.Path) graph.Path {
	if p == nil {
		return nil
	}
	out := make(graph.Path, len(p))
	for i, n := range p {
		out[i] = n.Clone()
	}
	return out
}
