package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/starford/dou/internal/graph"
	"github.com/starford/dou/internal/project"
	"github.com/starford/dou/internal/storage"
)

// Manager tracks the open sessions by project path.
type Manager struct {
	store  storage.Provider
	cfg    Config
	notify Notifier
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a Manager that opens projects from store. A nil notifier
// discards canvas notifications.
func NewManager(store storage.Provider, cfg Config, notify Notifier, logger *slog.Logger) *Manager {
	if notify == nil {
		notify = nopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		cfg:      cfg,
		notify:   notify,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Open returns the session for path, loading the project file on first use.
func (m *Manager) Open(_ context.Context, path string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[path]; ok {
		return s, nil
	}
	data, err := m.store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	loaded, err := project.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	for _, d := range loaded.Dropped {
		m.logger.Debug("session: dropped connection", slog.String("project", path), slog.String("error", d.Error()))
	}
	s := newSession(path, loaded.Store, m.store, m.cfg, m.notify, m.logger)
	m.sessions[path] = s
	m.logger.Info("session: opened", slog.String("project", path), slog.Int("nodes", loaded.Store.Len()))
	return s, nil
}

// Create starts a session over an empty graph without touching storage.
// An already open session for path is returned unchanged.
func (m *Manager) Create(path string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[path]; ok {
		return s
	}
	s := newSession(path, graph.New(), m.store, m.cfg, m.notify, m.logger)
	m.sessions[path] = s
	return s
}

// Get returns an already open session.
func (m *Manager) Get(path string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[path]
	return s, ok
}

// Paths lists the open project paths, sorted.
func (m *Manager) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sessions))
	for p := range m.sessions {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Close stops and forgets the session for path, if open.
func (m *Manager) Close(path string) {
	m.mu.Lock()
	s, ok := m.sessions[path]
	delete(m.sessions, path)
	m.mu.Unlock()
	if ok {
		s.Close()
		m.logger.Info("session: closed", slog.String("project", path))
	}
}

// CloseAll stops every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	open := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range open {
		s.Close()
	}
}
