package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"codepad/internal/language"
	"codepad/internal/monitor"
	"codepad/internal/session"
)

// hostedSession is one server-hosted editor session: a store plus the
// buffer standing in for the browser's editor surface. The buffer is
// bound at creation and released at teardown.
type hostedSession struct {
	id        string
	store     *session.Store
	buffer    *session.Buffer
	createdAt time.Time
}

// SessionManager creates, looks up and tears down hosted sessions.
// Session state lives for the session's lifetime only; per-session
// preferences and buffers are kept in a memory-backed local store.
type SessionManager struct {
	registry *language.Registry
	exec     session.Executor
	defaults session.Defaults
	metrics  *monitor.Metrics

	mu       sync.Mutex
	sessions map[string]*hostedSession
}

// NewSessionManager creates an empty manager.
func NewSessionManager(registry *language.Registry, exec session.Executor, defaults session.Defaults, metrics *monitor.Metrics) *SessionManager {
	return &SessionManager{
		registry: registry,
		exec:     exec,
		defaults: defaults,
		metrics:  metrics,
		sessions: make(map[string]*hostedSession),
	}
}

// Create builds a new session seeded with the default language's
// default source.
func (m *SessionManager) Create() *hostedSession {
	store := session.NewStore(m.registry, m.exec, session.NewMemStore(), m.defaults)

	seed := ""
	if cfg, err := m.registry.Get(store.Language()); err == nil {
		seed = cfg.DefaultSource
	}
	buffer := session.NewBuffer(seed)
	store.BindSurface(buffer)

	s := &hostedSession{
		id:        uuid.New().String(),
		store:     store,
		buffer:    buffer,
		createdAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ActiveSessions.Inc()
	}
	return s
}

// Get returns the session with the given ID, or nil.
func (m *SessionManager) Get(id string) *hostedSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Delete tears the session down, releasing the surface handle.
func (m *SessionManager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.store.ReleaseSurface()
	if m.metrics != nil {
		m.metrics.ActiveSessions.Dec()
	}
	return true
}

// state builds the UI-facing view of the session.
func (s *hostedSession) state() SessionState {
	snap := s.store.Snapshot()
	return SessionState{
		ID:        s.id,
		Language:  snap.Language,
		Theme:     snap.Theme,
		FontSize:  snap.FontSize,
		Code:      s.store.Code(),
		Output:    snap.Output,
		Error:     snap.Error,
		IsRunning: snap.IsRunning,
		Status:    snap.Status(),
	}
}
