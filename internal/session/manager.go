package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookfinder/internal/metrics"
)

const (
	DefaultTTL           = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// Manager is the registry of live sessions.
type Manager struct {
	cfg      Config
	factory  Factory
	onExpire func(ctx context.Context, sessionID string)
	metrics  *metrics.Registry
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(cfg Config, factory Factory, m *metrics.Registry, log *zap.Logger) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		factory:  factory,
		metrics:  m,
		log:      log.Named("session"),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// OnExpire registers a hook run for every session that expires or is deleted.
func (m *Manager) OnExpire(fn func(ctx context.Context, sessionID string)) {
	m.mu.Lock()
	m.onExpire = fn
	m.mu.Unlock()
}

// Get returns the live session with the given id and marks it used.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	now := m.now()
	if now.Sub(s.LastUsedAt) >= m.cfg.TTL {
		return nil, false
	}
	s.LastUsedAt = now
	return s, true
}

// Create starts a new session under a fresh id.
func (m *Manager) Create() *Session {
	now := m.now()
	id := uuid.NewString()
	s := &Session{
		ID:         id,
		CreatedAt:  now,
		LastUsedAt: now,
		Screens:    m.factory(id),
	}

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	m.log.Debug("session created", zap.String("session_id", id))
	return s
}

// Resolve returns the live session for id or creates a new one. created
// reports whether the caller must hand out a new id.
func (m *Manager) Resolve(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s, false
		}
	}
	return m.Create(), true
}

// Delete ends a session immediately.
func (m *Manager) Delete(ctx context.Context, id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	hook := m.onExpire
	m.mu.Unlock()

	if ok {
		m.metrics.SetActiveSessions(n)
		m.end(ctx, s, hook)
	}
}

// Sweep ends every session idle for at least the TTL and returns how many
// were removed.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if now.Sub(s.LastUsedAt) >= m.cfg.TTL {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	hook := m.onExpire
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	for _, s := range expired {
		m.end(ctx, s, hook)
	}
	if len(expired) > 0 {
		m.log.Info("sessions expired", zap.Int("count", len(expired)), zap.Int("active", n))
	}
	return len(expired)
}

// Run sweeps on every interval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) end(ctx context.Context, s *Session, hook func(context.Context, string)) {
	if s.Screens != nil {
		s.Screens.Close()
	}
	if hook != nil {
		hook(ctx, s.ID)
	}
}
