package console

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"liveintent/internal/auth"
	"liveintent/internal/connection"
	"liveintent/internal/remote"
	"liveintent/internal/session"
)

// ErrInvalidSessionID rejects blank session ids.
var ErrInvalidSessionID = errors.New("console: session id is required")

// Session is the state of one browser session: who is logged in and how their
// TikTok connection stands.
type Session struct {
	ID         string
	Auth       *auth.Manager
	Connection *connection.Manager

	initMu      sync.Mutex
	initialized bool

	mu     sync.RWMutex
	hosted *remote.Session
}

// RemoteSession returns the hosted-backend session obtained at login, if any.
func (s *Session) RemoteSession() *remote.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hosted
}

// SetRemoteSession replaces the hosted-backend session; nil clears it.
func (s *Session) SetRemoteSession(hosted *remote.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosted = hosted
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Registry owns the per-browser sessions of the process.
type Registry struct {
	store     session.Store
	strategy  connection.Strategy
	devBypass bool
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry builds a registry. devBypass must already include the
// development-build check.
func NewRegistry(store session.Store, strategy connection.Strategy, devBypass bool, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		store:     store,
		strategy:  strategy,
		devBypass: devBypass,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]*entry),
	}
}

// Session returns the session for id, creating it on first use. Auth is
// initialized once per session; concurrent first callers wait for it. When the
// stored session cannot be read the error is returned and the next call retries.
func (r *Registry) Session(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidSessionID
	}

	r.mu.Lock()
	e, ok := r.sessions[id]
	if !ok {
		e = &entry{session: r.newSession(id)}
		r.sessions[id] = e
	}
	e.lastSeen = r.now()
	r.mu.Unlock()

	if err := r.initialize(context.WithoutCancel(ctx), e.session); err != nil {
		return nil, err
	}
	return e.session, nil
}

func (r *Registry) initialize(ctx context.Context, s *Session) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.initialized {
		return nil
	}

	err := s.Auth.InitializeAuth(ctx)
	if err != nil && s.Auth.State().IsLoading {
		return err
	}
	s.initialized = true

	// Settled but not persisted, e.g. the bypass user could not be stored.
	if err != nil {
		r.logger.Warn("session initialized with errors", "session_id", shortID(s.ID), "error", err)
	}
	return nil
}

func (r *Registry) newSession(id string) *Session {
	logger := r.logger.With("session_id", shortID(id))
	s := &Session{ID: id}
	s.Auth = auth.NewManager(session.Scope(r.store, id), r.devBypass, logger.With("component", "auth"))
	s.Connection = connection.NewManager(s.Auth, r.strategy, s.RemoteSession, logger.With("component", "connection"))
	return s
}

// Discard forgets the session so the next request starts from scratch.
func (r *Registry) Discard(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len reports how many sessions are held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than idle and prunes expired store
// entries. It returns the number of in-memory sessions removed.
func (r *Registry) Sweep(ctx context.Context, idle time.Duration) (int, error) {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	removed := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	r.mu.Unlock()

	pruned, err := r.store.DeleteExpired(ctx)
	if err != nil {
		return removed, err
	}
	if removed > 0 || pruned > 0 {
		r.logger.Info("swept sessions", "idle_removed", removed, "expired_entries", pruned)
	}
	return removed, nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
