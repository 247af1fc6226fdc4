package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"liveintent/internal/route"
	"liveintent/internal/session"
)

// Storage is the session-scoped key/value storage the manager persists the user into.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Listener is called after every change of the current user; user is nil after logout.
type Listener func(user *User)

// Manager is the single source of truth for who is logged in to one browser session.
type Manager struct {
	storage   Storage
	devBypass bool
	logger    *slog.Logger

	initialized atomic.Bool

	mu        sync.RWMutex
	user      *User
	loading   bool
	listeners []Listener
}

// NewManager creates a manager in the loading state. devBypass must already
// combine the bypass flag with the development-build check.
func NewManager(storage Storage, devBypass bool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		storage:   storage,
		devBypass: devBypass,
		logger:    logger,
		loading:   true,
	}
}

// Subscribe registers fn for user changes.
func (m *Manager) Subscribe(fn Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// InitializeAuth settles the initial state: a stored session wins, then the
// development bypass, then logged out. Only the first successful call has any
// effect. If the stored session cannot be read the state stays loading, the
// error is returned and a later call retries.
func (m *Manager) InitializeAuth(ctx context.Context) error {
	if !m.initialized.CompareAndSwap(false, true) {
		return nil
	}

	user, ok, err := m.restore(ctx)
	if err != nil {
		m.initialized.Store(false)
		return fmt.Errorf("auth: read stored session: %w", err)
	}
	if ok {
		m.set(&user)
		m.logger.Debug("restored session", "user_id", user.ID)
		return nil
	}

	if m.devBypass {
		m.logger.Info("development bypass active, signing in synthetic user")
		return m.Login(ctx, DevUser())
	}

	m.set(nil)
	return nil
}

// restore reads the stored user. A missing or corrupt record is reported as
// absent; only a failed read is an error.
func (m *Manager) restore(ctx context.Context) (User, bool, error) {
	raw, ok, err := m.storage.GetItem(ctx, session.UserKey)
	if err != nil {
		return User{}, false, err
	}
	if !ok {
		return User{}, false, nil
	}

	user, err := decodeUser(raw)
	if err != nil {
		m.logger.Warn("discarding stored session", "error", err)
		if err := m.storage.RemoveItem(ctx, session.UserKey); err != nil {
			m.logger.Warn("remove corrupt session", "error", err)
		}
		return User{}, false, nil
	}
	return user, true, nil
}

func decodeUser(raw string) (User, error) {
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return User{}, &SessionParseError{Err: err}
	}
	if strings.TrimSpace(user.ID) == "" {
		return User{}, &SessionParseError{Err: errors.New("record has no user id")}
	}
	return user, nil
}

// Login replaces the current user and persists the full record, overwriting
// any previous one. The in-memory state changes even if persisting fails.
func (m *Manager) Login(ctx context.Context, user User) error {
	m.initialized.Store(true)

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("auth: encode session: %w", err)
	}

	m.set(&user)

	if err := m.storage.SetItem(ctx, session.UserKey, string(raw)); err != nil {
		m.logger.Error("persist session", "user_id", user.ID, "error", err)
		return fmt.Errorf("auth: persist session: %w", err)
	}
	return nil
}

// Logout clears the user, purges the persisted record and returns the view the
// application must navigate to.
func (m *Manager) Logout(ctx context.Context) (route.View, error) {
	m.initialized.Store(true)
	m.set(nil)

	if err := m.storage.RemoveItem(ctx, session.UserKey); err != nil {
		m.logger.Error("purge session", "error", err)
		return route.Home, fmt.Errorf("auth: purge session: %w", err)
	}
	return route.Home, nil
}

// State returns a snapshot; the user is a copy.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state := State{IsLoading: m.loading, IsAuthenticated: m.user != nil}
	if m.user != nil {
		u := *m.user
		state.User = &u
	}
	return state
}

// CurrentUser returns the logged-in user, if any.
func (m *Manager) CurrentUser() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

func (m *Manager) set(user *User) {
	m.mu.Lock()
	m.user = user
	m.loading = false
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		if user == nil {
			fn(nil)
			continue
		}
		u := *user
		fn(&u)
	}
}
