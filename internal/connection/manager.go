package connection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"liveintent/internal/auth"
	"liveintent/internal/remote"
)

var (
	// ErrBusy rejects an operation while another one is still running.
	ErrBusy = errors.New("a connection update is already in progress")
	// ErrDevOnly rejects developer shortcuts outside simulated mode.
	ErrDevOnly = errors.New("dev handle connection is only available in development mode")
	// ErrUserChanged aborts a commit when the user logged out or switched mid-operation.
	ErrUserChanged = errors.New("user changed while the update was in progress")
	// ErrAuthRequired is returned when no user or hosted session is available.
	ErrAuthRequired = remote.ErrAuthRequired
)

// Users is the slice of the auth manager the connection manager depends on.
type Users interface {
	CurrentUser() (auth.User, bool)
	Login(ctx context.Context, user auth.User) error
	Subscribe(fn auth.Listener)
}

// SessionSource returns the hosted session of the current browser session, if any.
type SessionSource func() *remote.Session

// Manager tracks whether the current user has a linked TikTok handle and runs
// the operations that change it.
type Manager struct {
	users    Users
	strategy Strategy
	sessions SessionSource
	logger   *slog.Logger

	inFlight atomic.Bool

	mu    sync.RWMutex
	state State
}

func NewManager(users Users, strategy Strategy, sessions SessionSource, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if strategy.simulated == nil {
		strategy = NewStrategy(true, nil, DefaultLatency)
	}
	if sessions == nil {
		sessions = func() *remote.Session { return nil }
	}

	m := &Manager{
		users:    users,
		strategy: strategy,
		sessions: sessions,
		logger:   logger,
	}
	if user, ok := users.CurrentUser(); ok {
		m.derive(&user)
	}
	users.Subscribe(m.derive)
	return m
}

// State returns a snapshot of the connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state := m.state
	if state.TikTokHandle != nil {
		h := *state.TikTokHandle
		state.TikTokHandle = &h
	}
	if state.Error != nil {
		e := *state.Error
		state.Error = &e
	}
	return state
}

// UpdateTikTokHandle validates raw and commits it through the selected backend.
func (m *Manager) UpdateTikTokHandle(ctx context.Context, raw string) error {
	return m.run(ctx, "update_handle", func(ctx context.Context, user auth.User) (auth.User, error) {
		handle, err := NormalizeHandle(raw)
		if err != nil {
			return user, err
		}

		backend := m.strategy.For(user)
		stored, err := backend.UpdateHandle(ctx, HandleUpdate{
			User:    user,
			Handle:  handle,
			Session: m.sessions(),
		})
		if err != nil {
			return user, err
		}
		return user.WithHandle(stored), nil
	})
}

// ConnectRealTikTok simulates the OAuth round trip and links a handle derived
// from the display name.
func (m *Manager) ConnectRealTikTok(ctx context.Context) error {
	return m.run(ctx, "connect", func(ctx context.Context, user auth.User) (auth.User, error) {
		if err := m.strategy.simulated.Wait(ctx); err != nil {
			return user, err
		}
		return user.WithHandle(DeriveHandle(user.DisplayName)), nil
	})
}

// Disconnect unlinks the handle.
func (m *Manager) Disconnect(ctx context.Context) error {
	return m.run(ctx, "disconnect", func(_ context.Context, user auth.User) (auth.User, error) {
		return user.WithHandle(""), nil
	})
}

// ConnectDevHandle links an arbitrary handle without the hosted backend. It is
// only available when the simulated backend serves the user.
func (m *Manager) ConnectDevHandle(ctx context.Context, raw string) error {
	return m.run(ctx, "dev_handle", func(ctx context.Context, user auth.User) (auth.User, error) {
		if !m.strategy.Simulated() && !user.IsDev {
			return user, ErrDevOnly
		}
		handle, err := NormalizeHandle(raw)
		if err != nil {
			return user, err
		}
		stored, err := m.strategy.simulated.UpdateHandle(ctx, HandleUpdate{User: user, Handle: handle})
		if err != nil {
			return user, err
		}
		return user.WithHandle(stored), nil
	})
}

func (m *Manager) run(ctx context.Context, op string, fn func(context.Context, auth.User) (auth.User, error)) error {
	if !m.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer m.inFlight.Store(false)

	ctx = context.WithoutCancel(ctx)
	m.begin()

	user, ok := m.users.CurrentUser()
	if !ok {
		return m.fail(op, ErrAuthRequired)
	}

	updated, err := fn(ctx, user)
	if err != nil {
		return m.fail(op, err)
	}

	if current, ok := m.users.CurrentUser(); !ok || current.ID != user.ID {
		return m.fail(op, ErrUserChanged)
	}

	// Login re-derives the state through the subscription.
	if err := m.users.Login(ctx, updated); err != nil {
		m.logger.Error("connection change not persisted", "op", op, "user_id", user.ID, "error", err)
	}
	m.settle()

	m.logger.Info("connection updated", "op", op, "user_id", user.ID, "connected", updated.Connected())
	return nil
}

func (m *Manager) derive(user *auth.User) {
	state := Derive(user)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

func (m *Manager) begin() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.IsLoading = true
	m.state.Error = nil
}

func (m *Manager) settle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.IsLoading = false
}

func (m *Manager) fail(op string, err error) error {
	message := Message(err)

	m.mu.Lock()
	m.state.IsLoading = false
	m.state.Error = &message
	m.mu.Unlock()

	var validation *ValidationError
	if errors.As(err, &validation) {
		m.logger.Debug("connection update rejected", "op", op, "reason", validation.Reason)
	} else {
		m.logger.Warn("connection update failed", "op", op, "error", err)
	}
	return err
}

// Message turns an operation error into the text shown to the user.
func Message(err error) string {
	var (
		validation *ValidationError
		update     *remote.RemoteUpdateError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return validation.Reason
	case errors.As(err, &update):
		return update.Message
	case errors.Is(err, ErrAuthRequired):
		return "Please sign in again to update your TikTok handle"
	case errors.Is(err, ErrBusy), errors.Is(err, ErrDevOnly), errors.Is(err, ErrUserChanged):
		return err.Error()
	default:
		return "Something went wrong updating your TikTok connection"
	}
}
