package connection

import (
	"context"
	"time"

	"liveintent/internal/auth"
	"liveintent/internal/remote"
)

// DefaultLatency is the simulated round-trip time used when none is configured.
const DefaultLatency = 500 * time.Millisecond

// HandleUpdate is one request to commit a normalized handle for a user.
type HandleUpdate struct {
	User    auth.User
	Handle  string
	Session *remote.Session
}

// Backend commits handle changes and returns the handle as stored.
type Backend interface {
	Name() string
	UpdateHandle(ctx context.Context, req HandleUpdate) (string, error)
}

// SimulatedBackend accepts every update after a fixed delay.
type SimulatedBackend struct {
	latency time.Duration
}

func NewSimulatedBackend(latency time.Duration) *SimulatedBackend {
	if latency < 0 {
		latency = 0
	}
	return &SimulatedBackend{latency: latency}
}

func (b *SimulatedBackend) Name() string { return "simulated" }

func (b *SimulatedBackend) UpdateHandle(ctx context.Context, req HandleUpdate) (string, error) {
	if err := b.Wait(ctx); err != nil {
		return "", err
	}
	return req.Handle, nil
}

// Wait blocks for the simulated latency.
func (b *SimulatedBackend) Wait(ctx context.Context) error {
	if b.latency == 0 {
		return nil
	}
	timer := time.NewTimer(b.latency)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type profileUpdater interface {
	UpdateProfile(ctx context.Context, accessToken string, handle *string) (remote.Profile, error)
}

type sessionChecker interface {
	Active(ctx context.Context, session *remote.Session) error
}

// RemoteBackend commits handles through the hosted profile-update function.
type RemoteBackend struct {
	profiles profileUpdater
	sessions sessionChecker
}

func NewRemoteBackend(profiles profileUpdater, sessions sessionChecker) *RemoteBackend {
	return &RemoteBackend{profiles: profiles, sessions: sessions}
}

func (b *RemoteBackend) Name() string { return "remote" }

// UpdateHandle requires an active hosted session and adopts whatever handle
// the function reports back, prefixed with "@" if it lacks one. If the
// function omits it, the sent handle stands.
func (b *RemoteBackend) UpdateHandle(ctx context.Context, req HandleUpdate) (string, error) {
	if err := b.sessions.Active(ctx, req.Session); err != nil {
		return "", err
	}

	handle := req.Handle
	profile, err := b.profiles.UpdateProfile(ctx, req.Session.AccessToken, &handle)
	if err != nil {
		return "", err
	}
	if stored := profile.Handle(); stored != "" {
		return withPrefix(stored), nil
	}
	return req.Handle, nil
}

// Strategy holds the backend chosen at startup plus the simulated fallback that
// always serves synthetic users.
type Strategy struct {
	primary   Backend
	simulated *SimulatedBackend
}

// NewStrategy picks the simulated backend when simulate is set or no remote
// backend is available.
func NewStrategy(simulate bool, hosted Backend, latency time.Duration) Strategy {
	sim := NewSimulatedBackend(latency)
	if simulate || hosted == nil {
		return Strategy{primary: sim, simulated: sim}
	}
	return Strategy{primary: hosted, simulated: sim}
}

// Simulated reports whether the strategy never reaches the hosted backend.
func (s Strategy) Simulated() bool {
	return s.primary == Backend(s.simulated)
}

// For returns the backend serving user.
func (s Strategy) For(user auth.User) Backend {
	if user.IsDev {
		return s.simulated
	}
	return s.primary
}
