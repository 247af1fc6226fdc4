package connection

import (
	"context"
	"errors"
	"testing"
	"time"

	"liveintent/internal/auth"
	"liveintent/internal/remote"
)

func TestStrategySelection(t *testing.T) {
	hosted := NewRemoteBackend(&profileUpdaterStub{}, sessionCheckerStub{})

	simulated := NewStrategy(true, hosted, 0)
	if !simulated.Simulated() || simulated.For(auth.User{ID: "u"}).Name() != "simulated" {
		t.Fatal("expected simulated strategy")
	}

	fallback := NewStrategy(false, nil, 0)
	if !fallback.Simulated() {
		t.Fatal("expected simulated strategy without a remote backend")
	}

	production := NewStrategy(false, hosted, 0)
	if production.Simulated() {
		t.Fatal("expected remote strategy")
	}
	if got := production.For(auth.User{ID: "u"}).Name(); got != "remote" {
		t.Fatalf("expected remote backend, got %q", got)
	}
	if got := production.For(auth.DevUser()).Name(); got != "simulated" {
		t.Fatalf("expected simulated backend for dev user, got %q", got)
	}
}

func TestSimulatedBackendWaits(t *testing.T) {
	backend := NewSimulatedBackend(15 * time.Millisecond)

	start := time.Now()
	got, err := backend.UpdateHandle(context.Background(), HandleUpdate{Handle: "@x1"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got != "@x1" {
		t.Fatalf("expected handle echoed, got %q", got)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("expected simulated latency, took %s", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewSimulatedBackend(time.Second).Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestRemoteBackendKeepsSentHandleWhenOmitted(t *testing.T) {
	profiles := &profileUpdaterStub{
		updateProfile: func(context.Context, string, *string) (remote.Profile, error) {
			return remote.Profile{ID: "user-1"}, nil
		},
	}
	backend := NewRemoteBackend(profiles, sessionCheckerStub{})

	got, err := backend.UpdateHandle(context.Background(), HandleUpdate{
		Handle:  "@sent",
		Session: &remote.Session{AccessToken: "t"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got != "@sent" {
		t.Fatalf("expected @sent, got %q", got)
	}
}

func TestRemoteBackendRejectsInactiveSession(t *testing.T) {
	expired := errors.New("expired")
	backend := NewRemoteBackend(&profileUpdaterStub{}, sessionCheckerStub{
		active: func(context.Context, *remote.Session) error { return expired },
	})

	_, err := backend.UpdateHandle(context.Background(), HandleUpdate{
		Handle:  "@x1",
		Session: &remote.Session{AccessToken: "t"},
	})
	if !errors.Is(err, expired) {
		t.Fatalf("expected session error, got %v", err)
	}
}

func TestMessage(t *testing.T) {
	if got := Message(&ValidationError{Reason: "nope"}); got != "nope" {
		t.Fatalf("unexpected validation message %q", got)
	}
	if got := Message(&remote.RemoteUpdateError{Status: 500, Message: "failed to update profile"}); got != "failed to update profile" {
		t.Fatalf("unexpected remote message %q", got)
	}
	if got := Message(errors.New("boom")); got == "" || got == "boom" {
		t.Fatalf("expected generic message, got %q", got)
	}
}

func TestRemoteBackendPrefixesServerHandle(t *testing.T) {
	profiles := &profileUpdaterStub{
		updateProfile: func(context.Context, string, *string) (remote.Profile, error) {
			stored := "creator1_verified"
			return remote.Profile{ID: "user-1", CustomTikTokHandle: &stored}, nil
		},
	}
	backend := NewRemoteBackend(profiles, sessionCheckerStub{})

	got, err := backend.UpdateHandle(context.Background(), HandleUpdate{
		Handle:  "@creator1",
		Session: &remote.Session{AccessToken: "t"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got != "@creator1_verified" {
		t.Fatalf("expected @creator1_verified, got %q", got)
	}
}
