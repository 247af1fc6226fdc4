package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreSetGetRemove(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	if _, err := store.Get(ctx, "sid", UserKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty store, got %v", err)
	}

	if err := store.Set(ctx, "sid", UserKey, `{"id":"u1"}`); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := store.Set(ctx, "sid", UserKey, `{"id":"u2"}`); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	value, err := store.Get(ctx, "sid", UserKey)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if value != `{"id":"u2"}` {
		t.Fatalf("expected overwritten value, got %q", value)
	}

	if _, err := store.Get(ctx, "other", UserKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected sessions to be isolated, got %v", err)
	}

	if err := store.Remove(ctx, "sid", UserKey); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if err := store.Remove(ctx, "sid", UserKey); err != nil {
		t.Fatalf("second Remove returned error: %v", err)
	}
	if _, err := store.Get(ctx, "sid", UserKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after Remove, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Set(ctx, "old", UserKey, "a")
	now = now.Add(30 * time.Second)
	_ = store.Set(ctx, "fresh", UserKey, "b")
	now = now.Add(45 * time.Second)

	if _, err := store.Get(ctx, "old", UserKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired entry to be hidden, got %v", err)
	}
	if value, err := store.Get(ctx, "fresh", UserKey); err != nil || value != "b" {
		t.Fatalf("expected fresh entry, got %q %v", value, err)
	}

	removed, err := store.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 expired entry removed, got %d", removed)
	}
}

func TestScopedStorage(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	scoped := Scope(store, "sid")
	ctx := context.Background()

	if _, ok, err := scoped.GetItem(ctx, UserKey); err != nil || ok {
		t.Fatalf("expected missing item, got ok=%v err=%v", ok, err)
	}
	if err := scoped.SetItem(ctx, UserKey, "value"); err != nil {
		t.Fatalf("SetItem returned error: %v", err)
	}
	value, ok, err := scoped.GetItem(ctx, UserKey)
	if err != nil || !ok || value != "value" {
		t.Fatalf("expected stored item, got %q ok=%v err=%v", value, ok, err)
	}
	if raw, _ := store.Get(ctx, "sid", UserKey); raw != "value" {
		t.Fatalf("expected scope to write through to sid, got %q", raw)
	}
	if err := scoped.RemoveItem(ctx, UserKey); err != nil {
		t.Fatalf("RemoveItem returned error: %v", err)
	}
	if _, ok, _ := scoped.GetItem(ctx, UserKey); ok {
		t.Fatal("expected item to be removed")
	}
	if scoped.SessionID() != "sid" {
		t.Fatalf("unexpected session id %q", scoped.SessionID())
	}
}
