// Package session holds the session-scoped key/value storage that backs each
// browser session's persisted user record.
package session

import (
	"context"
	"errors"
	"time"
)

// UserKey is the single key under which the serialized user record is kept.
const UserKey = "liveintent.user"

// DefaultTTL bounds how long an idle browser session keeps its entries.
const DefaultTTL = 12 * time.Hour

// ErrNotFound is returned when a key is absent or its session has expired.
var ErrNotFound = errors.New("session entry not found")

// Store persists string values per (session, key). Setting a value refreshes
// the expiry of that entry.
type Store interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Remove(ctx context.Context, sessionID, key string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// Scoped binds a Store to a single session and exposes the storage calls the
// auth manager needs.
type Scoped struct {
	store     Store
	sessionID string
}

// Scope returns storage restricted to sessionID.
func Scope(store Store, sessionID string) *Scoped {
	return &Scoped{store: store, sessionID: sessionID}
}

// SessionID reports which session this scope is bound to.
func (s *Scoped) SessionID() string {
	return s.sessionID
}

// GetItem returns the stored value and whether it was present.
func (s *Scoped) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, err := s.store.Get(ctx, s.sessionID, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *Scoped) SetItem(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.sessionID, key, value)
}

// RemoveItem deletes key; removing a missing key is not an error.
func (s *Scoped) RemoveItem(ctx context.Context, key string) error {
	return s.store.Remove(ctx, s.sessionID, key)
}
