package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore keeps entries in an in-process map, ideal for local development or tests.
type MemoryStore struct {
	mu   sync.RWMutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]map[string]memoryEntry
}

// NewMemoryStore constructs an empty store whose entries live for ttl after their last write.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:  ttl,
		now:  time.Now,
		data: make(map[string]map[string]memoryEntry),
	}
}

// Get returns the live value for key in sessionID.
func (s *MemoryStore) Get(_ context.Context, sessionID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[sessionID][key]
	if !ok || !s.now().Before(entry.expiresAt) {
		return "", ErrNotFound
	}
	return entry.value, nil
}

// Set stores value and refreshes its expiry.
func (s *MemoryStore) Set(_ context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.data[sessionID]
	if !ok {
		entries = make(map[string]memoryEntry)
		s.data[sessionID] = entries
	}
	entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Remove deletes key from sessionID.
func (s *MemoryStore) Remove(_ context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.data[sessionID]
	if !ok {
		return nil
	}
	delete(entries, key)
	if len(entries) == 0 {
		delete(s.data, sessionID)
	}
	return nil
}

// DeleteExpired drops every expired entry and reports how many were removed.
func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for sessionID, entries := range s.data {
		for key, entry := range entries {
			if !now.Before(entry.expiresAt) {
				delete(entries, key)
				removed++
			}
		}
		if len(entries) == 0 {
			delete(s.data, sessionID)
		}
	}
	return removed, nil
}
