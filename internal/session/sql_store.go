package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SQLStore implements Store on top of the session_entries table. Queries are
// written with ? placeholders and rebound for the connected driver, so the same
// store serves Postgres and SQLite.
type SQLStore struct {
	db  *sqlx.DB
	ttl time.Duration
	now func() time.Time
}

// NewPostgresStore wraps a migrated Postgres database.
func NewPostgresStore(db *sqlx.DB, ttl time.Duration) *SQLStore {
	return newSQLStore(db, ttl)
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_entries (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	entry_key   TEXT NOT NULL,
	value       TEXT NOT NULL,
	expires_at  INTEGER NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (session_id, entry_key)
);
CREATE INDEX IF NOT EXISTS idx_session_entries_expires_at ON session_entries (expires_at);
`

// NewSQLiteStore creates the schema if needed and wraps the database.
func NewSQLiteStore(ctx context.Context, db *sqlx.DB, ttl time.Duration) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("sqlite: create session_entries: %w", err)
	}
	return newSQLStore(db, ttl), nil
}

func newSQLStore(db *sqlx.DB, ttl time.Duration) *SQLStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SQLStore{db: db, ttl: ttl, now: time.Now}
}

// Get returns the live value for key in sessionID.
func (s *SQLStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	query := s.db.Rebind(`
		SELECT value
		FROM session_entries
		WHERE session_id = ? AND entry_key = ? AND expires_at > ?
	`)

	var value string
	if err := s.db.GetContext(ctx, &value, query, sessionID, key, s.now().UnixMilli()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get session entry: %w", err)
	}
	return value, nil
}

// Set upserts value and refreshes its expiry.
func (s *SQLStore) Set(ctx context.Context, sessionID, key, value string) error {
	query := s.db.Rebind(`
		INSERT INTO session_entries (id, session_id, entry_key, value, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id, entry_key)
		DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, updated_at = CURRENT_TIMESTAMP
	`)

	expiresAt := s.now().Add(s.ttl).UnixMilli()
	if _, err := s.db.ExecContext(ctx, query, uuid.NewString(), sessionID, key, value, expiresAt); err != nil {
		return fmt.Errorf("set session entry: %w", err)
	}
	return nil
}

// Remove deletes key from sessionID.
func (s *SQLStore) Remove(ctx context.Context, sessionID, key string) error {
	query := s.db.Rebind(`DELETE FROM session_entries WHERE session_id = ? AND entry_key = ?`)
	if _, err := s.db.ExecContext(ctx, query, sessionID, key); err != nil {
		return fmt.Errorf("remove session entry: %w", err)
	}
	return nil
}

// DeleteExpired removes all expired entries.
func (s *SQLStore) DeleteExpired(ctx context.Context) (int64, error) {
	query := s.db.Rebind(`DELETE FROM session_entries WHERE expires_at <= ?`)
	result, err := s.db.ExecContext(ctx, query, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired session entries: %w", err)
	}
	return result.RowsAffected()
}
