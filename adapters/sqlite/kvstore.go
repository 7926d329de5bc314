package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/scoreapi/ports"
	"github.com/mattn/go-sqlite3"
)

// KVStore implements ports.KeyValueBackend using SQLite.
type KVStore struct {
	db    *DB
	clock ports.Clock
}

// NewKVStore creates a new key-value store. clock decides expiry.
func NewKVStore(db *DB, clock ports.Clock) *KVStore {
	return &KVStore{db: db, clock: clock}
}

// Get returns the value under key, if present and not expired.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv WHERE key = ?`,
		key,
	).Scan(&value, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, classify("get", err)
	}

	if expiresAt > 0 && s.clock.Now().UnixMilli() >= expiresAt {
		// Lazy cleanup; a failed delete only leaves a stale row behind.
		s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ? AND expires_at = ?`, key, expiresAt)
		return "", false, nil
	}
	return value, true, nil
}

// Set stores value under key. ttl <= 0 means no expiry.
func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.clock.Now().Add(ttl).UnixMilli()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, key, value, expiresAt)
	if err != nil {
		return classify("set", err)
	}
	return nil
}

// Purge deletes expired rows and returns how many were removed.
func (s *KVStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at > 0 AND expires_at <= ?`,
		s.clock.Now().UnixMilli(),
	)
	if err != nil {
		return 0, classify("purge", err)
	}
	return res.RowsAffected()
}

// Ping checks the database connection.
func (s *KVStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

// classify marks busy, locked and closed-connection errors as retryable.
func classify(op string, err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) && (serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("sqlite %s: %v: %w", op, err, ports.ErrBackendUnavailable)
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("sqlite %s: %v: %w", op, err, ports.ErrBackendUnavailable)
	}
	return fmt.Errorf("sqlite %s: %w", op, err)
}

// Ensure interface compliance.
var (
	_ ports.KeyValueBackend = (*KVStore)(nil)
	_ ports.HealthChecker   = (*KVStore)(nil)
)
