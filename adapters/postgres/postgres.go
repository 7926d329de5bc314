// Package postgres provides a PostgreSQL key-value backend.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/artpar/scoreapi/ports"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open opens a Postgres connection using the given DSN and pings it.
// Caller must call Close when done.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the key-value table.
func Migrate(ctx context.Context, db *sql.DB) error {
	content, err := migrationsFS.ReadFile("migrations/001_kv.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	return nil
}

// KVStore implements ports.KeyValueBackend using PostgreSQL.
type KVStore struct {
	db    *sql.DB
	clock ports.Clock
}

// NewKVStore creates a new key-value store. clock decides expiry.
func NewKVStore(db *sql.DB, clock ports.Clock) *KVStore {
	return &KVStore{db: db, clock: clock}
}

// Get returns the value under key, if present and not expired.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM scoreapi_kv WHERE key = $1 AND (expires_at = 0 OR expires_at > $2)`,
		key, s.clock.Now().UnixMilli(),
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, classify("get", err)
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
		INSERT INTO scoreapi_kv (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`, key, value, expiresAt)
	if err != nil {
		return classify("set", err)
	}
	return nil
}

// Ping checks the connection.
func (s *KVStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

// classify marks connection failures, timeouts and server shutdown as
// retryable.
func classify(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("postgres %s: %v: %w", op, err, ports.ErrBackendUnavailable)
	}
	return fmt.Errorf("postgres %s: %w", op, err)
}

func isUnavailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08xxx connection exceptions, 57P0x operator intervention,
		// 53300 too many connections.
		return strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "57P0") ||
			pgErr.Code == "53300"
	}
	var netErr net.Error
	return pgconn.Timeout(err) ||
		errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Ensure interface compliance.
var (
	_ ports.KeyValueBackend = (*KVStore)(nil)
	_ ports.HealthChecker   = (*KVStore)(nil)
)
