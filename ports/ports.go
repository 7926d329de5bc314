// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/scoreapi/domain/scoring"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// Sleeper blocks for a duration. It returns early with ctx.Err() when
// ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Digest hashes token material.
type Digest interface {
	// Name returns the algorithm name (e.g. "sha512").
	Name() string

	// Sum returns the hex-encoded digest of material.
	Sum(material string) string
}

// -----------------------------------------------------------------------------
// Key-Value Ports
// -----------------------------------------------------------------------------

// ErrBackendUnavailable marks a backend failure that may succeed when
// retried (connection refused, timeout, busy database).
// Adapters wrap it; callers test with errors.Is.
var ErrBackendUnavailable = errors.New("backend unavailable")

// KeyValueBackend is a raw string key-value engine.
// A missing key is reported as found=false with a nil error.
// Implementations must be safe for concurrent use.
type KeyValueBackend interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// HealthChecker is implemented by backends that can report readiness.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Store is the retrying facade used by business logic.
// None of its methods return errors; an exhausted backend reads as a miss
// and a failed write reports false.
type Store interface {
	// Get reads a value the caller can live without.
	Get(ctx context.Context, key string) (string, bool)

	// CacheGet reads a cached value.
	CacheGet(ctx context.Context, key string) (string, bool)

	// CacheSet writes a cached value and reports whether it was stored.
	CacheSet(ctx context.Context, key, value string, ttl time.Duration) bool
}

// StoreObserver receives store facade events (for metrics).
type StoreObserver interface {
	// StoreAttempt is called after every backend call.
	// result is "ok", "unavailable" or "error".
	StoreAttempt(op, result string)

	// StoreExhausted is called when an operation gives up.
	StoreExhausted(op string)
}

// -----------------------------------------------------------------------------
// Business Collaborator Ports
// -----------------------------------------------------------------------------

// Scorer computes scores and looks up client interests.
type Scorer interface {
	// Score returns the score of a profile, using the store as a cache.
	Score(ctx context.Context, p scoring.Profile) float64

	// Interests returns the interest list of a client.
	Interests(ctx context.Context, clientID int64) ([]any, error)
}
