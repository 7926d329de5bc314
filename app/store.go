package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/artpar/scoreapi/ports"
	"github.com/rs/zerolog"
)

// Store operation names used in logs and metrics.
const (
	OpGet      = "get"
	OpCacheGet = "cache_get"
	OpCacheSet = "cache_set"
)

// RetryPolicy bounds the attempts made for one store operation.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration // fixed wait between attempts
}

// DefaultRetryPolicy returns 3 attempts with a 200ms backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 200 * time.Millisecond}
}

// StoreDeps contains dependencies for StoreService.
type StoreDeps struct {
	Backend  ports.KeyValueBackend
	Sleeper  ports.Sleeper
	Observer ports.StoreObserver // optional
}

// StoreService wraps a key-value backend with bounded retry.
// Backend failures are never returned to the caller.
type StoreService struct {
	backend  ports.KeyValueBackend
	sleeper  ports.Sleeper
	observer ports.StoreObserver
	logger   zerolog.Logger

	// Dynamic configuration (hot-reloadable)
	policy atomic.Pointer[RetryPolicy]
}

// NewStoreService creates a new store facade.
func NewStoreService(deps StoreDeps, policy RetryPolicy, logger zerolog.Logger) *StoreService {
	s := &StoreService{
		backend:  deps.Backend,
		sleeper:  deps.Sleeper,
		observer: deps.Observer,
		logger:   logger,
	}
	s.UpdatePolicy(policy)
	return s
}

// UpdatePolicy replaces the retry policy.
// This is thread-safe and can be called while handling requests.
func (s *StoreService) UpdatePolicy(p RetryPolicy) {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	s.policy.Store(&p)
}

// Policy returns the current retry policy.
func (s *StoreService) Policy() RetryPolicy {
	return *s.policy.Load()
}

// Get reads key. An exhausted backend reads as a miss.
func (s *StoreService) Get(ctx context.Context, key string) (string, bool) {
	return s.read(ctx, OpGet, key)
}

// CacheGet reads a cached key. An exhausted backend reads as a miss.
func (s *StoreService) CacheGet(ctx context.Context, key string) (string, bool) {
	return s.read(ctx, OpCacheGet, key)
}

// CacheSet writes a cached key and reports whether the write succeeded.
func (s *StoreService) CacheSet(ctx context.Context, key, value string, ttl time.Duration) bool {
	err := s.do(ctx, OpCacheSet, key, func(ctx context.Context) error {
		return s.backend.Set(ctx, key, value, ttl)
	})
	return err == nil
}

func (s *StoreService) read(ctx context.Context, op, key string) (string, bool) {
	var (
		value string
		found bool
	)
	err := s.do(ctx, op, key, func(ctx context.Context) error {
		var err error
		value, found, err = s.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		return "", false
	}
	return value, found
}

// do runs call until it succeeds, fails with a non-retryable error, or the
// policy is exhausted. Only ports.ErrBackendUnavailable is retried.
func (s *StoreService) do(ctx context.Context, op, key string, call func(context.Context) error) error {
	policy := s.Policy()

	var err error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err = call(ctx)
		if err == nil {
			s.observe(op, "ok")
			return nil
		}

		if !errors.Is(err, ports.ErrBackendUnavailable) {
			s.observe(op, "error")
			s.logger.Error().Err(err).Str("op", op).Str("key", key).Msg("store call failed")
			return err
		}

		s.observe(op, "unavailable")
		s.logger.Debug().Err(err).Str("op", op).Str("key", key).Int("attempt", attempt).Msg("store attempt failed")

		// A failed attempt always waits, so an outage costs MaxAttempts*Backoff.
		if serr := s.sleeper.Sleep(ctx, policy.Backoff); serr != nil {
			err = serr
			break
		}
	}

	if s.observer != nil {
		s.observer.StoreExhausted(op)
	}
	s.logger.Warn().Err(err).Str("op", op).Str("key", key).Int("attempts", policy.MaxAttempts).Msg("store unavailable, giving up")
	return err
}

func (s *StoreService) observe(op, result string) {
	if s.observer != nil {
		s.observer.StoreAttempt(op, result)
	}
}

// Ensure interface compliance.
var _ ports.Store = (*StoreService)(nil)
