// Package memory provides in-memory key-value backends.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/scoreapi/ports"
)

// KVStore is an in-memory implementation of ports.KeyValueBackend with
// per-key expiry.
type KVStore struct {
	mu    sync.RWMutex
	clock ports.Clock
	data  map[string]entry
}

type entry struct {
	value     string
	expiresAt time.Time // zero = no expiry
}

// NewKVStore creates a new in-memory store. clock decides expiry.
func NewKVStore(clock ports.Clock) *KVStore {
	return &KVStore{
		clock: clock,
		data:  make(map[string]entry),
	}
}

// Get returns the value under key, if present and not expired.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !s.clock.Now().Before(e.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.data[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.data, key)
		}
		s.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores value under key. ttl <= 0 means no expiry.
func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.clock.Now().Add(ttl)
	}

	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored keys, expired or not.
func (s *KVStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Ping always succeeds.
func (s *KVStore) Ping(ctx context.Context) error {
	return nil
}

// Ensure interface compliance.
var (
	_ ports.KeyValueBackend = (*KVStore)(nil)
	_ ports.HealthChecker   = (*KVStore)(nil)
)
