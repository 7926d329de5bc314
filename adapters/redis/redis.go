// Package redis provides a Redis key-value backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/artpar/scoreapi/ports"
	goredis "github.com/redis/go-redis/v9"
)

// Options configures the Redis connection.
type Options struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int // 0 = go-redis default
}

// KVStore implements ports.KeyValueBackend using Redis.
type KVStore struct {
	client goredis.UniversalClient
}

// New connects to Redis. The client does not retry on its own; retries
// belong to the store facade.
func New(opts Options) *KVStore {
	client := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
		MaxRetries:   -1,
	})
	return &KVStore{client: client}
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient) *KVStore {
	return &KVStore{client: client}
}

// Get returns the value under key.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, classify("get", err)
	}
	return value, true, nil
}

// Set stores value under key. ttl <= 0 means no expiry.
func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return classify("set", err)
	}
	return nil
}

// Ping checks the connection.
func (s *KVStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return classify("ping", err)
	}
	return nil
}

// Close closes the client.
func (s *KVStore) Close() error {
	return s.client.Close()
}

// classify marks connection and timeout failures as retryable.
func classify(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("redis %s: %v: %w", op, err, ports.ErrBackendUnavailable)
	}
	return fmt.Errorf("redis %s: %w", op, err)
}

// go-redis keeps its pool timeout error internal.
const poolTimeoutText = "redis: connection pool timeout"

func isUnavailable(err error) bool {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	case errors.Is(err, goredis.ErrClosed):
		return true
	case strings.Contains(err.Error(), poolTimeoutText):
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		return false
	}
}

// Ensure interface compliance.
var (
	_ ports.KeyValueBackend = (*KVStore)(nil)
	_ ports.HealthChecker   = (*KVStore)(nil)
)
