package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/artpar/scoreapi/ports"
	goredis "github.com/redis/go-redis/v9"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{"eof", io.EOF, true},
		{"wrapped eof", fmt.Errorf("read: %w", io.EOF), true},
		{"client closed", goredis.ErrClosed, true},
		{"pool timeout", errors.New("redis: connection pool timeout"), true},
		{"wrapped pool timeout", fmt.Errorf("get: %w", errors.New("redis: connection pool timeout")), true},
		{"deadline", context.DeadlineExceeded, true},
		{"server error", errors.New("WRONGTYPE Operation against a key holding the wrong kind of value"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("get", tt.err)
			if got := errors.Is(err, ports.ErrBackendUnavailable); got != tt.unavailable {
				t.Errorf("unavailable = %v, want %v (err %v)", got, tt.unavailable, err)
			}
			if !errors.Is(err, tt.err) && !tt.unavailable {
				t.Errorf("non-retryable error should wrap the cause, got %v", err)
			}
		})
	}
}
