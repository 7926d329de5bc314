package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/artpar/scoreapi/ports"
)

// Flaky wraps a backend and fails a scripted number of calls with
// ports.ErrBackendUnavailable (for testing).
type Flaky struct {
	inner ports.KeyValueBackend

	mu       sync.Mutex
	failNext int // -1 = fail forever
	err      error
	gets     int
	sets     int
}

// NewFlaky creates a backend whose next failNext calls fail.
// A negative failNext fails every call.
func NewFlaky(inner ports.KeyValueBackend, failNext int) *Flaky {
	return &Flaky{
		inner:    inner,
		failNext: failNext,
		err:      fmt.Errorf("connection refused: %w", ports.ErrBackendUnavailable),
	}
}

// WithError replaces the injected error.
func (f *Flaky) WithError(err error) *Flaky {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

// Get counts the call and either fails or delegates.
func (f *Flaky) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	f.gets++
	fail := f.take()
	err := f.err
	f.mu.Unlock()

	if fail {
		return "", false, err
	}
	return f.inner.Get(ctx, key)
}

// Set counts the call and either fails or delegates.
func (f *Flaky) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	f.sets++
	fail := f.take()
	err := f.err
	f.mu.Unlock()

	if fail {
		return err
	}
	return f.inner.Set(ctx, key, value, ttl)
}

// take reports whether the current call should fail. Caller holds mu.
func (f *Flaky) take() bool {
	switch {
	case f.failNext < 0:
		return true
	case f.failNext > 0:
		f.failNext--
		return true
	default:
		return false
	}
}

// Calls returns the number of Get and Set calls seen.
func (f *Flaky) Calls() (gets, sets int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets, f.sets
}

// Ensure interface compliance.
var _ ports.KeyValueBackend = (*Flaky)(nil)
