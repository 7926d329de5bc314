// Package clock provides Clock and Sleeper implementations.
package clock

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/scoreapi/ports"
)

// Real returns the actual current time.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time {
	return time.Now()
}

// Sleep waits for d or until ctx is done.
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Fake provides a controllable clock for testing.
// Sleep returns immediately and advances the fake time.
type Fake struct {
	mu      sync.RWMutex
	current time.Time
	sleeps  []time.Duration
}

// NewFake creates a fake clock set to the given time.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Set sets the fake current time.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}

// Advance moves the fake time forward by duration d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}

// Sleep records d and advances the fake time by it.
func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	f.current = f.current.Add(d)
	return nil
}

// Sleeps returns the durations passed to Sleep.
func (f *Fake) Sleeps() []time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]time.Duration(nil), f.sleeps...)
}

// Ensure interface compliance.
var (
	_ ports.Clock   = Real{}
	_ ports.Sleeper = Real{}
	_ ports.Clock   = (*Fake)(nil)
	_ ports.Sleeper = (*Fake)(nil)
)
