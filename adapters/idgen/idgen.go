// Package idgen provides ID generation implementations.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/artpar/scoreapi/ports"
	"github.com/google/uuid"
)

// Hex generates random UUID v4 values as 32 hex characters without dashes.
// Used for request ids.
type Hex struct{}

// New generates a new hex-encoded UUID v4.
func (Hex) New() string {
	id := uuid.New()
	return hexString(id)
}

func hexString(id uuid.UUID) string {
	const digits = "0123456789abcdef"
	buf := make([]byte, 32)
	for i, b := range id {
		buf[i*2] = digits[b>>4]
		buf[i*2+1] = digits[b&0x0f]
	}
	return string(buf)
}

// Ensure interface compliance.
var _ ports.IDGenerator = Hex{}

// Sequential generates sequential IDs (for testing).
type Sequential struct {
	prefix  string
	counter uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New generates the next sequential ID.
func (s *Sequential) New() string {
	n := atomic.AddUint64(&s.counter, 1)
	return s.prefix + strconv.FormatUint(n, 10)
}

// Reset resets the counter (for testing).
func (s *Sequential) Reset() {
	atomic.StoreUint64(&s.counter, 0)
}

// Ensure interface compliance.
var _ ports.IDGenerator = (*Sequential)(nil)
