// Package hasher provides token digest implementations.
package hasher

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/artpar/scoreapi/ports"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Algorithm names accepted by New.
const (
	NameSHA512     = "sha512"
	NameSHA3512    = "sha3-512"
	NameBLAKE2b512 = "blake2b-512"
)

// SHA512 digests with SHA-512 (the default).
type SHA512 struct{}

// Name returns "sha512".
func (SHA512) Name() string { return NameSHA512 }

// Sum returns the hex SHA-512 of material.
func (SHA512) Sum(material string) string {
	sum := sha512.Sum512([]byte(material))
	return hex.EncodeToString(sum[:])
}

// SHA3512 digests with SHA3-512.
type SHA3512 struct{}

// Name returns "sha3-512".
func (SHA3512) Name() string { return NameSHA3512 }

// Sum returns the hex SHA3-512 of material.
func (SHA3512) Sum(material string) string {
	sum := sha3.Sum512([]byte(material))
	return hex.EncodeToString(sum[:])
}

// BLAKE2b512 digests with BLAKE2b-512.
type BLAKE2b512 struct{}

// Name returns "blake2b-512".
func (BLAKE2b512) Name() string { return NameBLAKE2b512 }

// Sum returns the hex BLAKE2b-512 of material.
func (BLAKE2b512) Sum(material string) string {
	sum := blake2b.Sum512([]byte(material))
	return hex.EncodeToString(sum[:])
}

// New returns the digest registered under name (case-insensitive).
func New(name string) (ports.Digest, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameSHA512:
		return SHA512{}, nil
	case NameSHA3512:
		return SHA3512{}, nil
	case NameBLAKE2b512:
		return BLAKE2b512{}, nil
	default:
		return nil, fmt.Errorf("unknown digest %q", name)
	}
}

// Names returns the supported algorithm names.
func Names() []string {
	return []string{NameSHA512, NameSHA3512, NameBLAKE2b512}
}

// Ensure interface compliance.
var (
	_ ports.Digest = SHA512{}
	_ ports.Digest = SHA3512{}
	_ ports.Digest = BLAKE2b512{}
)
