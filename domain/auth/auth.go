// Package auth provides token derivation and checking for method callers.
// This package has NO dependencies on I/O or external packages.
package auth

import (
	"crypto/subtle"
	"time"
)

// HourLayout is the timestamp prefix of an admin token (YYYYMMDDHH).
const HourLayout = "2006010215"

// Reasons reported for a failed check.
const (
	ReasonMissingToken = "missing_token"
	ReasonBadToken     = "bad_token"
)

// Digest maps token material to its hex-encoded token.
type Digest func(material string) string

// Secrets holds the server-side token secrets.
type Secrets struct {
	Salt       string // shared secret for regular callers
	AdminLogin string
	AdminSalt  string
}

// Credentials identifies a caller (value type).
type Credentials struct {
	Account string
	Login   string
	Token   string
}

// Result represents the outcome of a token check (value type).
type Result struct {
	Valid  bool
	Admin  bool
	Reason string
}

// IsAdmin reports whether login names the admin caller.
func IsAdmin(login string, s Secrets) bool {
	return login == s.AdminLogin
}

// Material returns the string that is digested into the expected token.
// Admin material depends only on the clock hour; regular material depends
// only on account and login.
// This is a PURE function.
func Material(c Credentials, s Secrets, now time.Time) string {
	if IsAdmin(c.Login, s) {
		return now.Format(HourLayout) + s.AdminSalt
	}
	return c.Account + c.Login + s.Salt
}

// ExpectedToken returns the token a caller must present at now.
// This is a PURE function.
func ExpectedToken(c Credentials, s Secrets, now time.Time, digest Digest) string {
	return digest(Material(c, s, now))
}

// Check compares the supplied token with the expected one in constant time.
// This is a PURE function.
func Check(c Credentials, s Secrets, now time.Time, digest Digest) Result {
	admin := IsAdmin(c.Login, s)
	if c.Token == "" {
		return Result{Admin: admin, Reason: ReasonMissingToken}
	}

	expected := ExpectedToken(c, s, now, digest)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(c.Token)) != 1 {
		return Result{Admin: admin, Reason: ReasonBadToken}
	}
	return Result{Valid: true, Admin: admin}
}
