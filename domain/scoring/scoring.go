// Package scoring provides the profile scoring rules and the store key
// layout used by the scoring service.
// This package has NO dependencies on I/O or external packages.
package scoring

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Store key prefixes.
const (
	ScorePrefix     = "uid:"
	InterestsPrefix = "i:"
)

// Weights added for each populated part of a profile.
const (
	PhoneWeight    = 1.5
	EmailWeight    = 1.5
	BirthWeight    = 1.5 // birthday and gender together
	FullNameWeight = 0.5 // first and last name together
)

// Profile is the input of a score computation (value type).
// Empty strings and the zero time mean "not given".
type Profile struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  time.Time
	Gender    string
}

// ScoreKey returns the cache key of a profile's score.
// Email and gender are not part of the key.
// This is a PURE function.
func ScoreKey(p Profile) string {
	var birthday string
	if !p.Birthday.IsZero() {
		birthday = p.Birthday.Format("20060102")
	}
	sum := md5.Sum([]byte(p.FirstName + p.LastName + p.Phone + birthday))
	return ScorePrefix + hex.EncodeToString(sum[:])
}

// Compute returns the score of a profile.
// This is a PURE function.
func Compute(p Profile) float64 {
	var score float64
	if p.Phone != "" {
		score += PhoneWeight
	}
	if p.Email != "" {
		score += EmailWeight
	}
	if !p.Birthday.IsZero() && p.Gender != "" {
		score += BirthWeight
	}
	if p.FirstName != "" && p.LastName != "" {
		score += FullNameWeight
	}
	return score
}

// FormatScore encodes a score for the store.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// ParseScore decodes a cached score. A zero, empty or malformed value
// is reported as a miss.
func ParseScore(raw string) (float64, bool) {
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil || score == 0 {
		return 0, false
	}
	return score, true
}

// InterestsKey returns the store key of a client's interests.
func InterestsKey(clientID int64) string {
	return InterestsPrefix + strconv.FormatInt(clientID, 10)
}

// DecodeInterests decodes a stored interest list. A missing value decodes
// to an empty list.
func DecodeInterests(raw string, found bool) ([]any, error) {
	if !found || raw == "" {
		return []any{}, nil
	}
	var interests []any
	if err := json.Unmarshal([]byte(raw), &interests); err != nil {
		return nil, fmt.Errorf("decode interests: %w", err)
	}
	if interests == nil {
		interests = []any{}
	}
	return interests, nil
}

// EncodeInterests encodes an interest list for the store.
func EncodeInterests(interests []string) (string, error) {
	if interests == nil {
		interests = []string{}
	}
	data, err := json.Marshal(interests)
	if err != nil {
		return "", fmt.Errorf("encode interests: %w", err)
	}
	return string(data), nil
}
