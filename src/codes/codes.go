// Package codes issues the short numeric verification codes exchanged
// between customer and provider to gate job start and completion.
package codes

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// New returns a zero-padded numeric code of the given length.
func New(length int) (string, error) {
	max := big.NewInt(1)
	for range length {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

func NewWithExpiry(length int, ttl time.Duration) (string, time.Time, error) {
	code, err := New(length)
	if err != nil {
		return "", time.Time{}, err
	}
	return code, time.Now().UTC().Add(ttl), nil
}

// Matches reports whether a submitted code equals the stored one. Exact
// string comparison after trimming; no partial or fuzzy matching.
func Matches(stored, submitted string) bool {
	stored = strings.TrimSpace(stored)
	return stored != "" && strings.TrimSpace(submitted) == stored
}

func Expired(expiresAt time.Time, now time.Time) bool {
	return !expiresAt.IsZero() && now.After(expiresAt)
}
