package codes

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	for range 20 {
		code, err := New(6)
		assert.Nil(t, err)
		assert.Len(t, code, 6)
		_, err = strconv.Atoi(code)
		assert.Nil(t, err, "code should be numeric: %s", code)
	}
}

func TestNewWithExpiry(t *testing.T) {
	code, expiresAt, err := NewWithExpiry(6, 30*time.Minute)
	assert.Nil(t, err)
	assert.Len(t, code, 6)
	assert.True(t, expiresAt.After(time.Now().UTC().Add(29*time.Minute)))
	assert.True(t, expiresAt.Before(time.Now().UTC().Add(31*time.Minute)))
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("123456", "123456"))
	assert.True(t, Matches("123456", " 123456 "))
	assert.False(t, Matches("123456", "654321"))
	assert.False(t, Matches("123456", ""))
	assert.False(t, Matches("", ""), "empty stored code never matches")
	assert.False(t, Matches("", "123456"))
}

func TestExpired(t *testing.T) {
	now := time.Now().UTC()
	assert.False(t, Expired(time.Time{}, now), "zero expiry never expires")
	assert.False(t, Expired(now.Add(time.Minute), now))
	assert.True(t, Expired(now.Add(-time.Minute), now))
}
