package ratelim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiter_BurstPerKey(t *testing.T) {
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	l := New(1, 2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a@example.com"))
	assert.True(t, l.Allow("a@example.com"))
	assert.False(t, l.Allow("a@example.com"))

	// другой ключ не зависит от первого
	assert.True(t, l.Allow("b@example.com"))

	now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("a@example.com"))
}

func TestKeyedLimiter_ForgetsIdleKeys(t *testing.T) {
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	l := New(1, 1, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	now = now.Add(2 * time.Minute)
	l.Allow("b")

	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.visitors["a"]
	assert.False(t, ok)
}
