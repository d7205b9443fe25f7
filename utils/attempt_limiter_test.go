package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttemptLimiter(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewAttemptLimiter(3, 15*time.Minute)
	limiter.now = func() time.Time { return now }

	assert.False(t, limiter.RecordFailure("10.0.0.1"))
	assert.False(t, limiter.RecordFailure("10.0.0.1"))
	locked, _ := limiter.Locked("10.0.0.1")
	assert.False(t, locked)

	assert.True(t, limiter.RecordFailure("10.0.0.1"))
	locked, remaining := limiter.Locked("10.0.0.1")
	assert.True(t, locked)
	assert.Equal(t, 15*time.Minute, remaining)

	other, _ := limiter.Locked("10.0.0.2")
	assert.False(t, other, "keys are independent")

	now = now.Add(16 * time.Minute)
	locked, _ = limiter.Locked("10.0.0.1")
	assert.False(t, locked, "lock expires")
}

func TestAttemptLimiter_Reset(t *testing.T) {
	limiter := NewAttemptLimiter(2, time.Minute)

	limiter.RecordFailure("k")
	limiter.Reset("k")

	assert.False(t, limiter.RecordFailure("k"), "count restarts after reset")
}

func TestAttemptLimiter_PrunesQuietCallers(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewAttemptLimiter(5, time.Minute)
	limiter.now = func() time.Time { return now }

	limiter.RecordFailure("old")
	now = now.Add(25 * time.Hour)
	limiter.RecordFailure("new")

	assert.NotContains(t, limiter.attempts, "old")
	assert.Contains(t, limiter.attempts, "new")
}
