package utils

import (
	"sync"
	"time"
)

// attemptInfo tracks consecutive failures of one caller.
type attemptInfo struct {
	count     int
	lastTry   time.Time
	lockUntil time.Time
}

// AttemptLimiter locks a caller out after too many consecutive failures.
// The metrics ingestion endpoint uses it per client IP against API key guessing.
type AttemptLimiter struct {
	mutex        sync.Mutex
	attempts     map[string]*attemptInfo
	maxAttempts  int
	lockDuration time.Duration
	now          func() time.Time
}

// NewAttemptLimiter allows maxAttempts failures before locking a key for lockDuration.
func NewAttemptLimiter(maxAttempts int, lockDuration time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		attempts:     make(map[string]*attemptInfo),
		maxAttempts:  maxAttempts,
		lockDuration: lockDuration,
		now:          time.Now,
	}
}

// RecordFailure counts a failure for key and reports whether key is now locked.
func (l *AttemptLimiter) RecordFailure(key string) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	l.prune(now)

	attempt, ok := l.attempts[key]
	if !ok {
		attempt = &attemptInfo{}
		l.attempts[key] = attempt
	}
	attempt.count++
	attempt.lastTry = now

	if attempt.count >= l.maxAttempts {
		attempt.lockUntil = now.Add(l.lockDuration)
		attempt.count = 0
		return true
	}
	return false
}

// Locked reports whether key is locked and for how much longer.
func (l *AttemptLimiter) Locked(key string) (bool, time.Duration) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	attempt, ok := l.attempts[key]
	if !ok {
		return false, 0
	}
	if remaining := attempt.lockUntil.Sub(l.now()); remaining > 0 {
		return true, remaining
	}
	return false, 0
}

// Reset forgets the failures of key after a success.
func (l *AttemptLimiter) Reset(key string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	delete(l.attempts, key)
}

// prune drops callers that are not locked and have been quiet for a day.
func (l *AttemptLimiter) prune(now time.Time) {
	for key, attempt := range l.attempts {
		if now.After(attempt.lockUntil) && now.Sub(attempt.lastTry) > 24*time.Hour {
			delete(l.attempts, key)
		}
	}
}
