package security

import (
	"strings"
	"sync"
	"time"
)

// AttemptLimiter caps failed sign-in attempts per account within a window
type AttemptLimiter struct {
	mu       sync.Mutex
	accounts map[string]*attempts
	limit    int
	window   time.Duration
	now      func() time.Time
}

type attempts struct {
	failures int
	since    time.Time
}

// NewAttemptLimiter allows limit failures per window for each key
func NewAttemptLimiter(limit int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		accounts: make(map[string]*attempts),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Allow reports whether another attempt for key may be checked
func (l *AttemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune()

	a, ok := l.accounts[normalizeKey(key)]
	return !ok || a.failures < l.limit
}

// Fail records a failed attempt for key
func (l *AttemptLimiter) Fail(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key = normalizeKey(key)
	a, ok := l.accounts[key]
	if !ok || l.now().Sub(a.since) >= l.window {
		a = &attempts{since: l.now()}
		l.accounts[key] = a
	}
	a.failures++
}

// Reset forgets the failures of key, typically after a successful sign-in
func (l *AttemptLimiter) Reset(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.accounts, normalizeKey(key))
}

// prune drops windows that have expired; l.mu must be held
func (l *AttemptLimiter) prune() {
	now := l.now()
	for key, a := range l.accounts {
		if now.Sub(a.since) >= l.window {
			delete(l.accounts, key)
		}
	}
}
