package auth

import (
	"sync"
	"time"
)

const (
	DefaultMaxAttempts   = 5
	DefaultLockoutWindow = 15 * time.Minute

	// UnknownClient is the shared bucket for requests with no usable address.
	UnknownClient = "unknown"

	sweepInterval = time.Minute
)

// attemptRecord tracks the current failure streak for one client.
type attemptRecord struct {
	failures    int
	windowStart time.Time
}

// RateLimiter is an in-memory, per-client limiter for failed login attempts.
// Only failures count: a client is locked out once it reaches maxAttempts
// failures inside a window that starts at the first failure of the streak.
type RateLimiter struct {
	mu          sync.Mutex
	records     map[string]*attemptRecord
	maxAttempts int
	window      time.Duration
	lastSweep   time.Time
	now         func() time.Time // for testing
}

// NewRateLimiter creates a limiter that blocks a client after maxAttempts
// failures within window. Non-positive values fall back to the defaults.
func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultLockoutWindow
	}
	return &RateLimiter{
		records:     make(map[string]*attemptRecord),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Allow reports whether the client may attempt a login. When it may not, the
// returned duration is how long until the current window expires.
func (rl *RateLimiter) Allow(client string) (allowed bool, retryAfter time.Duration) {
	client = normalizeClient(client)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.maybeSweep(now)

	rec, ok := rl.records[client]
	if !ok {
		return true, 0
	}

	elapsed := now.Sub(rec.windowStart)
	if elapsed >= rl.window {
		delete(rl.records, client)
		return true, 0
	}

	if rec.failures < rl.maxAttempts {
		return true, 0
	}

	return false, rl.window - elapsed
}

// Begin checks and reserves an attempt under one lock. An allowed attempt is
// counted as a failure up front, so concurrent attempts can never exceed the
// slots left in the window; call Clear when the attempt succeeds.
func (rl *RateLimiter) Begin(client string) (allowed bool, retryAfter time.Duration) {
	client = normalizeClient(client)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.maybeSweep(now)

	rec, ok := rl.records[client]
	if !ok || now.Sub(rec.windowStart) >= rl.window {
		rl.records[client] = &attemptRecord{failures: 1, windowStart: now}
		return true, 0
	}

	if rec.failures >= rl.maxAttempts {
		return false, rl.window - now.Sub(rec.windowStart)
	}

	rec.failures++
	return true, 0
}

// RecordFailure counts a failed attempt, starting a new window if the client
// has no active one.
func (rl *RateLimiter) RecordFailure(client string) {
	client = normalizeClient(client)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.maybeSweep(now)

	rec, ok := rl.records[client]
	if !ok || now.Sub(rec.windowStart) >= rl.window {
		rl.records[client] = &attemptRecord{failures: 1, windowStart: now}
		return
	}
	rec.failures++
}

// Clear removes all tracking state for the client. Call this after a
// successful login.
func (rl *RateLimiter) Clear(client string) {
	client = normalizeClient(client)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.records, client)
}

// Failures returns the failure count in the client's active window.
func (rl *RateLimiter) Failures(client string) int {
	client = normalizeClient(client)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.records[client]
	if !ok || rl.now().Sub(rec.windowStart) >= rl.window {
		return 0
	}
	return rec.failures
}

// Sweep drops every record whose window has expired and returns how many
// were removed.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.sweep(rl.now())
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.records)
}

// maybeSweep runs sweep at most once per sweepInterval.
// Must be called with rl.mu held.
func (rl *RateLimiter) maybeSweep(now time.Time) {
	if now.Sub(rl.lastSweep) < sweepInterval {
		return
	}
	rl.sweep(now)
}

// Must be called with rl.mu held.
func (rl *RateLimiter) sweep(now time.Time) int {
	removed := 0
	for client, rec := range rl.records {
		if now.Sub(rec.windowStart) >= rl.window {
			delete(rl.records, client)
			removed++
		}
	}
	rl.lastSweep = now
	return removed
}

func normalizeClient(client string) string {
	if client == "" {
		return UnknownClient
	}
	return client
}
