// Package ratelimit provides a fixed-window request limiter keyed by
// client address. Each address gets a counter that resets when its
// window elapses; requests beyond the per-window quota are rejected.
//
// State is held in memory only. A restart clears all counters, which
// is acceptable for a single-process deployment.
package ratelimit

import (
	"sync"
	"time"
)

// Default limiter parameters.
const (
	// DefaultWindow is the length of one counting window.
	DefaultWindow = time.Minute

	// DefaultLimit is the number of requests allowed per window.
	DefaultLimit = 100
)

// window tracks request counts for one client address.
type window struct {
	count     int
	expiresAt time.Time
}

// Limiter is a fixed-window rate limiter keyed by client address.
// Safe for concurrent use.
type Limiter struct {
	limit   int
	span    time.Duration
	mu      sync.Mutex
	windows map[string]*window
}

// New creates a limiter allowing limit requests per span.
// Non-positive arguments fall back to the defaults.
func New(limit int, span time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if span <= 0 {
		span = DefaultWindow
	}
	return &Limiter{
		limit:   limit,
		span:    span,
		windows: make(map[string]*window),
	}
}

// Result describes the outcome of a limiter check.
type Result struct {
	Allowed bool

	// RetryAfter is how long until the window resets. Only meaningful
	// when the request was rejected.
	RetryAfter time.Duration
}

// Check records a request from addr at time now and reports whether it
// is within the current window's quota. An expired window is replaced
// by a fresh one, so the counter starts again at 1.
func (l *Limiter) Check(addr string, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[addr]
	if !ok || !now.Before(w.expiresAt) {
		l.windows[addr] = &window{count: 1, expiresAt: now.Add(l.span)}
		return Result{Allowed: true}
	}

	if w.count >= l.limit {
		return Result{Allowed: false, RetryAfter: w.expiresAt.Sub(now)}
	}

	w.count++
	return Result{Allowed: true}
}

// Sweep removes windows that expired before now. Returns the number of
// entries removed.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for addr, w := range l.windows {
		if !now.Before(w.expiresAt) {
			delete(l.windows, addr)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked addresses.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Limit returns the per-window request quota.
func (l *Limiter) Limit() int {
	return l.limit
}

// Window returns the window span.
func (l *Limiter) Window() time.Duration {
	return l.span
}
