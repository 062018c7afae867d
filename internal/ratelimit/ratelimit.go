// Package ratelimit implements a sliding-window admission limiter keyed by
// caller-supplied identifiers (e.g. "login_" + client IP).
package ratelimit

import (
	"sync"
	"time"
)

const (
	defaultLimit  = 5
	defaultWindow = 15 * time.Minute
)

// Limiter is the admission-control boundary consumed by the auth handlers.
// Implementations must treat the check-and-record sequence for a key as a
// single atomic unit: two concurrent calls for the same key must never both
// be admitted when only one slot remains.
type Limiter interface {
	Allow(key string, now time.Time) bool
}

// SlidingWindow is an in-process Limiter holding per-key attempt timestamps.
type SlidingWindow struct {
	mu     sync.Mutex
	events map[string][]time.Time
	limit  int
	window time.Duration
}

// NewSlidingWindow constructs a SlidingWindow with safe defaults when
// inputs are invalid.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = defaultLimit
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &SlidingWindow{
		events: make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

// Allow reports whether an attempt under key at time "now" should be
// permitted. Timestamps outside the trailing window are discarded in place;
// a rejected attempt is not recorded.
func (l *SlidingWindow) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cut := now.Add(-l.window)
	dst := l.events[key][:0]
	for _, t := range l.events[key] {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}

	if len(dst) >= l.limit {
		l.events[key] = dst
		return false
	}

	l.events[key] = append(dst, now)
	return true
}

// Prune drops keys whose every attempt has aged out of the window.
// Intended to be called periodically to bound memory on long uptimes.
func (l *SlidingWindow) Prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cut := now.Add(-l.window)
	for key, events := range l.events {
		live := false
		for _, t := range events {
			if t.After(cut) {
				live = true
				break
			}
		}
		if !live {
			delete(l.events, key)
		}
	}
}
