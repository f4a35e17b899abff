// Package ratelimit provides the process-wide request budget for calls to
// the upstream monitoring API.
package ratelimit

import (
	"sync"
	"time"
)

// Config configures rate limiting
type Config struct {
	// Limit is the max number of requests per window
	Limit int
	// Window is the length of one counting window
	Window time.Duration
}

// DefaultConfig returns the upstream's published budget
func DefaultConfig() Config {
	return Config{
		Limit:  60,
		Window: time.Minute,
	}
}

// Clock abstracts time for tests
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures a Limiter
type Option func(*Limiter)

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(l *Limiter) {
		l.clock = c
	}
}

// Limiter counts requests in a window that starts at the first request
// after the previous window expired. Requests over the limit are rejected
// immediately, never queued.
type Limiter struct {
	cfg   Config
	clock Clock

	mu          sync.Mutex
	windowStart time.Time
	count       int
	rejected    uint64
}

// New creates a new rate limiter
func New(cfg Config, opts ...Option) *Limiter {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultConfig().Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	l := &Limiter{cfg: cfg, clock: systemClock{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether one more request fits in the current window and,
// if so, counts it.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.roll(now)

	if l.count >= l.cfg.Limit {
		l.rejected++
		return false
	}
	if l.windowStart.IsZero() {
		l.windowStart = now
	}
	l.count++
	return true
}

// Remaining returns how many requests are left in the current window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll(l.clock.Now())
	return l.cfg.Limit - l.count
}

// ResetIn returns the time until the current window closes. Zero when no
// window is open.
func (l *Limiter) ResetIn() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.roll(now)
	if l.windowStart.IsZero() {
		return 0
	}
	return l.windowStart.Add(l.cfg.Window).Sub(now)
}

// Rejected returns how many requests were turned away since creation.
func (l *Limiter) Rejected() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rejected
}

// Limit returns the configured per-window limit.
func (l *Limiter) Limit() int {
	return l.cfg.Limit
}

// roll closes the current window once it has expired. The next allowed
// request opens a new one. Caller must hold l.mu.
func (l *Limiter) roll(now time.Time) {
	if l.windowStart.IsZero() {
		return
	}
	if now.Sub(l.windowStart) >= l.cfg.Window {
		l.windowStart = time.Time{}
		l.count = 0
	}
}
