package ratelimit

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestLimiterAllow(t *testing.T) {
	clock := newFakeClock()
	limiter := New(Config{Limit: 5, Window: time.Minute}, WithClock(clock))

	for i := 0; i < 5; i++ {
		if !limiter.Allow() {
			t.Errorf("Request %d should be allowed (within limit)", i)
		}
	}

	if limiter.Allow() {
		t.Error("Request over the limit should be denied")
	}
	if got := limiter.Rejected(); got != 1 {
		t.Errorf("Expected 1 rejection, got %d", got)
	}
}

func TestLimiterWindowResets(t *testing.T) {
	clock := newFakeClock()
	limiter := New(Config{Limit: 2, Window: time.Minute}, WithClock(clock))

	limiter.Allow()
	limiter.Allow()
	if limiter.Allow() {
		t.Fatal("Third request should be denied")
	}

	clock.Advance(59 * time.Second)
	if limiter.Allow() {
		t.Error("Window has not expired yet")
	}

	clock.Advance(time.Second)
	if !limiter.Allow() {
		t.Error("Request after the window should be allowed")
	}
	if got := limiter.Remaining(); got != 1 {
		t.Errorf("Expected 1 remaining in the new window, got %d", got)
	}
}

func TestLimiterWindowAnchorsAtFirstUse(t *testing.T) {
	clock := newFakeClock()
	limiter := New(Config{Limit: 1, Window: time.Minute}, WithClock(clock))

	clock.Advance(10 * time.Minute)
	if !limiter.Allow() {
		t.Fatal("First request should be allowed")
	}
	if got := limiter.ResetIn(); got != time.Minute {
		t.Errorf("Expected window to close in 1m, got %v", got)
	}

	clock.Advance(30 * time.Second)
	if limiter.Allow() {
		t.Error("Second request in the same window should be denied")
	}
}

func TestLimiterDefaults(t *testing.T) {
	limiter := New(Config{})
	if limiter.Limit() != 60 {
		t.Errorf("Expected default limit 60, got %d", limiter.Limit())
	}
	if limiter.Remaining() != 60 {
		t.Errorf("Expected 60 remaining, got %d", limiter.Remaining())
	}
}

func TestLimiterConcurrent(t *testing.T) {
	clock := newFakeClock()
	limiter := New(Config{Limit: 60, Window: time.Minute}, WithClock(clock))

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 60 {
		t.Errorf("Expected exactly 60 allowed, got %d", allowed)
	}
	if limiter.Rejected() != 40 {
		t.Errorf("Expected 40 rejected, got %d", limiter.Rejected())
	}
}
