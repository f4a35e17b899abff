// Package health provides a registry of named subsystem health checkers.
package health

import (
	"context"
	"fmt"
	"sync"
)

// Status represents the health of a single subsystem.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker is a function that checks the health of a subsystem.
type Checker func(ctx context.Context) Status

// Registry holds named health checkers and runs them on demand.
type Registry struct {
	mu       sync.RWMutex
	checkers []namedChecker
}

type namedChecker struct {
	name  string
	check Checker
}

// NewRegistry creates a new health check registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a named health checker.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	r.checkers = append(r.checkers, namedChecker{name: name, check: check})
	r.mu.Unlock()
}

// CheckAll runs all registered checkers and returns the aggregate health
// status plus individual subsystem results.
func (r *Registry) CheckAll(ctx context.Context) (healthy bool, statuses []Status) {
	r.mu.RLock()
	checkers := make([]namedChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	healthy = true
	statuses = make([]Status, len(checkers))

	for i, nc := range checkers {
		statuses[i] = nc.check(ctx)
		if statuses[i].Name == "" {
			statuses[i].Name = nc.name
		}
		if !statuses[i].Healthy {
			healthy = false
		}
	}

	return healthy, statuses
}

// OutcomeSource reports the result of the most recent upstream request.
type OutcomeSource interface {
	LastOutcome() (ok bool, detail string)
}

// UpstreamChecker reports unhealthy while the latest upstream request failed
// at the transport or server level. It never issues a request itself, so
// probing health does not spend rate-limit budget.
func UpstreamChecker(name string, src OutcomeSource) Checker {
	return func(_ context.Context) Status {
		ok, detail := src.LastOutcome()
		return Status{Name: name, Healthy: ok, Detail: detail}
	}
}

// BudgetSource exposes the remaining request budget of a limiter.
type BudgetSource interface {
	Remaining() int
	Limit() int
	Rejected() uint64
}

// RateLimitChecker reports unhealthy once the request budget is exhausted.
func RateLimitChecker(name string, src BudgetSource) Checker {
	return func(_ context.Context) Status {
		remaining := src.Remaining()
		return Status{
			Name:    name,
			Healthy: remaining > 0,
			Detail:  fmt.Sprintf("%d/%d requests remaining in window, %d rejected", remaining, src.Limit(), src.Rejected()),
		}
	}
}
