// Package monitor implements the node, network and organization tools: each
// fetches upstream data, filters it and derives typed results with the
// scoring package.
package monitor

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
)

// DefaultConcurrency bounds parallel snapshot fetches during ranking.
const DefaultConcurrency = 8

// Upstream is the subset of the Stellarbeat client the tools use.
type Upstream interface {
	Network(ctx context.Context, at *time.Time) (stellarbeat.Network, error)
	Nodes(ctx context.Context, at *time.Time) ([]stellarbeat.Node, error)
	Node(ctx context.Context, publicKey string, at *time.Time) (stellarbeat.Node, error)
	NodeSnapshots(ctx context.Context, publicKey string, at *time.Time) ([]stellarbeat.NodeSnapshot, error)
	Organizations(ctx context.Context, at *time.Time) ([]stellarbeat.Organization, error)
	Organization(ctx context.Context, id string, at *time.Time) (stellarbeat.Organization, error)
	OrganizationSnapshots(ctx context.Context, id string, at *time.Time) ([]stellarbeat.OrganizationSnapshot, error)
}

// Option configures a Service.
type Option func(*options)

type options struct {
	concurrency int
}

// WithConcurrency sets the worker count of the snapshot fetch pool.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// Service runs the read-only monitoring tools against one upstream.
type Service struct {
	up   Upstream
	pool pond.Pool
}

// NewService creates a Service. Close releases its worker pool.
func NewService(up Upstream, opts ...Option) *Service {
	o := options{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		up:   up,
		pool: pond.NewPool(o.concurrency),
	}
}

// Close waits for in-flight fetches and stops the worker pool.
func (s *Service) Close() {
	s.pool.StopAndWait()
}
