// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/paper-harvest/internal/metrics"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 10

// Pool bounds the number of units running at once. One Pool is shared by
// every query a Pipeline processes.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool returns a pool with size slots; size < 1 uses DefaultWorkers.
func NewPool(size int) *Pool {
	if size < 1 {
		size = DefaultWorkers
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of worker slots.
func (p *Pool) Size() int { return p.size }

// Submit blocks until a slot is free, then runs fn on g. It fails only
// when ctx ends first, in which case fn never runs.
func (p *Pool) Submit(ctx context.Context, g *errgroup.Group, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	metrics.InFlight.Inc()
	g.Go(func() error {
		defer p.sem.Release(1)
		defer metrics.InFlight.Dec()
		fn()
		return nil
	})
	return nil
}
