package worker

import (
	"context"
	stderrors "errors"

	"golang.org/x/sync/errgroup"
)

// Claimer hands out units of work. Claim returns (zero, false, nil) once
// nothing is left.
type Claimer[P any] interface {
	Claim(ctx context.Context) (P, bool, error)
}

// Pool describes a set of workers for one query run.
type Pool struct {
	Workers int
	// OnStart and OnStop run on the worker goroutine as it begins and ends.
	OnStart func(id int)
	OnStop  func(id int)

	stats Stats
}

// Stats returns the live instrumentation for the pool.
func (p *Pool) Stats() *Stats { return &p.stats }

// Run starts pool.Workers goroutines that claim from src and call fn for each
// claimed unit until src is exhausted or ctx ends. fn must check ctx between
// elements; Run never interrupts it.
//
// Context errors from Claim end a worker quietly. Any other claim error is
// returned after every worker has stopped, and cancels the others' context.
func Run[P any](ctx context.Context, pool *Pool, src Claimer[P], fn func(ctx context.Context, worker int, p P)) error {
	workers := max(pool.Workers, 1)
	g, gctx := errgroup.WithContext(ctx)
	for id := 0; id < workers; id++ {
		g.Go(func() error {
			pool.stats.started.Inc()
			if pool.OnStart != nil {
				pool.OnStart(id)
			}
			if pool.OnStop != nil {
				defer pool.OnStop(id)
			}
			return drain(gctx, pool, id, src, fn)
		})
	}
	return g.Wait()
}

func drain[P any](ctx context.Context, pool *Pool, id int, src Claimer[P], fn func(context.Context, int, P)) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		p, ok, err := src.Claim(ctx)
		if err != nil {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if !ok {
			return nil
		}
		pool.stats.enter()
		fn(ctx, id, p)
		pool.stats.leave()
	}
}
