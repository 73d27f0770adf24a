package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool runs index-addressed tasks on a fixed budget of goroutines. It is
// built once and exposes a single map operation with a submit-all → join
// lifecycle: Map feeds every index into a shared queue, the workers drain it,
// and Map returns after all of them finish. A worker error (or context
// cancellation) stops the remaining workers and surfaces as Map's return
// value, so a failed task can never be silently dropped.
type Pool struct {
	workers int
}

// NewPool returns a pool with the given worker budget. Budgets below 1 are
// raised to 1, which degrades to a plain sequential loop.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers reports the pool's worker budget.
func (p *Pool) Workers() int { return p.workers }

// Map invokes fn(ctx, i) for every i in [0, n), at most p.workers at a time,
// and waits for completion. The first error cancels the context the workers
// receive and is returned.
func (p *Pool) Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}

	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	g, ctx := errgroup.WithContext(ctx)
	workers := p.workers
	if workers > n {
		workers = n
	}
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				// Checked first so cancellation wins over a still
				// non-empty queue.
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case i, ok := <-jobs:
					if !ok {
						return nil
					}
					if err := fn(ctx, i); err != nil {
						return err
					}
				}
			}
		})
	}
	return g.Wait()
}
