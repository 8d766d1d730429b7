// Package pool provides a sized worker pool with per-task timeouts. The
// pipeline reuses it for both the fork/join stage barrier and candidate
// enrichment, so there is no unbounded concurrency anywhere in the core.
package pool

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Task is a single unit of work submitted to the pool.
type Task func(ctx context.Context) error

// Pool runs batches of tasks with bounded concurrency. A task that exceeds
// the per-task timeout fails with context.DeadlineExceeded; it never cancels
// its siblings.
type Pool struct {
	concurrency int
	timeout     time.Duration
}

// New creates a pool. Concurrency below 1 is treated as 1; a zero timeout
// means tasks inherit only the caller's deadline.
func New(concurrency int, timeout time.Duration) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{concurrency: concurrency, timeout: timeout}
}

// Run executes all tasks and blocks until every task reaches a terminal
// state. The returned slice holds each task's error at its submission index;
// task failure never aborts the batch.
func (p *Pool) Run(ctx context.Context, tasks []Task) []error {
	errs := make([]error, len(tasks))
	if len(tasks) == 0 {
		return errs
	}

	g := &errgroup.Group{}
	g.SetLimit(p.concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			if ctx.Err() != nil {
				errs[i] = eris.Wrap(ctx.Err(), "pool: batch canceled")
				return nil
			}

			taskCtx := ctx
			if p.timeout > 0 {
				var cancel context.CancelFunc
				taskCtx, cancel = context.WithTimeout(ctx, p.timeout)
				defer cancel()
			}

			errs[i] = task(taskCtx)
			return nil
		})
	}

	_ = g.Wait()
	return errs
}
