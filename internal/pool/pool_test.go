package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AllTasksComplete(t *testing.T) {
	p := New(2, 0)

	var count atomic.Int32
	tasks := make([]Task, 5)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			count.Add(1)
			return nil
		}
	}

	errs := p.Run(context.Background(), tasks)
	require.Len(t, errs, 5)
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(5), count.Load())
}

func TestRun_ErrorsIndexedBySubmissionOrder(t *testing.T) {
	p := New(3, 0)

	failing := assert.AnError
	tasks := []Task{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return failing },
		func(ctx context.Context) error { return nil },
	}

	errs := p.Run(context.Background(), tasks)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], failing)
	assert.NoError(t, errs[2])
}

func TestRun_TimeoutDoesNotCancelSiblings(t *testing.T) {
	p := New(2, 30*time.Millisecond)

	var slowErr, fastErr error
	tasks := []Task{
		func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
				return nil
			}
		},
		func(ctx context.Context) error {
			time.Sleep(5 * time.Millisecond)
			return nil
		},
	}

	errs := p.Run(context.Background(), tasks)
	slowErr, fastErr = errs[0], errs[1]

	assert.ErrorIs(t, slowErr, context.DeadlineExceeded)
	assert.NoError(t, fastErr)
}

func TestRun_ConcurrencyBounded(t *testing.T) {
	p := New(2, 0)

	var mu sync.Mutex
	active, peak := 0, 0
	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			return nil
		}
	}

	p.Run(context.Background(), tasks)
	assert.LessOrEqual(t, peak, 2)
}

func TestRun_EmptyBatch(t *testing.T) {
	p := New(1, time.Second)
	assert.Empty(t, p.Run(context.Background(), nil))
}

func TestRun_CanceledContext(t *testing.T) {
	p := New(1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := p.Run(ctx, []Task{func(ctx context.Context) error { return nil }})
	require.Len(t, errs, 1)
	assert.Error(t, errs[0])
}
