// Package workerpool wraps an ants pool behind the small fixed-size worker
// group the enrichment pipeline uses for poster lookups: a handful of
// workers pulling from a shared queue, capping concurrent outbound calls
// independent of batch size.
package workerpool

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Pool is a fixed-size worker pool with batch-wait support.
type Pool struct {
	pool   *ants.Pool
	logger *zap.Logger

	submitted int64
	completed int64
	failed    int64
}

// New creates a pool running at most size tasks concurrently. Submission
// blocks when all workers are busy, which is the backpressure the poster
// pipeline relies on.
func New(size int, logger *zap.Logger) (*Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	antsPool, err := ants.NewPool(size,
		ants.WithNonblocking(false),
		ants.WithPanicHandler(func(v interface{}) {
			logger.Error("worker panic", zap.Any("panic", v))
		}),
	)
	if err != nil {
		return nil, err
	}

	return &Pool{pool: antsPool, logger: logger}, nil
}

// Submit queues task for execution.
func (p *Pool) Submit(task func()) error {
	atomic.AddInt64(&p.submitted, 1)
	err := p.pool.Submit(func() {
		task()
		atomic.AddInt64(&p.completed, 1)
	})
	if err != nil {
		atomic.AddInt64(&p.failed, 1)
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
	}
	return err
}

// RunBatch submits one task per call and blocks until every task in the
// batch has finished. Tasks beyond the pool size queue behind the workers.
func (p *Pool) RunBatch(tasks []func()) error {
	var wg sync.WaitGroup
	var firstErr error

	for _, task := range tasks {
		task := task
		wg.Add(1)
		err := p.Submit(func() {
			defer wg.Done()
			task()
		})
		if err != nil {
			wg.Done()
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	wg.Wait()
	return firstErr
}

// Running reports the number of tasks currently executing.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Stats returns submitted/completed/failed counters.
func (p *Pool) Stats() (submitted, completed, failed int64) {
	return atomic.LoadInt64(&p.submitted), atomic.LoadInt64(&p.completed), atomic.LoadInt64(&p.failed)
}

// Shutdown releases the workers. Pending submissions fail afterwards.
func (p *Pool) Shutdown() {
	p.pool.Release()
}
