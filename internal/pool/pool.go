// Package pool implements the fixed-size worker pool used to parallelize
// file copy, transcode, and per-file JSON compilation. Submission returns a
// Future on the task's error result; waiting on every returned Future is the
// barrier between pipeline stages.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// Future is the pending result of a submitted task.
type Future struct {
	done chan struct{}
	err  error
}

// Wait blocks until the task has run and returns its error.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

// Pool is a fixed-size worker pool. Tasks are plain funcs returning an
// error; they run in FIFO order across the workers.
type Pool struct {
	tasks   chan func()
	wg      sync.WaitGroup
	logger  *slog.Logger
	stopped sync.Once
	size    int
}

// DefaultSize returns the worker count used when --thread is not given.
func DefaultSize() int {
	return runtime.NumCPU()
}

// New creates and starts a pool with the given worker count. A non-positive
// count is an error.
func New(size int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("thread count must be positive, got %d", size)
	}
	p := &Pool{
		tasks:  make(chan func(), size*2),
		logger: slog.Default().With("component", "pool"),
		size:   size,
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.work()
	}
	p.logger.Debug("worker pool started", "workers", size)
	return p, nil
}

// Size returns the worker count.
func (p *Pool) Size() int {
	return p.size
}

func (p *Pool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit enqueues a task and returns its Future. Submitting after Stop
// panics, mirroring a send on a closed channel; stages hold the pool for
// their whole lifetime so this does not occur in normal operation.
func (p *Pool) Submit(task func() error) *Future {
	f := &Future{done: make(chan struct{})}
	p.tasks <- func() {
		defer close(f.done)
		f.err = task()
	}
	return f
}

// SubmitCtx enqueues a task that is skipped with the context error if ctx is
// already cancelled when a worker picks it up.
func (p *Pool) SubmitCtx(ctx context.Context, task func(context.Context) error) *Future {
	return p.Submit(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return task(ctx)
	})
}

// Go runs task on its own goroutine, outside the worker budget, and
// returns its Future. Stage drivers that submit and wait on pool tasks use
// this so they never occupy the worker they are waiting for.
func Go(task func() error) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.err = task()
	}()
	return f
}

// Stop drains the queue and joins every worker. It is idempotent.
func (p *Pool) Stop() {
	p.stopped.Do(func() {
		close(p.tasks)
		p.wg.Wait()
		p.logger.Debug("worker pool stopped")
	})
}

// WaitAll waits on a batch of futures and returns the first non-nil error
// it observes, after all futures have completed.
func WaitAll(futures []*Future) error {
	var first error
	for _, f := range futures {
		if err := f.Wait(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
