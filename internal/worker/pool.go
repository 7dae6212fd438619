// Package worker provides the bounded worker pool used by the
// unsolved-query monitor to run re-checks concurrently.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work executed on a pool worker.
type Job interface {
	Run(ctx context.Context) Result
}

// Result is the outcome of one job.
type Result interface {
	Err() error
}

// Pool runs submitted jobs on a fixed number of workers.
type Pool struct {
	workers   int
	jobs      chan Job
	results   chan Result
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool with the given concurrency. Values below one
// fall back to a single worker.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers: workers,
		jobs:    make(chan Job, workers*2),
		results: make(chan Result, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			res := job.Run(p.ctx)
			select {
			case p.results <- res:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. Submissions after Stop are dropped.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- job:
	}
}

// Drain closes the queue, waits for in-flight jobs, and returns every
// collected result. The pool cannot be reused afterwards.
func (p *Pool) Drain() []Result {
	p.closeOnce.Do(func() { close(p.jobs) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	var out []Result
	for {
		select {
		case res := <-p.results:
			out = append(out, res)
		case <-done:
			for {
				select {
				case res := <-p.results:
					out = append(out, res)
				default:
					p.cancel()
					return out
				}
			}
		}
	}
}

// Stop cancels outstanding work without collecting results.
func (p *Pool) Stop() {
	p.cancel()
	p.closeOnce.Do(func() { close(p.jobs) })
	p.wg.Wait()
}
