// Package worker runs jobs on a fixed set of goroutines fed by a bounded
// queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrStopped is returned when a job is submitted after Stop.
var ErrStopped = errors.New("worker: pool stopped")

// Job is one unit of work. ID is only used for logging.
type Job struct {
	ID  string
	Run func(ctx context.Context) error
}

// Pool manages background workers for queued jobs.
type Pool struct {
	workers int
	jobs    chan Job
	logger  *zap.Logger

	mu        sync.RWMutex
	stopped   bool
	done      chan struct{}
	senders   sync.WaitGroup
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPool creates a worker pool with the given worker count and queue size.
// Values below one are raised to one.
func NewPool(workers int, queueSize int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		workers: workers,
		jobs:    make(chan Job, queueSize),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Workers returns the number of goroutines Start launches.
func (p *Pool) Workers() int { return p.workers }

// Start launches the worker goroutines. Every job receives ctx.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(ctx, job)
			}
		}()
	}
}

// Stop releases blocked submitters, closes the queue and waits for queued
// jobs to finish. It is safe to call more than once.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.done)
	}
	p.mu.Unlock()

	// The queue is closed only once no Submit can still send on it.
	p.senders.Wait()
	p.closeOnce.Do(func() { close(p.jobs) })
	p.wg.Wait()
}

// Submit queues a job, blocking while the queue is full. A blocked Submit
// returns ErrStopped once Stop is called.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	if p.stopped {
		p.mu.RUnlock()
		return ErrStopped
	}
	p.senders.Add(1)
	p.mu.RUnlock()
	defer p.senders.Done()

	select {
	case p.jobs <- job:
		return nil
	case <-p.done:
		return ErrStopped
	case <-ctx.Done():
		return fmt.Errorf("worker: submit %s: %w", job.ID, ctx.Err())
	}
}

// TrySubmit queues a job without blocking. A full queue drops the job.
func (p *Pool) TrySubmit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	default:
		p.logger.Warn("dropping job", zap.String("job_id", job.ID))
		return false
	}
}

func (p *Pool) processJob(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked", zap.String("job_id", job.ID), zap.Any("panic", r))
		}
	}()
	if err := ctx.Err(); err != nil {
		p.logger.Debug("skipping job", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	if err := job.Run(ctx); err != nil {
		p.logger.Warn("job failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	p.logger.Debug("job processed", zap.String("job_id", job.ID))
}
