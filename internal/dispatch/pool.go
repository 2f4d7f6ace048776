// Package dispatch runs storage writes on a shared background pool. Callers
// block until their job finished, so writes issued one after another by the
// same caller commit in issue order.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"vozhatapp/internal/metrics"
)

var ErrPoolClosed = errors.New("dispatch pool closed")

type Job func(ctx context.Context) error

type task struct {
	ctx  context.Context
	name string
	fn   Job
	done chan error
}

// Pool is a fixed set of workers consuming a bounded queue.
type Pool struct {
	queue   chan task
	timeout time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New starts workers goroutines. Each job runs with timeout when positive.
func New(workers int, timeout time.Duration, log *zap.Logger, m *metrics.Metrics) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pool{
		queue:   make(chan task, workers*16),
		timeout: timeout,
		log:     log,
		metrics: m,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Do submits fn and waits for it to finish.
func (p *Pool) Do(ctx context.Context, name string, fn Job) error {
	done := make(chan error, 1)

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}
	select {
	case p.queue <- task{ctx: ctx, name: name, fn: fn, done: done}:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}

	// The job context is derived from ctx, so cancelling the caller also
	// aborts the statement in flight.
	return <-done
}

// DoID is Do for jobs producing a row id.
func (p *Pool) DoID(ctx context.Context, name string, fn func(ctx context.Context) (int64, error)) (int64, error) {
	var id int64
	err := p.Do(ctx, name, func(ctx context.Context) error {
		var err error
		id, err = fn(ctx)
		return err
	})
	return id, err
}

// Close stops accepting jobs and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}

// worker runs tasks until the queue is closed
func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.queue {
		t.done <- p.run(t)
	}
}

// run executes one job under the job timeout and records its duration
func (p *Pool) run(t task) error {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	ctx, cancel := p.jobContext(t.ctx)
	defer cancel()

	start := time.Now()
	err := t.fn(ctx)
	elapsed := time.Since(start)
	p.metrics.ObserveJob(t.name, elapsed, err)
	if err != nil {
		p.log.Debug("write job failed", zap.String("op", t.name), zap.Duration("took", elapsed), zap.Error(err))
	}
	return err
}

func (p *Pool) jobContext(parent context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(parent)
	}
	if dl, ok := parent.Deadline(); ok && time.Until(dl) < p.timeout {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, p.timeout)
}
