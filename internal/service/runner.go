// Package service is the façade screens talk to. Reads pass live streams
// through from the repositories or run once under the operation timeout.
// Writes are validated, executed on the dispatch pool and awaited.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vozhatapp/internal/dispatch"
)

// Runner executes service operations: reads in the caller's goroutine with
// a timeout, writes on the shared pool.
type Runner struct {
	pool    *dispatch.Pool
	timeout time.Duration
	log     *zap.Logger
}

// NewRunner creates a runner. Reads are bounded by timeout; zero disables it.
func NewRunner(pool *dispatch.Pool, timeout time.Duration, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{pool: pool, timeout: timeout, log: log}
}

func (r *Runner) readContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Write runs fn on the pool and waits for it
func (r *Runner) Write(ctx context.Context, op string, fn dispatch.Job) error {
	if err := r.pool.Do(ctx, op, fn); err != nil {
		return r.fail(op, err)
	}
	return nil
}

// Insert runs fn on the pool and returns the new row ID
func (r *Runner) Insert(ctx context.Context, op string, fn func(ctx context.Context) (int64, error)) (int64, error) {
	id, err := r.pool.DoID(ctx, op, fn)
	if err != nil {
		return 0, r.fail(op, err)
	}
	return id, nil
}

// fail classifies err and logs it. Unexpected failures and timeouts log at error level.
func (r *Runner) fail(op string, err error) error {
	e := classify(op, err)
	if e.Kind == KindUnexpected || e.Kind == KindTimeout {
		r.log.Error("operation failed", zap.String("op", op), zap.String("kind", e.Kind.String()), zap.Error(err))
	} else {
		r.log.Debug("operation rejected", zap.String("op", op), zap.String("kind", e.Kind.String()), zap.Error(err))
	}
	return e
}

// read runs a one-shot query under the operation timeout
func read[T any](ctx context.Context, r *Runner, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := r.readContext(ctx)
	defer cancel()
	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, r.fail(op, err)
	}
	return v, nil
}
