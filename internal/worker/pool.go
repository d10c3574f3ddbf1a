// Package worker bounds how many pipeline runs execute at once.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Raikerian/go-voice-enhancer/internal/config"
	"github.com/Raikerian/go-voice-enhancer/internal/metrics"
)

// ErrQueueTimeout is returned when no slot freed up within the queue timeout.
var ErrQueueTimeout = errors.New("timed out waiting for a worker slot")

// Module provides the shared Pool.
var Module = fx.Module("worker",
	fx.Provide(NewPoolFromConfig),
)

// Pool runs functions on a fixed number of slots. Callers block in Run until
// a slot is free; there is no internal queue beyond the waiting callers.
type Pool struct {
	sem          *semaphore.Weighted
	size         int
	queueTimeout time.Duration
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewPool creates a pool with size slots. A size of zero or less uses one
// slot per CPU; a queueTimeout of zero waits as long as the caller's context.
func NewPool(size int, queueTimeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{
		sem:          semaphore.NewWeighted(int64(size)),
		size:         size,
		queueTimeout: queueTimeout,
		metrics:      m,
		logger:       logger,
	}
}

// NewPoolFromConfig creates the pool from the worker section.
func NewPoolFromConfig(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *Pool {
	p := NewPool(cfg.Worker.MaxConcurrent, cfg.Worker.QueueTimeout, m, logger)
	logger.Info("Creating worker pool",
		zap.Int("slots", p.size),
		zap.Duration("queue_timeout", p.queueTimeout))
	return p
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return p.size
}

// Run waits for a slot and calls fn while holding it. It returns
// ErrQueueTimeout when the queue timeout elapses first and the context error
// when ctx ends first; fn is not called in either case.
func (p *Pool) Run(ctx context.Context, fn func()) error {
	waitCtx := ctx
	if p.queueTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.queueTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := p.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("waiting for worker slot: %w", ctx.Err())
		}
		p.metrics.QueueTimeouts.Inc()
		p.logger.Warn("Worker pool saturated",
			zap.Int("slots", p.size),
			zap.Duration("waited", time.Since(start)))
		return ErrQueueTimeout
	}
	p.metrics.QueueWait.Observe(time.Since(start).Seconds())

	p.metrics.InFlight.Inc()
	defer func() {
		p.metrics.InFlight.Dec()
		p.sem.Release(1)
	}()

	fn()
	return nil
}
