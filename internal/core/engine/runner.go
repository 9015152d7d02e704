package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/robonav/internal/core/observability/log"
)

const (
	DefaultTickPeriod = 10 * time.Millisecond
	DefaultTickStep   = 10
)

// Updater is what a Runner drives; *Engine implements it.
type Updater interface {
	Update(dt int) bool
}

type RunnerOption func(*Runner)

func WithClock(c Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// WithTickStep sets the dt passed to Update on every tick.
func WithTickStep(dt int) RunnerOption {
	return func(r *Runner) { r.dt = dt }
}

func WithRunnerLogger(l log.Log) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// Runner calls Update on a fixed period from a single goroutine, so ticks
// never overlap.
type Runner struct {
	target Updater
	period time.Duration
	dt     int
	clock  Clock
	logger log.Log

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	ticks atomic.Uint64
	moves atomic.Uint64
}

func NewRunner(target Updater, period time.Duration, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		target: target,
		period: period,
		dt:     DefaultTickStep,
		clock:  WallClock{},
		logger: log.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.period <= 0 || r.dt <= 0 {
		return nil, fmt.Errorf("%w: period=%s dt=%d", ErrInvalidTickSetup, r.period, r.dt)
	}
	r.logger = r.logger.With(log.String("component", "runner"))
	return r, nil
}

// Start launches the tick loop. It stops when ctx is cancelled or Stop is
// called.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return ErrRunnerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	ticker := r.clock.NewTicker(r.period)

	go r.loop(ctx, ticker, r.done)

	r.logger.Debug("Runner started", log.Duration("period", r.period), log.Int("dt", r.dt))
	return nil
}

// Stop cancels the loop and waits for it to exit. Safe to call when not
// running.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// release clears the running state when the loop exits on its own, so a
// cancelled parent context does not leave the runner looking busy. Stop has
// already cleared it otherwise.
func (r *Runner) release(done chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != done {
		return
	}
	r.cancel()
	r.cancel, r.done = nil, nil
}

// Running reports whether the loop is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Ticks is the number of ticks processed so far.
func (r *Runner) Ticks() uint64 { return r.ticks.Load() }

func (r *Runner) loop(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	defer r.release(done)

	var slowest time.Duration
	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("Runner stopped",
				log.Uint64("ticks", r.ticks.Load()),
				log.Uint64("moves", r.moves.Load()),
				log.Duration("slowest_tick", slowest))
			return
		case <-ticker.C():
			start := time.Now()
			if r.target.Update(r.dt) {
				r.moves.Add(1)
			}
			r.ticks.Add(1)
			if took := time.Since(start); took > slowest {
				slowest = took
			}
		}
	}
}
