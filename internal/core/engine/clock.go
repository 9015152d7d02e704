package engine

import (
	"sync"
	"time"
)

// Clock produces tickers. The runner takes one so tests can drive ticks by
// hand.
type Clock interface {
	NewTicker(period time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// WallClock is the real-time Clock.
type WallClock struct{}

func (WallClock) NewTicker(period time.Duration) Ticker {
	return wallTicker{t: time.NewTicker(period)}
}

type wallTicker struct{ t *time.Ticker }

func (w wallTicker) C() <-chan time.Time { return w.t.C }
func (w wallTicker) Stop()               { w.t.Stop() }

// ManualClock fires its tickers only when Advance is called.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
	created chan struct{}
}

func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Unix(0, 0), created: make(chan struct{}, 1)}
}

func (c *ManualClock) NewTicker(period time.Duration) Ticker {
	t := &manualTicker{ch: make(chan time.Time), period: period, stopped: make(chan struct{})}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	select {
	case c.created <- struct{}{}:
	default:
	}
	return t
}

// WaitForTicker blocks until at least one ticker exists or timeout passes.
func (c *ManualClock) WaitForTicker(timeout time.Duration) bool {
	c.mu.Lock()
	n := len(c.tickers)
	c.mu.Unlock()
	if n > 0 {
		return true
	}
	select {
	case <-c.created:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Advance delivers one tick to every live ticker and blocks until each has
// been received, so ticks are handed over strictly one at a time.
func (c *ManualClock) Advance() {
	c.mu.Lock()
	tickers := append([]*manualTicker(nil), c.tickers...)
	c.mu.Unlock()

	for _, t := range tickers {
		c.mu.Lock()
		c.now = c.now.Add(t.period)
		now := c.now
		c.mu.Unlock()
		select {
		case t.ch <- now:
		case <-t.stopped:
		}
	}
}

type manualTicker struct {
	ch       chan time.Time
	period   time.Duration
	stopOnce sync.Once
	stopped  chan struct{}
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.stopOnce.Do(func() { close(t.stopped) }) }
