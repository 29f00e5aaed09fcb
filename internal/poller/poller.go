// Package poller runs a function immediately and then on every tick until
// stopped.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Scheduler creates tickers.
type Scheduler interface {
	NewTicker(interval time.Duration) Ticker
}

// RealScheduler is backed by time.Ticker.
type RealScheduler struct{}

func (RealScheduler) NewTicker(interval time.Duration) Ticker {
	return realTicker{t: time.NewTicker(interval)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }

func (r realTicker) Stop() { r.t.Stop() }

// Poller owns one polling goroutine.
type Poller struct {
	name      string
	interval  time.Duration
	fn        func(context.Context) error
	scheduler Scheduler
	logger    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(name string, interval time.Duration, fn func(context.Context) error, scheduler Scheduler, logger *zap.Logger) (*Poller, error) {
	if fn == nil {
		return nil, errors.New("poll function is required")
	}
	if interval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	if scheduler == nil {
		scheduler = RealScheduler{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{name: name, interval: interval, fn: fn, scheduler: scheduler, logger: logger}, nil
}

// Start launches the loop. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	ticker := p.scheduler.NewTicker(p.interval)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go func() {
		defer close(done)
		defer ticker.Stop()

		p.run(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				p.run(ctx)
			}
		}
	}()
	p.logger.Info("poller started", zap.String("poller", p.name), zap.Duration("interval", p.interval))
}

// Stop cancels the loop and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("poller stopped", zap.String("poller", p.name))
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) run(ctx context.Context) {
	if err := p.fn(ctx); err != nil && ctx.Err() == nil {
		p.logger.Warn("poll failed", zap.String("poller", p.name), zap.Error(err))
	}
}
