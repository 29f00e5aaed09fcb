package poller

import (
	"sync"
	"time"
)

// ManualScheduler hands out tickers that only fire when Tick is called.
type ManualScheduler struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (s *ManualScheduler) NewTicker(interval time.Duration) Ticker {
	t := &manualTicker{interval: interval, c: make(chan time.Time), stop: make(chan struct{})}
	s.mu.Lock()
	s.tickers = append(s.tickers, t)
	s.mu.Unlock()
	return t
}

// Tick fires every live ticker once and blocks until each tick is received.
func (s *ManualScheduler) Tick(now time.Time) {
	s.mu.Lock()
	tickers := append([]*manualTicker(nil), s.tickers...)
	s.mu.Unlock()
	for _, t := range tickers {
		t.fire(now)
	}
}

// Intervals returns the interval of each ticker created so far.
func (s *ManualScheduler) Intervals() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.tickers))
	for i, t := range s.tickers {
		out[i] = t.interval
	}
	return out
}

type manualTicker struct {
	interval time.Duration
	c        chan time.Time

	mu      sync.Mutex
	stopped bool
	stop    chan struct{}
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.stopped {
		t.stopped = true
		close(t.stop)
	}
}

func (t *manualTicker) fire(now time.Time) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	select {
	case t.c <- now:
	case <-t.stop:
	}
}
