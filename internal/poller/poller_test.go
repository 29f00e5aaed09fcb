package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPollerRunsImmediatelyThenOnTick(t *testing.T) {
	sched := &ManualScheduler{}
	runs := make(chan struct{}, 10)
	var count int32
	p, err := New("prices", 2*time.Minute, func(context.Context) error {
		atomic.AddInt32(&count, 1)
		runs <- struct{}{}
		return nil
	}, sched, nil)
	if err != nil {
		t.Fatalf("new poller: %v", err)
	}

	p.Start(context.Background())
	defer p.Stop()

	waitRun(t, runs)
	sched.Tick(time.Now())
	waitRun(t, runs)
	sched.Tick(time.Now())
	waitRun(t, runs)

	if got := atomic.LoadInt32(&count); got != 3 {
		t.Fatalf("expected 3 runs, got %d", got)
	}
	if intervals := sched.Intervals(); len(intervals) != 1 || intervals[0] != 2*time.Minute {
		t.Fatalf("unexpected intervals %v", intervals)
	}
}

func TestPollerStopWaitsAndIsIdempotent(t *testing.T) {
	sched := &ManualScheduler{}
	runs := make(chan struct{}, 1)
	p, err := New("pools", time.Second, func(context.Context) error {
		runs <- struct{}{}
		return errors.New("transient")
	}, sched, nil)
	if err != nil {
		t.Fatalf("new poller: %v", err)
	}

	p.Start(context.Background())
	p.Start(context.Background())
	waitRun(t, runs)
	if !p.Running() {
		t.Fatalf("expected poller to be running")
	}

	p.Stop()
	p.Stop()
	if p.Running() {
		t.Fatalf("expected poller to be stopped")
	}
	sched.Tick(time.Now())
	select {
	case <-runs:
		t.Fatalf("stopped poller must not run")
	default:
	}
	if len(sched.Intervals()) != 1 {
		t.Fatalf("second Start should not create a ticker")
	}
}

func TestPollerStopsWithParentContext(t *testing.T) {
	sched := &ManualScheduler{}
	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan struct{}, 1)
	p, err := New("ctx", time.Second, func(context.Context) error {
		runs <- struct{}{}
		return nil
	}, sched, nil)
	if err != nil {
		t.Fatalf("new poller: %v", err)
	}
	p.Start(ctx)
	waitRun(t, runs)
	cancel()
	p.Stop()
}

func TestNewValidates(t *testing.T) {
	if _, err := New("x", time.Second, nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil fn")
	}
	if _, err := New("x", 0, func(context.Context) error { return nil }, nil, nil); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}

func TestRealSchedulerTicks(t *testing.T) {
	ticker := RealScheduler{}.NewTicker(time.Millisecond)
	defer ticker.Stop()
	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatalf("real ticker did not fire")
	}
}

func waitRun(t *testing.T, runs <-chan struct{}) {
	t.Helper()
	select {
	case <-runs:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for poll run")
	}
}
