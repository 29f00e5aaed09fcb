// Package diag collects failures that were absorbed by a fallback path so
// they stay observable even though callers receive usable data.
package diag

import (
	"sync"

	"go.uber.org/zap"
)

// Event describes one absorbed failure.
type Event struct {
	Component string
	Op        string
	Key       string
	Err       error
}

// Sink receives absorbed failures. Implementations must be safe for
// concurrent use.
type Sink interface {
	Report(Event)
}

// Nop discards every event.
var Nop Sink = nopSink{}

type nopSink struct{}

func (nopSink) Report(Event) {}

// ZapSink logs events at warn level.
type ZapSink struct {
	logger *zap.Logger
}

// Zap returns a sink that writes to logger.
func Zap(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Report(ev Event) {
	fields := []zap.Field{
		zap.String("component", ev.Component),
		zap.String("op", ev.Op),
	}
	if ev.Key != "" {
		fields = append(fields, zap.String("key", ev.Key))
	}
	if ev.Err != nil {
		fields = append(fields, zap.Error(ev.Err))
	}
	s.logger.Warn("absorbed failure", fields...)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Report(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OrNop returns sink, or Nop when sink is nil.
func OrNop(sink Sink) Sink {
	if sink == nil {
		return Nop
	}
	return sink
}
