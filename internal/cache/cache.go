// Package cache implements a best-effort TTL cache over pluggable byte
// backends. Entries are stored as {"data": ..., "timestamp": <unix ms>} and
// evicted lazily on the first read after they expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"avocado/internal/diag"
)

const component = "cache"

// Backend stores raw entry bytes by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Options configures a Store.
type Options struct {
	TTL    time.Duration
	Prefix string
	Now    func() time.Time
	Sink   diag.Sink
}

type entry[T any] struct {
	Data      T     `json:"data"`
	Timestamp int64 `json:"timestamp"`
}

// Store is a typed TTL cache. Get and Set never fail; absorbed errors are
// sent to the configured sink.
type Store[T any] struct {
	backend Backend
	ttl     time.Duration
	prefix  string
	now     func() time.Time
	sink    diag.Sink
}

// New returns a Store over backend.
func New[T any](backend Backend, opts Options) (*Store[T], error) {
	if backend == nil {
		return nil, errors.New("cache backend is required")
	}
	if opts.TTL <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", opts.TTL)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store[T]{
		backend: backend,
		ttl:     opts.TTL,
		prefix:  opts.Prefix,
		now:     now,
		sink:    diag.OrNop(opts.Sink),
	}, nil
}

// TTL returns the validity window of the store.
func (s *Store[T]) TTL() time.Duration {
	return s.ttl
}

// Key returns the namespaced backend key for a logical key.
func (s *Store[T]) Key(key string) string {
	return s.prefix + key
}

// Get returns the cached value for key while it is younger than the TTL.
// Stale or unreadable entries are deleted and reported as absent.
func (s *Store[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	full := s.Key(key)

	raw, ok, err := s.backend.Get(ctx, full)
	if err != nil {
		s.report("get", full, err)
		return zero, false
	}
	if !ok {
		return zero, false
	}

	var e entry[T]
	if err := json.Unmarshal(raw, &e); err != nil {
		s.report("decode", full, fmt.Errorf("decode cache entry: %w", err))
		s.delete(ctx, full)
		return zero, false
	}

	age := s.now().Sub(time.UnixMilli(e.Timestamp))
	if age >= s.ttl {
		s.delete(ctx, full)
		return zero, false
	}
	return e.Data, true
}

// Set stores value under key stamped with the current time.
func (s *Store[T]) Set(ctx context.Context, key string, value T) {
	full := s.Key(key)
	raw, err := json.Marshal(entry[T]{Data: value, Timestamp: s.now().UnixMilli()})
	if err != nil {
		s.report("encode", full, fmt.Errorf("encode cache entry: %w", err))
		return
	}
	if err := s.backend.Set(ctx, full, raw); err != nil {
		s.report("set", full, err)
	}
}

// Delete removes key.
func (s *Store[T]) Delete(ctx context.Context, key string) {
	s.delete(ctx, s.Key(key))
}

func (s *Store[T]) delete(ctx context.Context, full string) {
	if err := s.backend.Delete(ctx, full); err != nil {
		s.report("delete", full, err)
	}
}

func (s *Store[T]) report(op, key string, err error) {
	s.sink.Report(diag.Event{Component: component, Op: op, Key: key, Err: err})
}
