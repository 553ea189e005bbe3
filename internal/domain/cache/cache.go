// Package cache provides a keyed TTL cache with atomic get-or-compute
// semantics, used for balanced-assignment results.
package cache

import (
	"context"
	"sync"
	"time"
)

// defaultTTL matches the assignment validity window.
const defaultTTL = time.Hour

// entry holds one cached value with its expiry.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// call tracks an in-flight computation so concurrent callers for the same
// key wait for one authoritative writer instead of racing.
type call[V any] struct {
	wg    sync.WaitGroup
	value V
	err   error
}

// Cache is a bounded-TTL, in-memory cache. A value is immutable within its
// validity window; a recomputation replaces rather than mutates it.
type Cache[V any] struct {
	mu       sync.Mutex
	entries  map[string]entry[V]
	inflight map[string]*call[V]
	ttl      time.Duration
	now      func() time.Time
}

// Option applies a configuration option to the Cache.
type Option[V any] func(*Cache[V])

// WithTTL overrides the validity window.
func WithTTL[V any](ttl time.Duration) Option[V] {
	return func(c *Cache[V]) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects a clock, used by tests to age entries.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Cache with a 1-hour TTL.
func New[V any](opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		entries:  make(map[string]entry[V]),
		inflight: make(map[string]*call[V]),
		ttl:      defaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key when present and unexpired.
func (c *Cache[V]) Get(_ context.Context, key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *Cache[V]) getLocked(key string) (V, bool) {
	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// GetOrCompute returns the cached value for key, computing and caching it
// on a miss. Concurrent misses for the same key collapse onto a single
// compute; every caller observes the one winner. The second return reports
// a cache hit.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (V, error)) (V, bool, error) {
	c.mu.Lock()
	if v, ok := c.getLocked(key); ok {
		c.mu.Unlock()
		return v, true, nil
	}
	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		cl.wg.Wait()
		return cl.value, true, cl.err
	}
	cl := &call[V]{}
	cl.wg.Add(1)
	c.inflight[key] = cl
	c.mu.Unlock()

	cl.value, cl.err = compute(ctx)

	c.mu.Lock()
	delete(c.inflight, key)
	if cl.err == nil {
		c.entries[key] = entry[V]{value: cl.value, expiresAt: c.now().Add(c.ttl)}
	}
	c.mu.Unlock()
	cl.wg.Done()

	return cl.value, false, cl.err
}

// Invalidate drops the entry for key, forcing the next read to recompute.
func (c *Cache[V]) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of cached entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
