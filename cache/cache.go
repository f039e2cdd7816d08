// Package cache holds fetched source results for a fixed time-to-live.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	value   T
	expires time.Time
}

// Cache is a thread-safe in-memory TTL cache. Failed fetches are never stored.
type Cache[T any] struct {
	mu    sync.Mutex
	data  map[string]entry[T]
	ttl   time.Duration
	now   func() time.Time
	stats Stats
}

// Stats counts cache lookups.
type Stats struct {
	Hits   int
	Misses int
}

// Option configures a Cache.
type Option[T any] func(*Cache[T])

// WithClock replaces time.Now, mostly for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *Cache[T]) {
		c.now = now
	}
}

// New creates a cache whose entries live for ttl.
func New[T any](ttl time.Duration, opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		data: make(map[string]entry[T]),
		ttl:  ttl,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live value for key.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *Cache[T]) getLocked(key string) (T, bool) {
	e, ok := c.data[key]
	if !ok || !c.now().Before(e.expires) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the cache TTL.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry[T]{value: value, expires: c.now().Add(c.ttl)}
}

// GetOrFetch returns the cached value for key, or runs fetch and caches its
// result when it succeeds. hit reports whether fetch was skipped. The lock is
// held during fetch so concurrent callers never fetch the same key twice.
func (c *Cache[T]) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (T, error)) (value T, hit bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.getLocked(key); ok {
		c.stats.Hits++
		return v, true, nil
	}
	c.stats.Misses++

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	c.data[key] = entry[T]{value: v, expires: c.now().Add(c.ttl)}
	return v, false, nil
}

// Invalidate drops key, or every entry when key is empty.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == "" {
		c.data = make(map[string]entry[T])
		return
	}
	delete(c.data, key)
}

// TTL returns the configured time-to-live.
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// Stats returns the lookup counters.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
