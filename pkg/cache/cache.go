// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache provides a single-value time-bounded cache with fetch
// deduplication, plus a cooldown gate for rate-limiting displays.
//
// A Cache holds one value per instance (the common client-side case:
// "the" subscription state, "the" feature flags). Concurrent refreshes
// collapse into one upstream call via singleflight, and a failed refresh
// falls back to the stale value rather than nothing.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kadirpekel/usagegate/pkg/observability"
)

// Entry is a cached value together with when it was fetched.
type Entry[T any] struct {
	Value     T
	FetchedAt time.Time
}

// Cache is a single-value cache with a fixed TTL.
type Cache[T any] struct {
	name    string
	ttl     time.Duration
	now     func() time.Time
	metrics *observability.Metrics

	mu    sync.RWMutex
	entry *Entry[T]

	group singleflight.Group
}

// CacheOption configures a Cache.
type CacheOption[T any] func(*Cache[T])

// WithClock overrides the wall clock (for testing).
func WithClock[T any](now func() time.Time) CacheOption[T] {
	return func(c *Cache[T]) {
		c.now = now
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics[T any](metrics *observability.Metrics) CacheOption[T] {
	return func(c *Cache[T]) {
		c.metrics = metrics
	}
}

// New creates a cache. The name labels logs and metrics. A zero or
// negative ttl means entries are always stale, which turns the cache
// into pure fetch deduplication with a stale fallback.
func New[T any](name string, ttl time.Duration, opts ...CacheOption[T]) *Cache[T] {
	c := &Cache[T]{
		name: name,
		ttl:  ttl,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the cache's time-to-live.
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached value if present and fresh.
func (c *Cache[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.validLocked() {
		var zero T
		return zero, false
	}
	return c.entry.Value, true
}

// Peek returns the cached value even if stale, with its fetch time.
func (c *Cache[T]) Peek() (Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil {
		return Entry[T]{}, false
	}
	return *c.entry, true
}

// Set stores a value fetched now.
func (c *Cache[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = &Entry[T]{Value: value, FetchedAt: c.now()}
}

// Valid reports whether a fresh value is cached.
func (c *Cache[T]) Valid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validLocked()
}

// Invalidate drops the cached value. The next read goes upstream.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}

// GetOrFetch returns the cached value if fresh, otherwise calls fetch.
// Concurrent callers share one fetch. A successful fetch refreshes the
// cache; a failed one returns the stale value (if any) alongside the
// error, so callers can choose degraded data over none.
func (c *Cache[T]) GetOrFetch(ctx context.Context, fetch func(ctx context.Context) (T, error)) (T, error) {
	if value, ok := c.Get(); ok {
		c.metrics.RecordCacheRead(ctx, c.name, true)
		return value, nil
	}
	c.metrics.RecordCacheRead(ctx, c.name, false)

	v, err, _ := c.group.Do(c.name, func() (interface{}, error) {
		// A concurrent caller may have refreshed while we queued.
		if value, ok := c.Get(); ok {
			return value, nil
		}

		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(value)
		return value, nil
	})

	if err != nil {
		// Stale fallback: old data beats no data for display purposes.
		if stale, ok := c.Peek(); ok {
			return stale.Value, err
		}
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *Cache[T]) validLocked() bool {
	if c.entry == nil {
		return false
	}
	return c.now().Sub(c.entry.FetchedAt) < c.ttl
}
