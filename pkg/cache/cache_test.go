package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCache_SetThenGet(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC))
	c := New[string]("sub_state", 5*time.Minute, WithClock[string](clock.Now))

	if _, ok := c.Get(); ok {
		t.Error("empty cache should miss")
	}
	if c.Valid() {
		t.Error("empty cache should not be valid")
	}

	c.Set("premium")
	got, ok := c.Get()
	if !ok || got != "premium" {
		t.Errorf("expected premium hit, got %q ok=%v", got, ok)
	}
	if !c.Valid() {
		t.Error("fresh value should be valid")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC))
	c := New[int]("counter", 5*time.Minute, WithClock[int](clock.Now))

	c.Set(42)

	clock.Advance(5*time.Minute - time.Second)
	if !c.Valid() {
		t.Error("value should stay valid just inside the TTL")
	}

	clock.Advance(time.Second)
	if c.Valid() {
		t.Error("value should expire once the TTL elapses")
	}
	if _, ok := c.Get(); ok {
		t.Error("expired value should miss")
	}

	// Peek still sees the stale entry
	entry, ok := c.Peek()
	if !ok || entry.Value != 42 {
		t.Errorf("peek should return the stale value, got %v ok=%v", entry.Value, ok)
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := New[string]("flags", time.Hour)
	c.Set("v1")
	c.Invalidate()

	if _, ok := c.Get(); ok {
		t.Error("invalidated cache should miss")
	}
	if _, ok := c.Peek(); ok {
		t.Error("invalidate drops the entry entirely")
	}
}

func TestCache_GetOrFetch(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC))
	c := New[string]("sub_state", 5*time.Minute, WithClock[string](clock.Now))

	fetches := 0
	fetch := func(ctx context.Context) (string, error) {
		fetches++
		return "fetched", nil
	}

	// Cold cache: one fetch
	got, err := c.GetOrFetch(ctx, fetch)
	if err != nil || got != "fetched" {
		t.Fatalf("expected fetched value, got %q err=%v", got, err)
	}
	if fetches != 1 {
		t.Errorf("expected 1 fetch, got %d", fetches)
	}

	// Fresh cache: no fetch
	got, err = c.GetOrFetch(ctx, fetch)
	if err != nil || got != "fetched" {
		t.Fatalf("expected cached value, got %q err=%v", got, err)
	}
	if fetches != 1 {
		t.Errorf("fresh cache must not refetch, got %d fetches", fetches)
	}

	// Expired cache: exactly one more fetch
	clock.Advance(6 * time.Minute)
	if _, err := c.GetOrFetch(ctx, fetch); err != nil {
		t.Fatal(err)
	}
	if fetches != 2 {
		t.Errorf("expected 2 fetches after expiry, got %d", fetches)
	}
}

func TestCache_StaleFallbackOnFetchFailure(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC))
	c := New[string]("sub_state", 5*time.Minute, WithClock[string](clock.Now))

	c.Set("stale-but-usable")
	clock.Advance(10 * time.Minute)

	fetchErr := errors.New("backend down")
	got, err := c.GetOrFetch(ctx, func(ctx context.Context) (string, error) {
		return "", fetchErr
	})

	if !errors.Is(err, fetchErr) {
		t.Errorf("fetch failure must be surfaced, got %v", err)
	}
	if got != "stale-but-usable" {
		t.Errorf("expected stale fallback value, got %q", got)
	}

	// Stale entry stays in place for the next attempt
	if entry, ok := c.Peek(); !ok || entry.Value != "stale-but-usable" {
		t.Error("failed fetch must not evict the stale entry")
	}

	// Cold cache + failure: zero value and the error
	empty := New[string]("other", time.Minute)
	got, err = empty.GetOrFetch(ctx, func(ctx context.Context) (string, error) {
		return "", fetchErr
	})
	if !errors.Is(err, fetchErr) || got != "" {
		t.Errorf("expected zero value and error on cold failure, got %q err=%v", got, err)
	}
}

func TestCache_ConcurrentFetchesCollapse(t *testing.T) {
	ctx := context.Background()
	c := New[int]("shared", time.Hour)

	var fetches atomic.Int32
	release := make(chan struct{})

	fetch := func(ctx context.Context) (int, error) {
		fetches.Add(1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrFetch(ctx, fetch)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = v
		}(i)
	}

	// Let the goroutines pile up on the in-flight fetch, then release it
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := fetches.Load(); got != 1 {
		t.Errorf("concurrent misses should share one fetch, got %d", got)
	}
	for i, v := range results {
		if v != 7 {
			t.Errorf("caller %d: expected 7, got %d", i, v)
		}
	}
}
