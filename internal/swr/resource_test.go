package swr

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type countingBackend struct {
	calls atomic.Int32
	mu    sync.Mutex
	value []string
	err   error
}

func (b *countingBackend) fetch(ctx context.Context, key string) ([]string, error) {
	b.calls.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return append([]string(nil), b.value...), nil
}

func (b *countingBackend) set(value []string, err error) {
	b.mu.Lock()
	b.value = value
	b.err = err
	b.mu.Unlock()
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	return NewStore(WithClock(clock.Now)), clock
}

func TestNullKeyDoesNotFetch(t *testing.T) {
	store, _ := newTestStore(t)
	backend := &countingBackend{value: []string{"a"}}
	res := NewResource(store, "products", backend.fetch)

	snap := res.Get(context.Background(), "")
	assert.False(t, snap.HasData)
	assert.NoError(t, snap.Err)
	assert.EqualValues(t, 0, backend.calls.Load())
	assert.Equal(t, 0, store.Len())
}

func TestGetServesCacheWithinDedupeWindow(t *testing.T) {
	store, clock := newTestStore(t)
	backend := &countingBackend{value: []string{"a"}}
	res := NewResource(store, "products", backend.fetch)
	ctx := context.Background()

	first := res.Get(ctx, "/products")
	require.True(t, first.HasData)
	assert.Equal(t, []string{"a"}, first.Data)

	backend.set([]string{"a", "b"}, nil)
	clock.Advance(time.Second)
	second := res.Get(ctx, "/products")
	assert.Equal(t, []string{"a"}, second.Data)
	assert.EqualValues(t, 1, backend.calls.Load())

	clock.Advance(DefaultDedupeInterval)
	third := res.Get(ctx, "/products")
	assert.Equal(t, []string{"a", "b"}, third.Data)
	assert.EqualValues(t, 2, backend.calls.Load())
}

func TestDisabledDedupeAlwaysFetches(t *testing.T) {
	store, _ := newTestStore(t)
	backend := &countingBackend{value: []string{"o-1"}}
	res := NewResource(store, "orders", backend.fetch, WithDedupeInterval(0))
	ctx := context.Background()

	res.Get(ctx, "/orders")
	res.Get(ctx, "/orders")
	res.Get(ctx, "/orders")
	assert.EqualValues(t, 3, backend.calls.Load())
}

func TestConcurrentReadsShareOneRequest(t *testing.T) {
	store, _ := newTestStore(t)
	release := make(chan struct{})
	var calls atomic.Int32
	res := NewResource(store, "categories", func(ctx context.Context, key string) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	})

	var wg sync.WaitGroup
	results := make([]Snapshot[int], 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = res.Get(context.Background(), "/categories")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, snap := range results {
		assert.Equal(t, 42, snap.Data)
	}
}

func TestStaleWhileError(t *testing.T) {
	store, _ := newTestStore(t)
	backend := &countingBackend{value: []string{"a"}}
	res := NewResource(store, "products", backend.fetch)
	ctx := context.Background()

	require.True(t, res.Get(ctx, "/products").HasData)

	boom := errors.New("backend down")
	backend.set(nil, boom)
	snap := res.Mutate(ctx, "/products")
	require.ErrorIs(t, snap.Err, boom)
	assert.True(t, snap.HasData)
	assert.Equal(t, []string{"a"}, snap.Data)

	backend.set([]string{"a", "c"}, nil)
	snap = res.Mutate(ctx, "/products")
	assert.NoError(t, snap.Err)
	assert.Equal(t, []string{"a", "c"}, snap.Data)
}

func TestErrorWithoutPreviousData(t *testing.T) {
	store, _ := newTestStore(t)
	boom := errors.New("no route to host")
	backend := &countingBackend{err: boom}
	res := NewResource(store, "products", backend.fetch)

	snap := res.Get(context.Background(), "/products/9")
	assert.ErrorIs(t, snap.Err, boom)
	assert.False(t, snap.HasData)
	assert.Nil(t, snap.Data)
	assert.False(t, snap.IsLoading)
}

func TestMutateReflectsWrite(t *testing.T) {
	store, _ := newTestStore(t)
	backend := &countingBackend{value: []string{"a"}}
	res := NewResource(store, "categories", backend.fetch)
	ctx := context.Background()

	res.Get(ctx, "/categories")
	backend.set([]string{"a", "new"}, nil)

	assert.Equal(t, []string{"a"}, res.Get(ctx, "/categories").Data)
	assert.Equal(t, []string{"a", "new"}, res.Mutate(ctx, "/categories").Data)
	assert.Equal(t, []string{"a", "new"}, res.Get(ctx, "/categories").Data)
}

func TestSlowOlderResponseDoesNotOverwriteNewer(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)
	store := NewStore(WithMetrics(metrics))

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	res := NewResource(store, "products", func(ctx context.Context, key string) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	})
	ctx := context.Background()

	done := make(chan Snapshot[string])
	go func() { done <- res.Get(ctx, "/products") }()
	<-started

	snap := res.Mutate(ctx, "/products")
	assert.Equal(t, "fresh", snap.Data)

	close(release)
	slow := <-done
	assert.Equal(t, "fresh", slow.Data)
	assert.False(t, slow.IsLoading)
	assert.Equal(t, "fresh", res.Peek("/products").Data)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.drops.WithLabelValues("products")), 0)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	store, _ := newTestStore(t)
	backend := &countingBackend{value: []string{"a"}}
	products := NewResource(store, "products", backend.fetch)
	ctx := context.Background()

	products.Get(ctx, "/products?search=ham")
	products.Get(ctx, "/products")
	assert.EqualValues(t, 2, backend.calls.Load())

	assert.Equal(t, 2, store.Invalidate("/products"))
	products.Get(ctx, "/products")
	assert.EqualValues(t, 3, backend.calls.Load())

	store.Clear()
	assert.Equal(t, 0, store.Len())
	assert.False(t, products.Peek("/products").HasData)
}

func TestInvalidateDropsFetchStartedBeforeIt(t *testing.T) {
	store, _ := newTestStore(t)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	res := NewResource(store, "products", func(ctx context.Context, key string) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return "before write", nil
		}
		return "after write", nil
	})
	ctx := context.Background()

	done := make(chan Snapshot[string])
	go func() { done <- res.Get(ctx, "/products?search=x") }()
	<-started

	assert.Equal(t, 1, store.Invalidate("/products"))
	close(release)
	early := <-done
	assert.False(t, early.HasData)
	assert.False(t, early.IsLoading)

	snap := res.Get(ctx, "/products?search=x")
	assert.Equal(t, "after write", snap.Data)
	assert.EqualValues(t, 2, calls.Load())

	// Within the dedupe window the refetched value is served from cache.
	assert.Equal(t, "after write", res.Get(ctx, "/products?search=x").Data)
	assert.EqualValues(t, 2, calls.Load())
}

func TestCancelledReaderKeepsSharedFetch(t *testing.T) {
	store, _ := newTestStore(t)
	release := make(chan struct{})
	res := NewResource(store, "users", func(ctx context.Context, key string) (int, error) {
		<-release
		return 7, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap := res.Get(ctx, "/users")
	assert.ErrorIs(t, snap.Err, context.Canceled)

	close(release)
	assert.Eventually(t, func() bool {
		return res.Peek("/users").HasData
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 7, res.Peek("/users").Data)
}

func TestMetricsCountHitsAndMisses(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)
	again, err := NewMetrics(reg)
	require.NoError(t, err)

	store := NewStore(WithMetrics(again))
	res := NewResource(store, "categories", func(ctx context.Context, key string) (int, error) { return 1, nil })
	res.Get(context.Background(), "/categories")
	res.Get(context.Background(), "/categories")

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.misses.WithLabelValues("categories")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.hits.WithLabelValues("categories")), 0)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "/products", Key("/products", nil))
	assert.Equal(t, "/products", Key("/products", url.Values{"search": {""}}))
	assert.Equal(t,
		"/products?category_id=3&search=drill",
		Key("/products", url.Values{"search": {"drill"}, "category_id": {"3"}}),
	)
}
