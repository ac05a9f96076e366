package swr

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

// DefaultDedupeInterval is the window during which repeated reads of a key
// are served from cache without a network call.
const DefaultDedupeInterval = 2 * time.Second

// Fetcher loads the value for key.
type Fetcher[T any] func(ctx context.Context, key string) (T, error)

// Snapshot is the state of one key as seen by a consumer.
type Snapshot[T any] struct {
	Key       string
	Data      T
	HasData   bool
	Err       error
	IsLoading bool
}

// Resource reads one kind of value through a Store.
type Resource[T any] struct {
	name   string
	store  *Store
	fetch  Fetcher[T]
	dedupe time.Duration
}

// ResourceOption customises a Resource.
type ResourceOption func(*resourceConfig)

type resourceConfig struct {
	dedupe time.Duration
}

// WithDedupeInterval sets the dedupe window. Zero disables deduplication so
// every read revalidates.
func WithDedupeInterval(d time.Duration) ResourceOption {
	return func(c *resourceConfig) {
		if d < 0 {
			d = 0
		}
		c.dedupe = d
	}
}

// NewResource binds fetch to store under a metrics name.
func NewResource[T any](store *Store, name string, fetch Fetcher[T], opts ...ResourceOption) *Resource[T] {
	cfg := resourceConfig{dedupe: DefaultDedupeInterval}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Resource[T]{name: name, store: store, fetch: fetch, dedupe: cfg.dedupe}
}

// Get returns the value for key, fetching it when it was never loaded or the
// cached copy is older than the dedupe window. An empty key never fetches.
func (r *Resource[T]) Get(ctx context.Context, key string) Snapshot[T] {
	if key == "" {
		return Snapshot[T]{}
	}
	if e, ok := r.store.lookup(key); ok && r.fresh(e) {
		if _, typed := e.data.(T); typed || !e.hasData {
			r.store.metrics.hit(r.name)
			return snapshotOf[T](key, e)
		}
	}
	r.store.metrics.miss(r.name)
	return r.load(ctx, key, false)
}

// Mutate forces revalidation of key, even when a fetch is already in flight,
// and returns the resulting snapshot.
func (r *Resource[T]) Mutate(ctx context.Context, key string) Snapshot[T] {
	if key == "" {
		return Snapshot[T]{}
	}
	return r.load(ctx, key, true)
}

// Peek returns the cached state of key without fetching.
func (r *Resource[T]) Peek(key string) Snapshot[T] {
	e, ok := r.store.lookup(key)
	if !ok {
		return Snapshot[T]{Key: key}
	}
	return snapshotOf[T](key, e)
}

func (r *Resource[T]) fresh(e entry) bool {
	if e.fetchedAt.IsZero() || r.dedupe <= 0 {
		return false
	}
	return r.store.now().Sub(e.fetchedAt) < r.dedupe
}

func (r *Resource[T]) load(ctx context.Context, key string, force bool) Snapshot[T] {
	s := r.store
	if force {
		s.group.Forget(key)
	}
	// The shared fetch must outlive the caller that started it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		gen := s.begin(key)
		start := time.Now()
		data, err := r.fetch(fetchCtx, key)
		s.metrics.observe(r.name, time.Since(start), err)
		if err != nil {
			s.logger.Warn("swr fetch failed", slog.String("key", key), slog.Any("error", err))
		}
		if !s.complete(key, gen, data, err) {
			s.metrics.dropped(r.name)
			s.logger.Debug("swr dropped stale response", slog.String("key", key), slog.Uint64("generation", gen))
		}
		return nil, nil
	})

	select {
	case <-ctx.Done():
		snap := r.Peek(key)
		snap.Err = ctx.Err()
		return snap
	case <-ch:
		return r.Peek(key)
	}
}

func snapshotOf[T any](key string, e entry) Snapshot[T] {
	snap := Snapshot[T]{Key: key, Err: e.err, IsLoading: e.loading}
	if e.hasData {
		if data, ok := e.data.(T); ok {
			snap.Data = data
			snap.HasData = true
		}
	}
	return snap
}

// Key builds a cache key from an endpoint path and its query parameters.
// Parameters with empty values are left out and the rest are sorted, so
// equivalent queries share a key.
func Key(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	clean := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			if v != "" {
				clean.Add(k, v)
			}
		}
	}
	if len(clean) == 0 {
		return path
	}
	return path + "?" + clean.Encode()
}
