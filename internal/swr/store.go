// Package swr implements a stale-while-revalidate resource cache.
//
// A Store owns the key -> entry map for one dashboard client (one signed-in
// session). Resources read through it; writes never touch it except through
// explicit revalidation.
package swr

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	data      any
	hasData   bool
	err       error
	loading   bool
	fetchedAt time.Time

	// issued is bumped when a fetch starts, applied records the newest
	// fetch whose result was stored. Results older than applied are dropped,
	// as are results of fetches issued at or before floor.
	issued  uint64
	applied uint64
	floor   uint64
}

// Store is a concurrency-safe cache shared by every Resource of one client.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	now     func() time.Time
	metrics *Metrics
	logger  *slog.Logger
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics records cache activity on m.
func WithMetrics(m *Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the logger used for dropped responses and fetch errors.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore constructs an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate marks every entry whose key starts with prefix as stale so the
// next read revalidates it. An empty prefix matches every key.
func (s *Store) Invalidate(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, e := range s.entries {
		if strings.HasPrefix(key, prefix) {
			// A fetch already on the wire may carry data from before the
			// write that caused this call.
			e.floor = e.issued
			e.fetchedAt = time.Time{}
			s.group.Forget(key)
			n++
		}
	}
	return n
}

// Clear drops every cached entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]*entry)
	s.mu.Unlock()
}

// Len returns the number of cached keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) lookup(key string) (entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return entry{}, false
	}
	return *e, true
}

func (s *Store) begin(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.issued++
	e.loading = true
	return e.issued
}

// complete stores a fetch result unless a newer one was already applied.
// It reports whether the result was applied.
func (s *Store) complete(key string, gen uint64, data any, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		// Cleared while the fetch was in flight.
		return false
	}
	if gen == e.issued {
		e.loading = false
	}
	if gen < e.applied || gen <= e.floor {
		return false
	}
	e.applied = gen
	e.fetchedAt = s.now()
	if err != nil {
		e.err = err
		return true
	}
	e.data = data
	e.hasData = true
	e.err = nil
	return true
}
