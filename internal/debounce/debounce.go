// Package debounce delays reactions to rapidly changing input until the
// input has been quiet for a window.
package debounce

import (
	"sync"
	"time"

	"github.com/odyssey-erp/stockroom/internal/platform/clock"
)

// SearchWindow is the quiet period applied to search boxes.
const SearchWindow = 300 * time.Millisecond

// Debouncer delivers the last triggered value once no new value has arrived
// for the window. Every Trigger restarts the window.
type Debouncer[T any] struct {
	window time.Duration
	clock  clock.Clock
	fn     func(T)

	mu    sync.Mutex
	timer clock.Timer
	seq   uint64
}

// Option customises a Debouncer.
type Option func(*config)

type config struct {
	clock clock.Clock
}

// WithClock overrides the time source.
func WithClock(c clock.Clock) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// New returns a Debouncer that calls fn with the settled value.
func New[T any](window time.Duration, fn func(T), opts ...Option) *Debouncer[T] {
	cfg := config{clock: clock.NewRealClock()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Debouncer[T]{window: window, clock: cfg.clock, fn: fn}
}

// Trigger records v and restarts the window.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.window, func() {
		d.mu.Lock()
		current := d.seq == seq
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		// A timer that fired while a newer Trigger was stopping it must not
		// deliver its outdated value.
		if current {
			d.fn(v)
		}
	})
}

// Stop cancels a pending delivery.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}
