package debounce

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/stockroom/internal/platform/clock"
)

// ErrSuperseded is returned to a search request overtaken by a newer term
// before its window elapsed.
var ErrSuperseded = errors.New("search term superseded")

// SearchBox holds the search term of one list view for one session. Requests
// carrying each keystroke call Settle; only the last one in a burst gets the
// term back and goes on to query the backend.
type SearchBox struct {
	window time.Duration
	clock  clock.Clock

	mu      sync.Mutex
	seq     uint64
	settled string
}

// NewSearchBox creates a SearchBox with the given quiet window.
func NewSearchBox(window time.Duration, opts ...Option) *SearchBox {
	cfg := config{clock: clock.NewRealClock()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &SearchBox{window: window, clock: cfg.clock}
}

// Settle waits out the window for term. It returns the trimmed term when no
// newer term arrived meanwhile, ErrSuperseded when one did, or the context
// error when the request went away first.
func (b *SearchBox) Settle(ctx context.Context, term string) (string, error) {
	term = strings.TrimSpace(term)

	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	if b.window > 0 {
		elapsed := make(chan struct{})
		timer := b.clock.AfterFunc(b.window, func() { close(elapsed) })
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-elapsed:
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq != seq {
		return "", ErrSuperseded
	}
	b.settled = term
	return term, nil
}

// Settled returns the last term that survived its window.
func (b *SearchBox) Settled() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settled
}

// Reset forgets the settled term.
func (b *SearchBox) Reset() {
	b.mu.Lock()
	b.seq++
	b.settled = ""
	b.mu.Unlock()
}
