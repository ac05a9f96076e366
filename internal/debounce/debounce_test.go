package debounce

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockroom/internal/platform/clock"
)

func newMockClock() *clock.MockClock {
	return clock.NewMockClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
}

func TestDebouncerDeliversLastValueAfterQuietWindow(t *testing.T) {
	clk := newMockClock()
	var got []string
	d := New(SearchWindow, func(v string) { got = append(got, v) }, WithClock(clk))

	d.Trigger("d")
	clk.Advance(100 * time.Millisecond)
	d.Trigger("dr")
	clk.Advance(100 * time.Millisecond)
	d.Trigger("dri")
	clk.Advance(299 * time.Millisecond)
	assert.Empty(t, got)

	clk.Advance(time.Millisecond)
	assert.Equal(t, []string{"dri"}, got)

	clk.Advance(time.Second)
	assert.Equal(t, []string{"dri"}, got)
}

func TestDebouncerStop(t *testing.T) {
	clk := newMockClock()
	calls := 0
	d := New(SearchWindow, func(int) { calls++ }, WithClock(clk))

	d.Trigger(1)
	d.Stop()
	clk.Advance(time.Second)
	assert.Zero(t, calls)
	assert.Zero(t, clk.Pending())
}

func TestSearchBoxOnlyLastTermSettles(t *testing.T) {
	clk := newMockClock()
	box := NewSearchBox(SearchWindow, WithClock(clk))
	ctx := context.Background()

	type result struct {
		term string
		err  error
	}
	first := make(chan result, 1)
	go func() {
		term, err := box.Settle(ctx, "dri")
		first <- result{term, err}
	}()
	require.Eventually(t, func() bool { return clk.Pending() == 1 }, time.Second, time.Millisecond)

	clk.Advance(150 * time.Millisecond)
	second := make(chan result, 1)
	go func() {
		term, err := box.Settle(ctx, " drill ")
		second <- result{term, err}
	}()
	require.Eventually(t, func() bool { return clk.Pending() == 2 }, time.Second, time.Millisecond)

	clk.Advance(150 * time.Millisecond)
	r := <-first
	assert.ErrorIs(t, r.err, ErrSuperseded)
	assert.Empty(t, box.Settled())

	clk.Advance(150 * time.Millisecond)
	r = <-second
	require.NoError(t, r.err)
	assert.Equal(t, "drill", r.term)
	assert.Equal(t, "drill", box.Settled())
}

func TestSearchBoxCancelledRequest(t *testing.T) {
	clk := newMockClock()
	box := NewSearchBox(SearchWindow, WithClock(clk))
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	var err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err = box.Settle(ctx, "saw")
	}()
	require.Eventually(t, func() bool { return clk.Pending() == 1 }, time.Second, time.Millisecond)
	cancel()
	wg.Wait()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, clk.Pending())
}

func TestSearchBoxWithoutWindow(t *testing.T) {
	box := NewSearchBox(0)
	term, err := box.Settle(context.Background(), "tape")
	require.NoError(t, err)
	assert.Equal(t, "tape", term)

	box.Reset()
	assert.Empty(t, box.Settled())
}
