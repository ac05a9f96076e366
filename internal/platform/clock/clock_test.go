package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockClockFiresDueTimersInOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := NewMockClock(start)

	var order []string
	clk.AfterFunc(200*time.Millisecond, func() { order = append(order, "late") })
	clk.AfterFunc(100*time.Millisecond, func() { order = append(order, "early") })
	stopped := clk.AfterFunc(150*time.Millisecond, func() { order = append(order, "stopped") })
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	clk.Advance(50 * time.Millisecond)
	assert.Empty(t, order)
	assert.Equal(t, 2, clk.Pending())

	clk.Advance(time.Second)
	assert.Equal(t, []string{"early", "late"}, order)
	assert.Equal(t, start.Add(1050*time.Millisecond), clk.Now())
	assert.Zero(t, clk.Pending())
}
