package engine

import "sync/atomic"

// Sequencer hands out the logical seq stamped on each transition.
// Clock is the production implementation; testutil.DeterministicClock can be
// reset between scenario runs.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Clock is a monotonic logical clock.
//
// Safe for concurrent use, although only the Run goroutine calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned at start, so the first Next returns
// start+1. Used to resume after Replay.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
