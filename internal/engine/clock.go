package engine

import "sync/atomic"

// Clock is the engine's logical clock.
//
// The tick clock stamps node creation and snapshot capture; a second instance
// numbers journal entries. No wall-clock time ever enters engine state, so
// replaying the same call sequence reproduces the same stamps.
//
// Reads are atomic so Tick() can be observed from another goroutine (a
// metrics scrape, for example). Writes still follow the engine's
// single-writer discipline.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific value.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current value without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Reset rewinds the clock to 0.
func (c *Clock) Reset() {
	c.seq.Store(0)
}
