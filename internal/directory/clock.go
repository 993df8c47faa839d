package directory

import "sync/atomic"

// Sequencer hands out the logical timestamps that order registrations and
// searches. Values must be strictly increasing.
type Sequencer interface {
	Next() int64
}

// Clock is the default Sequencer: an atomic counter.
//
// Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start.
// A directory reopened over an existing store resumes from the highest seq
// it holds.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
