package ledger

import "sync/atomic"

// Clock is the monotonic logical clock stamping transactions.
//
// Thread-safety: Clock is safe for concurrent use. The ledger's
// single-writer design means only Submit calls Next.
type Clock struct {
	seq atomic.Uint64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned at start, used to resume after replay.
func NewClockAt(start uint64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() uint64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() uint64 {
	return c.seq.Load()
}
