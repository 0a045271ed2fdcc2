package engine

import "sync/atomic"

// Clock is the monotonic tick counter for the driver loop.
//
// Every Tick advances it by one; tasks observe time only through tick
// boundaries. Using a logical clock instead of wall time keeps runs
// deterministic and replayable.
//
// Thread-safety: safe for concurrent reads, though the engine's
// single-driver design means only one goroutine calls Next.
type Clock struct {
	tick atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock and returns the new tick number.
func (c *Clock) Next() int64 {
	return c.tick.Add(1)
}

// Current returns the current tick without advancing.
func (c *Clock) Current() int64 {
	return c.tick.Load()
}
