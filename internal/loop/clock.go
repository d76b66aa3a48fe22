package loop

import (
	"sync"
	"time"
)

// Clock tells the loop what time it is.
type Clock interface {
	Now() time.Time
}

// SystemClock is wall time.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock only moves when told to. Headless renders and tests drive the
// loop with it so timing is deterministic.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock starts a clock at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now returns the clock's time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// RunUntilIdle steps a manually clocked loop one frame at a time until
// nothing is pending or limit iterations have run. It returns the number of
// iterations.
func RunUntilIdle(l *Loop, c *ManualClock, frame time.Duration, limit int) int {
	n := 0
	for n < limit && l.Busy() {
		c.Advance(frame)
		l.RunPending()
		n++
	}
	return n
}
