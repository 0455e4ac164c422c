package scheduler

import "time"

// Clock abstracts the time source so jobs and tests can share one view of
// "now".
type Clock interface {
	Now() time.Time
}

// RealClock is the wall clock
type RealClock struct{}

// Now returns the current time
func (RealClock) Now() time.Time {
	return time.Now()
}

// ManualClock is a settable clock for deterministic tests
type ManualClock struct {
	current time.Time
}

// NewManualClock creates a manual clock starting at the given time
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{current: start}
}

// Now returns the clock's current time
func (c *ManualClock) Now() time.Time {
	return c.current
}

// Advance moves the clock forward
func (c *ManualClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
