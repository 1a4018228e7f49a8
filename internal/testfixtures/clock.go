// Package testfixtures provides deterministic time and a seeded in-memory
// store for package tests.
package testfixtures

import (
	"sync"
	"time"

	"github.com/rehab-hub/rehab-adherence/pkg/timeutil"
)

var referenceTime = time.Date(2024, time.June, 10, 15, 30, 0, 0, time.UTC)

// ReferenceTime is the instant every fixture clock starts at.
func ReferenceTime() time.Time {
	return referenceTime
}

// Clock is a controllable time source.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = referenceTime
	}
	return &Clock{current: start}
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Func exposes Now as a timeutil.Clock.
func (c *Clock) Func() timeutil.Clock {
	return c.Now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}
