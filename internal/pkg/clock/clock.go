// Package clock abstracts time.Now so commands can be tested against a
// pinned instant.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func NewRealClock() Clock { return &RealClock{} }

func (c *RealClock) Now() time.Time { return time.Now() }

// MockClock serves a fixed instant, adjustable from tests. Not safe
// for concurrent use.
type MockClock struct {
	now time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

func (c *MockClock) Now() time.Time { return c.now }

// Set pins the clock to t.
func (c *MockClock) Set(t time.Time) { c.now = t }

// Add advances the clock by d.
func (c *MockClock) Add(d time.Duration) { c.now = c.now.Add(d) }
