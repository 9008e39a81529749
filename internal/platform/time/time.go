// Package time contains the injectable clock and time helpers
package time

import (
	"sync"
	"time"
)

// Clock yields the current time. Services take one instead of calling time.Now
type Clock interface {
	Now() time.Time
}

// System is the wall clock, in UTC
type System struct{}

// Now returns time.Now in UTC
func (System) Now() time.Time { return time.Now().UTC() }

// Fixed is a settable clock for tests
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixed returns a Fixed clock pinned at t
func NewFixed(t time.Time) *Fixed { return &Fixed{t: t.UTC()} }

// Now returns the pinned time
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Set pins the clock at t
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t.UTC()
	f.mu.Unlock()
}

// Advance moves the clock forward by d
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// OrSystem returns c, or the wall clock when c is nil
func OrSystem(c Clock) Clock {
	if c == nil {
		return System{}
	}
	return c
}

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
