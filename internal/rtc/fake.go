package rtc

import (
	"sync"
	"time"
)

// FakeClock is a manually driven time source for tests and the simulator.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time

	// Adjustments records every Adjust call in order.
	Adjustments []time.Time

	// AdjustError, if set, is returned by Adjust and the time is not changed.
	AdjustError error
}

// NewFakeClock creates a FakeClock reading start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Adjust sets the fake time.
func (f *FakeClock) Adjust(t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AdjustError != nil {
		return f.AdjustError
	}
	f.Adjustments = append(f.Adjustments, t)
	f.now = t
	return nil
}

// Advance moves the fake time forward by d.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
