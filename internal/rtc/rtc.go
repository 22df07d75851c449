// Package rtc provides the wall-clock time source of the device.
// The system implementation keeps a user-set offset on top of the host
// clock; the fake implementation is driven by tests.
package rtc

import (
	"sync"
	"time"
)

// Source is the wall clock the controller reads alarms and the nap deadline from.
type Source interface {
	// Now returns the current wall-clock time.
	Now() time.Time
	// Adjust sets the wall clock so that Now returns t at this instant.
	Adjust(t time.Time) error
}

// SystemClock is the host clock shifted by the last adjustment.
// The host clock itself is never changed.
type SystemClock struct {
	mu     sync.RWMutex
	offset time.Duration
	loc    *time.Location
	now    func() time.Time
}

// NewSystemClock returns a clock reporting times in loc (nil means time.Local).
func NewSystemClock(loc *time.Location) *SystemClock {
	if loc == nil {
		loc = time.Local
	}
	return &SystemClock{loc: loc, now: time.Now}
}

// Now returns the adjusted current time.
func (c *SystemClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now().Add(c.offset).In(c.loc)
}

// Adjust records the offset between t and the host clock.
func (c *SystemClock) Adjust(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = t.Sub(c.now())
	return nil
}

// Offset returns the current adjustment relative to the host clock.
func (c *SystemClock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}
