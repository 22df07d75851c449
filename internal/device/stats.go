package device

import (
	"time"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// Counts tracks what the device did since startup.
type Counts struct {
	RingsA        int
	RingsB        int
	NapRings      int
	Stops         int
	SettingsSaved int
	ClockAdjusts  int
	InputErrors   int
	EffectErrors  int
}

func (c *Counts) ring(s logic.State) {
	switch s {
	case logic.StateRingingA:
		c.RingsA++
	case logic.StateRingingB:
		c.RingsB++
	case logic.StateNapRinging:
		c.NapRings++
	}
}

// Counts returns a copy of the counters.
func (r *Runtime) Counts() Counts {
	return r.counts
}

// HeartbeatData holds information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (r *Runtime) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(r.lastHeartbeat) < interval {
		return nil
	}

	r.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(r.start),
		Counts:    r.counts,
	}
}
