package logic

import "time"

// NapPhase is the sub-state of a nap session.
type NapPhase int

const (
	NapIdle NapPhase = iota
	NapIntro
	NapConfiguring
	NapCounting
	NapRinging
)

var napPhaseNames = [...]string{"IDLE", "INTRO", "CONFIGURING", "COUNTING", "RINGING"}

func (p NapPhase) String() string {
	if p < 0 || int(p) >= len(napPhaseNames) {
		return "UNKNOWN"
	}
	return napPhaseNames[p]
}

// Nap is the nap sub-timer. A zero Nap is idle.
type Nap struct {
	Phase NapPhase
	// Duration is the configured (or, while counting, the remaining at the
	// last extension) nap length.
	Duration time.Duration
	// Presses counts StopOrSnooze presses while configuring.
	Presses int
	// Deadline is the absolute wall-clock instant the nap ends.
	Deadline time.Time
	// EnteredAt is the monotonic instant the current phase began.
	EnteredAt time.Time
}

// StartNap begins a new session in the intro phase.
func StartNap(at time.Time) Nap {
	return Nap{Phase: NapIntro, EnteredAt: at}
}

// Advance moves the nap forward in time without user input. It returns the
// new nap and whether the deadline was reached on this call.
func (n Nap) Advance(t Timings, at, wall, lastInteraction time.Time) (Nap, bool) {
	switch n.Phase {
	case NapIntro:
		if at.Sub(n.EnteredAt) >= t.NapIntro {
			n.Phase = NapConfiguring
			n.Duration = t.NapIncrement
			n.EnteredAt = at
		}
	case NapConfiguring:
		idleSince := later(n.EnteredAt, lastInteraction)
		if at.Sub(idleSince) >= t.NapConfigIdle {
			n.Phase = NapCounting
			n.Deadline = wall.Add(n.Duration)
			n.EnteredAt = at
		}
	case NapCounting:
		if !wall.Before(n.Deadline) {
			n.Phase = NapRinging
			n.EnteredAt = at
			return n, true
		}
	}
	return n, false
}

// Extend handles a StopOrSnooze press. While configuring the duration is one
// increment per press, never less than one increment; while counting one
// increment is added to the remaining time. Both are capped at NapMax.
func (n Nap) Extend(t Timings, wall time.Time) Nap {
	switch n.Phase {
	case NapConfiguring:
		n.Presses++
		n.Duration = capDuration(time.Duration(n.Presses)*t.NapIncrement, t.NapMax)
	case NapCounting:
		remaining := n.Deadline.Sub(wall)
		if remaining < 0 {
			remaining = 0
		}
		n.Duration = capDuration(remaining+t.NapIncrement, t.NapMax)
		n.Deadline = wall.Add(n.Duration)
	}
	return n
}

// Remaining returns the time left until the deadline while counting, or the
// configured duration otherwise.
func (n Nap) Remaining(wall time.Time) time.Duration {
	if n.Phase != NapCounting {
		return n.Duration
	}
	r := n.Deadline.Sub(wall)
	if r < 0 {
		return 0
	}
	return r
}

func capDuration(d, max time.Duration) time.Duration {
	if d > max {
		return max
	}
	return d
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
