package logic

import "time"

// stepInput carries the two clocks a handler may need.
type stepInput struct {
	at   time.Time // monotonic tick instant
	wall time.Time // time source reading
}

type handler func(c *Controller, in stepInput) []Effect

type transitionKey struct {
	state   State
	command Command
}

type transitionTable map[transitionKey]handler

func (t transitionTable) add(s State, cmd Command, h handler) {
	t[transitionKey{s, cmd}] = h
}

// transitions is the full decision table. Pairs not present are no-ops.
var transitions = buildTransitions()

func goTo(next State) handler {
	return func(c *Controller, _ stepInput) []Effect {
		c.setState(next)
		return nil
	}
}

func buildTransitions() transitionTable {
	t := transitionTable{}

	// Display ring.
	ring := []State{StateTime, StateDate, StateAlarmA, StateAlarmB}
	for i, s := range ring {
		t.add(s, CommandMode, goTo(ring[(i+1)%len(ring)]))
	}
	t.add(StateTime, CommandNap, (*Controller).startNap)
	t.add(StateTime, CommandUp, goTo(StateVolume))
	t.add(StateTime, CommandDown, goTo(StateVolume))

	// Volume overlay.
	t.add(StateVolume, CommandUp, func(c *Controller, _ stepInput) []Effect {
		c.settings.Volume = Incr(c.settings.Volume, volumeModulus)
		return []Effect{SetVolume(c.settings.Volume)}
	})
	t.add(StateVolume, CommandDown, func(c *Controller, _ stepInput) []Effect {
		c.settings.Volume = Decr(c.settings.Volume, volumeModulus)
		return []Effect{SetVolume(c.settings.Volume)}
	})
	t.add(StateVolume, CommandSet, (*Controller).commitVolume)
	t.add(StateVolume, CommandMode, (*Controller).commitVolume)

	addChainTransitions(t)

	// Ringing.
	for _, slot := range alarmSlots {
		id := slot.id
		t.add(slot.ringing, CommandStopOrSnooze, func(c *Controller, _ stepInput) []Effect {
			c.latches[id] = true
			c.setState(StateTime)
			return []Effect{StopPlayback()}
		})
	}
	t.add(StateNapRinging, CommandStopOrSnooze, func(c *Controller, _ stepInput) []Effect {
		c.endNap()
		return []Effect{StopPlayback()}
	})

	// Nap session. The intro ignores every command.
	t.add(StateNapConfiguring, CommandNap, (*Controller).cancelNap)
	t.add(StateNapConfiguring, CommandStopOrSnooze, (*Controller).extendNap)
	t.add(StateNapCounting, CommandNap, (*Controller).cancelNap)
	t.add(StateNapCounting, CommandStopOrSnooze, (*Controller).extendNap)

	// Dark mode: any command only wakes the display.
	for _, cmd := range Commands() {
		if cmd != CommandNone {
			t.add(StateDark, cmd, goTo(StateTime))
		}
	}

	return t
}

// Controller is the top-level state machine of the clock. It owns the
// current state, the edit buffer, the settings, the alarm latches and the
// nap timer. It is not safe for concurrent use.
type Controller struct {
	timings    Timings
	trackCount int
	napTrack   int

	state State

	settings   Settings
	edit       EditBuffer
	latches    [AlarmCount]bool
	nap        Nap
	previewing bool
}

// NewController creates a controller in StateTime. Invalid settings are
// replaced by defaults and every field is normalised into range.
func NewController(settings Settings, trackCount, napTrack int, t Timings) (*Controller, error) {
	if trackCount < 1 {
		return nil, ErrNoTracks
	}
	return &Controller{
		timings:    t,
		trackCount: trackCount,
		napTrack:   wrap(napTrack, trackCount),
		state:      StateTime,
		settings:   settings.Normalize(trackCount),
	}, nil
}

// Step runs one tick: alarm evaluation and the nap timer may force a new
// state, then the command is applied, then idle timeouts run.
// The returned effects must be executed in order.
func (c *Controller) Step(t Tick) []Effect {
	var effects []Effect

	d := EvaluateAlarms(t.Wall, c.state, c.settings.Alarms, c.latches, t.Stopped)
	c.latches = d.Latches
	if d.Forced {
		c.force(d.Next)
	}
	effects = append(effects, d.Effects...)

	effects = append(effects, c.advanceNap(t)...)
	effects = append(effects, c.Apply(t.Command, t.At, t.Wall)...)
	effects = append(effects, c.checkIdle(t.At, t.LastInteraction)...)
	return effects
}

// Apply performs the table transition for (current state, cmd).
// Undefined pairs leave the controller unchanged and return no effects.
func (c *Controller) Apply(cmd Command, at, wall time.Time) []Effect {
	h, ok := transitions[transitionKey{c.state, cmd}]
	if !ok {
		return nil
	}
	return h(c, stepInput{at: at, wall: wall})
}

// force switches to a state chosen by an evaluator. Any edit in progress is
// abandoned and a nap session is discarded.
func (c *Controller) force(next State) {
	if c.state.IsNap() && next != c.state {
		c.nap = Nap{}
	}
	c.previewing = false
	c.setState(next)
}

func (c *Controller) setState(next State) {
	c.state = next
}

// checkIdle runs the timeouts of the display states. Idle time counts from
// the last button interaction only, so a state entered without input (an
// alarm ending on its own) can time out on its first tick.
func (c *Controller) checkIdle(at, lastInteraction time.Time) []Effect {
	idle := at.Sub(lastInteraction)
	switch c.state {
	case StateVolume:
		if idle >= c.timings.VolumeIdle {
			return c.commitVolume(stepInput{at: at})
		}
	case StateDate, StateAlarmA, StateAlarmB:
		if idle >= c.timings.DisplayIdle {
			c.setState(StateTime)
		}
	case StateTime:
		if idle >= c.timings.DarkIdle {
			c.setState(StateDark)
		}
	}
	return nil
}

func (c *Controller) commitVolume(_ stepInput) []Effect {
	c.setState(StateTime)
	return []Effect{PersistSettings(c.settings)}
}

func (c *Controller) startNap(in stepInput) []Effect {
	c.nap = StartNap(in.at)
	c.setState(StateNapIntro)
	return nil
}

func (c *Controller) cancelNap(_ stepInput) []Effect {
	c.endNap()
	return nil
}

func (c *Controller) endNap() {
	c.nap = Nap{}
	c.setState(StateTime)
}

func (c *Controller) extendNap(in stepInput) []Effect {
	c.nap = c.nap.Extend(c.timings, in.wall)
	return nil
}

// advanceNap ends a nap whose track finished and moves an active session
// through its timed phases.
func (c *Controller) advanceNap(t Tick) []Effect {
	if c.state == StateNapRinging {
		if t.Stopped {
			c.endNap()
		}
		return nil
	}
	if !c.state.IsNap() {
		return nil
	}

	next, due := c.nap.Advance(c.timings, t.At, t.Wall, t.LastInteraction)
	c.nap = next
	c.setState(napStates[next.Phase])
	if due {
		return []Effect{StartTrack(c.napTrack)}
	}
	return nil
}

// View is a read-only projection of the controller for display sinks.
type View struct {
	State      State
	Edit       EditBuffer
	Settings   Settings
	Latches    [AlarmCount]bool
	Nap        Nap
	TrackCount int
}

// View returns a copy of everything a renderer may show.
func (c *Controller) View() View {
	return View{
		State:      c.state,
		Edit:       c.edit,
		Settings:   c.settings,
		Latches:    c.latches,
		Nap:        c.nap,
		TrackCount: c.trackCount,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Settings returns the current settings.
func (c *Controller) Settings() Settings {
	return c.settings
}

// Latched reports whether an alarm has already been handled for today.
func (c *Controller) Latched(id AlarmID) bool {
	return c.latches[id]
}
