// Package device runs the alarm clock: it reads the buttons, steps the
// controller, executes the resulting effects against the hardware and feeds
// the rendered face to display sinks. One Tick is one pass of that pipeline,
// always in the same order.
package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/alarm-clock/internal/audio"
	"github.com/sweeney/alarm-clock/internal/display"
	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/logger"
	"github.com/sweeney/alarm-clock/internal/logic"
	"github.com/sweeney/alarm-clock/internal/mqtt"
	"github.com/sweeney/alarm-clock/internal/rtc"
	"github.com/sweeney/alarm-clock/internal/settings"
)

// ErrFatal marks errors after which the daemon must stop.
var ErrFatal = errors.New("fatal device error")

// Fault codes shown as "Err N" when the runtime cannot start.
const (
	FaultClock    = 1
	FaultPlayer   = 2
	FaultStorage  = 3
	FaultNapTrack = 4
)

// Frame is what display sinks receive after every tick.
type Frame struct {
	At   time.Time
	Wall time.Time
	View logic.View
	Face display.Frame
}

// Sink consumes rendered frames. Show is called on the tick goroutine and
// must not block.
type Sink interface {
	Show(f Frame)
}

// Deps are the collaborators of a Runtime. Publisher may be nil.
type Deps struct {
	Input     gpio.Reader
	Clock     rtc.Source
	Player    audio.Player
	Store     settings.Store
	Publisher mqtt.Publisher
	Sinks     []Sink
}

// Cue is an optional sound. The zero Cue plays nothing.
type Cue struct {
	Track int
	On    bool
}

// Options configure the controller built by New.
type Options struct {
	Timings    logic.Timings
	TrackCount int
	NapTrack   int
	// Boot is played once by New. Beep is played for every command
	// that arrives while the player is idle.
	Boot Cue
	Beep Cue
}

// Runtime owns the controller and the input classifier.
type Runtime struct {
	deps       Deps
	beep       Cue
	ctrl       *logic.Controller
	classifier *logic.Classifier
	log        *zap.SugaredLogger

	start         time.Time
	lastHeartbeat time.Time
	counts        Counts
	last          Frame
}

// New loads the settings and builds the controller. An unset clock, a
// player that rejects the stored volume, unreadable or unwritable settings,
// an empty track catalog and a nap track outside it are fatal; each shows
// its fault code on the sinks before New returns.
func New(ctx context.Context, deps Deps, opts Options, start time.Time) (*Runtime, error) {
	if deps.Clock.Now().IsZero() {
		return nil, Halt(deps.Sinks, FaultClock, errors.New("clock not set"))
	}

	stored, err := deps.Store.Read()
	if err != nil {
		return nil, Halt(deps.Sinks, FaultStorage, fmt.Errorf("read settings: %w", err))
	}

	ctrl, err := logic.NewController(stored, opts.TrackCount, opts.NapTrack, opts.Timings)
	if err != nil {
		return nil, Halt(deps.Sinks, FaultStorage, err)
	}
	if opts.NapTrack < 0 || opts.NapTrack >= opts.TrackCount {
		return nil, Halt(deps.Sinks, FaultNapTrack,
			fmt.Errorf("nap track %d not in catalog of %d", opts.NapTrack, opts.TrackCount))
	}

	r := &Runtime{
		deps:          deps,
		beep:          opts.Beep,
		ctrl:          ctrl,
		classifier:    logic.NewClassifier(opts.Timings, nil, start),
		log:           logger.FromContext(logger.WithName(ctx, "device")),
		start:         start,
		lastHeartbeat: start,
	}

	if !stored.Valid {
		if err := deps.Store.Write(ctrl.Settings()); err != nil {
			return nil, Halt(deps.Sinks, FaultStorage, fmt.Errorf("write default settings: %w", err))
		}
		r.log.Infow("no stored settings, defaults saved")
	}
	if err := deps.Player.SetVolume(ctrl.Settings().Volume); err != nil {
		return nil, Halt(deps.Sinks, FaultPlayer, fmt.Errorf("set initial volume: %w", err))
	}
	if opts.Boot.On {
		if err := deps.Player.Play(opts.Boot.Track); err != nil {
			r.log.Warnw("boot sound", "track", opts.Boot.Track, "error", err)
		}
	}
	return r, nil
}

// Halt shows the fault code on every sink and returns err wrapped in
// ErrFatal.
func Halt(sinks []Sink, code int, err error) error {
	f := Frame{Face: display.Err(code)}
	for _, s := range sinks {
		s.Show(f)
	}
	return fmt.Errorf("%w: Err %d: %w", ErrFatal, code, err)
}

// Tick runs one pass: input, classification, controller step, effects,
// telemetry and rendering. at is the monotonic tick instant.
// Only errors wrapping ErrFatal are returned.
func (r *Runtime) Tick(at time.Time) error {
	raw, err := r.deps.Input.Read()
	if err != nil {
		r.counts.InputErrors++
		r.log.Warnw("input read", "error", err)
		raw = nil
	}

	ev := r.classifier.Process(raw, at)
	cmd := logic.CommandFor(ev)
	if cmd != logic.CommandNone {
		r.log.Debugw("command", "button", ev.Button, "edge", ev.Edge, "command", cmd)
	}

	wall := r.deps.Clock.Now()
	before := r.ctrl.State()
	stopped := r.deps.Player.Stopped()

	effects := r.ctrl.Step(logic.Tick{
		At:              at,
		Wall:            wall,
		Command:         cmd,
		Stopped:         stopped,
		LastInteraction: r.classifier.LastInteraction(),
	})

	// The beep goes out before the effects so a track started this tick
	// replaces it.
	if cmd != logic.CommandNone && stopped && r.beep.On {
		if err := r.deps.Player.Play(r.beep.Track); err != nil {
			r.log.Debugw("button beep", "track", r.beep.Track, "error", err)
		}
	}

	after := r.ctrl.State()
	if after != before {
		r.log.Debugw("state", "from", before, "to", after, "command", cmd)
	}

	for _, e := range effects {
		if err := r.execute(e, wall); err != nil {
			return err
		}
	}
	r.announce(before, after, effects, wall)

	r.render(at)
	return nil
}

func (r *Runtime) execute(e logic.Effect, wall time.Time) error {
	switch e.Kind {
	case logic.EffectStartTrack:
		if err := r.deps.Player.Play(e.Track); err != nil {
			r.counts.EffectErrors++
			r.log.Errorw("start track", "track", e.Track, "error", err)
		}
	case logic.EffectStopPlayback:
		if err := r.deps.Player.Stop(); err != nil {
			r.counts.EffectErrors++
			r.log.Errorw("stop playback", "error", err)
		}
	case logic.EffectSetVolume:
		if err := r.deps.Player.SetVolume(e.Volume); err != nil {
			r.counts.EffectErrors++
			r.log.Warnw("set volume", "volume", e.Volume, "error", err)
		}
	case logic.EffectAdjustClock:
		if err := r.deps.Clock.Adjust(e.Time); err != nil {
			r.counts.EffectErrors++
			r.log.Errorw("adjust clock", "time", e.Time, "error", err)
			return nil
		}
		r.counts.ClockAdjusts++
		r.log.Infow("clock adjusted", "from", wall, "to", e.Time)
	case logic.EffectPersistSettings:
		if err := r.deps.Store.Write(e.Settings); err != nil {
			return fmt.Errorf("%w: persist settings: %v", ErrFatal, err)
		}
		r.counts.SettingsSaved++
		r.log.Infow("settings saved", "volume", e.Settings.Volume)
	}
	return nil
}

// announce counts ring and stop transitions and publishes telemetry.
func (r *Runtime) announce(before, after logic.State, effects []logic.Effect, wall time.Time) {
	if after != before {
		if source, ok := ringSource(after); ok {
			track := playingTrack(effects)
			r.counts.ring(after)
			r.log.Infow("ringing", "source", source, "track", track)
			r.publish(mqtt.Event{Timestamp: wall, Type: mqtt.EventAlarmRinging, Source: source, Track: track})
		}
		if source, ok := ringSource(before); ok {
			r.counts.Stops++
			r.log.Infow("ringing stopped", "source", source, "next", after)
			r.publish(mqtt.Event{Timestamp: wall, Type: mqtt.EventAlarmStopped, Source: source})
		}
		if after == logic.StateNapIntro {
			r.publish(mqtt.Event{Timestamp: wall, Type: mqtt.EventNapStarted})
		}
	}

	for _, e := range effects {
		switch e.Kind {
		case logic.EffectPersistSettings:
			r.publish(mqtt.Event{Timestamp: wall, Type: mqtt.EventSettingsSaved, Volume: e.Settings.Volume})
		case logic.EffectAdjustClock:
			r.publish(mqtt.Event{Timestamp: wall, Type: mqtt.EventClockAdjusted, Clock: e.Time})
		}
	}
}

func (r *Runtime) publish(e mqtt.Event) {
	if r.deps.Publisher == nil {
		return
	}
	if err := r.deps.Publisher.Publish(e); err != nil {
		r.log.Warnw("publish", "event", e.Type, "error", err)
	}
}

func (r *Runtime) render(at time.Time) {
	wall := r.deps.Clock.Now()
	view := r.ctrl.View()
	r.last = Frame{At: at, Wall: wall, View: view, Face: display.Render(view, wall)}
	for _, s := range r.deps.Sinks {
		s.Show(r.last)
	}
}

// Last returns the frame rendered by the most recent tick.
func (r *Runtime) Last() Frame {
	return r.last
}

// State returns the controller state.
func (r *Runtime) State() logic.State {
	return r.ctrl.State()
}

// Pressed reports the debounced level of b.
func (r *Runtime) Pressed(b logic.Button) bool {
	return r.classifier.Pressed(b)
}

func ringSource(s logic.State) (string, bool) {
	switch s {
	case logic.StateRingingA:
		return logic.AlarmA.String(), true
	case logic.StateRingingB:
		return logic.AlarmB.String(), true
	case logic.StateNapRinging:
		return "NAP", true
	}
	return "", false
}

// playingTrack returns the track of the last StartTrack effect, which
// is the one left playing.
func playingTrack(effects []logic.Effect) int {
	track := -1
	for _, e := range effects {
		if e.Kind == logic.EffectStartTrack {
			track = e.Track
		}
	}
	return track
}
