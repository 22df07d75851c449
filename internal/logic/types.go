// Package logic contains the pure decision logic of the alarm clock.
// This package has NO external dependencies (no GPIO, audio, files, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"time"
)

// Command is a discrete user intent derived from button edges.
// At most one Command is produced per tick.
type Command int

const (
	CommandNone Command = iota
	CommandMode
	CommandSet
	CommandUp
	CommandDown
	CommandStopOrSnooze
	CommandNap
)

var commandNames = [...]string{"NONE", "MODE", "SET", "UP", "DOWN", "STOP_OR_SNOOZE", "NAP"}

func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return "UNKNOWN"
	}
	return commandNames[c]
}

// Commands lists every Command, including CommandNone.
func Commands() []Command {
	return []Command{CommandNone, CommandMode, CommandSet, CommandUp, CommandDown, CommandStopOrSnooze, CommandNap}
}

// AlarmID identifies one of the two fixed alarms.
type AlarmID int

const (
	AlarmA AlarmID = iota
	AlarmB
)

// AlarmCount is the number of configurable alarms.
const AlarmCount = 2

func (id AlarmID) String() string {
	if id == AlarmB {
		return "B"
	}
	return "A"
}

// Alarm is the user configuration of one alarm.
type Alarm struct {
	Enabled bool
	Hour    int
	Minute  int
	Weekend bool // ring on Saturday and Sunday too
	Track   int
}

// Settings are the persisted user preferences.
// Valid is false when the store has never been written; defaults apply then.
type Settings struct {
	Valid  bool
	Alarms [AlarmCount]Alarm
	Volume int
}

// DefaultSettings returns the first-boot configuration.
func DefaultSettings() Settings {
	return Settings{
		Valid: true,
		Alarms: [AlarmCount]Alarm{
			{Hour: 7, Minute: 0},
			{Hour: 8, Minute: 30, Weekend: true},
		},
		Volume: 40,
	}
}

// Normalize forces every field into its valid range. Out-of-range values are
// wrapped, never rejected.
func (s Settings) Normalize(trackCount int) Settings {
	if !s.Valid {
		s = DefaultSettings()
	}
	s.Volume = wrap(s.Volume, volumeModulus)
	for i := range s.Alarms {
		a := &s.Alarms[i]
		a.Hour = wrap(a.Hour, 24)
		a.Minute = wrap(a.Minute, 60)
		a.Track = wrap(a.Track, trackCount)
	}
	return s
}

// EditBuffer is a local snapshot of the fields being edited. It decouples an
// in-progress edit from the live time source and from the stored settings.
type EditBuffer struct {
	Year   int // offset from 2000, 0–99
	Month  int // 0–11
	Day    int // 0–30
	Hour   int
	Minute int
	Second int

	// Alarm is the draft of the alarm being edited, if any.
	Alarm Alarm
}

// NewEditBuffer snapshots the calendar fields of t.
func NewEditBuffer(t time.Time) EditBuffer {
	return EditBuffer{
		Year:   wrap(t.Year()-2000, 100),
		Month:  int(t.Month()) - 1,
		Day:    t.Day() - 1,
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Time converts the buffer back to an absolute instant in loc.
func (b EditBuffer) Time(loc *time.Location) time.Time {
	return time.Date(2000+b.Year, time.Month(b.Month+1), b.Day+1, b.Hour, b.Minute, b.Second, 0, loc)
}

// EffectKind tags an Effect.
type EffectKind int

const (
	EffectStartTrack EffectKind = iota
	EffectStopPlayback
	EffectAdjustClock
	EffectPersistSettings
	EffectSetVolume
)

var effectNames = [...]string{"START_TRACK", "STOP_PLAYBACK", "ADJUST_CLOCK", "PERSIST_SETTINGS", "SET_VOLUME"}

func (k EffectKind) String() string {
	if k < 0 || int(k) >= len(effectNames) {
		return "UNKNOWN"
	}
	return effectNames[k]
}

// Effect is a request for the runtime to act on a collaborator.
// Only the fields relevant to Kind are set.
type Effect struct {
	Kind     EffectKind
	Track    int
	Time     time.Time
	Settings Settings
	Volume   int
}

// StartTrack requests playback of a track.
func StartTrack(track int) Effect { return Effect{Kind: EffectStartTrack, Track: track} }

// StopPlayback requests that any playback stops.
func StopPlayback() Effect { return Effect{Kind: EffectStopPlayback} }

// AdjustClock requests that the time source is set to t.
func AdjustClock(t time.Time) Effect { return Effect{Kind: EffectAdjustClock, Time: t} }

// PersistSettings requests that s is written to the settings store.
func PersistSettings(s Settings) Effect { return Effect{Kind: EffectPersistSettings, Settings: s} }

// SetVolume requests a new playback volume.
func SetVolume(v int) Effect { return Effect{Kind: EffectSetVolume, Volume: v} }

// Timings holds every delay used by the core.
type Timings struct {
	Debounce      time.Duration
	LongPress     time.Duration
	VolumeIdle    time.Duration
	DisplayIdle   time.Duration
	DarkIdle      time.Duration
	NapIntro      time.Duration
	NapConfigIdle time.Duration
	NapIncrement  time.Duration
	NapMax        time.Duration
}

// DefaultTimings returns the delays of the shipped device.
func DefaultTimings() Timings {
	return Timings{
		Debounce:      50 * time.Millisecond,
		LongPress:     2000 * time.Millisecond,
		VolumeIdle:    3 * time.Second,
		DisplayIdle:   10 * time.Second,
		DarkIdle:      60 * time.Second,
		NapIntro:      2 * time.Second,
		NapConfigIdle: 3 * time.Second,
		NapIncrement:  10 * time.Minute,
		NapMax:        99*time.Minute + 59*time.Second,
	}
}

// ErrNoTracks is returned when the controller is built without any playable track.
var ErrNoTracks = errors.New("no playable tracks")

// Tick is everything the controller needs for one step.
type Tick struct {
	// At is the monotonic tick instant used for idle timeouts.
	At time.Time
	// Wall is the current wall-clock time from the time source.
	Wall time.Time
	// Command is the classified input of this tick.
	Command Command
	// Stopped reports whether the audio player has finished playing.
	Stopped bool
	// LastInteraction is when the classifier last emitted an event.
	LastInteraction time.Time
}
