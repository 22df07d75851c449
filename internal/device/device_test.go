package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/alarm-clock/internal/audio"
	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/logic"
	"github.com/sweeney/alarm-clock/internal/mqtt"
	"github.com/sweeney/alarm-clock/internal/rtc"
	"github.com/sweeney/alarm-clock/internal/settings"
)

const step = 10 * time.Millisecond

// Monday 5 January 2026, 06:59:30.
var start = time.Date(2026, 1, 5, 6, 59, 30, 0, time.UTC)

type recordingSink struct {
	frames []Frame
}

func (s *recordingSink) Show(f Frame) {
	s.frames = append(s.frames, f)
}

type rig struct {
	t      *testing.T
	rt     *Runtime
	input  *gpio.FakeReader
	clock  *rtc.FakeClock
	player *audio.FakePlayer
	store  *settings.MemoryStore
	pub    *mqtt.FakePublisher
	sink   *recordingSink
	at     time.Time
}

func rigOptions() Options {
	return Options{Timings: logic.DefaultTimings(), TrackCount: 3, NapTrack: 2}
}

func newRig(t *testing.T, stored logic.Settings) *rig {
	t.Helper()
	return newRigWith(t, stored, rigOptions())
}

func newRigWith(t *testing.T, stored logic.Settings, opts Options) *rig {
	t.Helper()
	r := &rig{
		t:      t,
		input:  gpio.NewFakeReader([]logic.RawInput{gpio.Press()}),
		clock:  rtc.NewFakeClock(start),
		player: audio.NewFakePlayer(3),
		store:  settings.NewMemoryStore(stored),
		pub:    mqtt.NewFakePublisher(),
		sink:   &recordingSink{},
		at:     start,
	}
	rt, err := New(context.Background(), r.deps(), opts, start)
	require.NoError(t, err)
	r.rt = rt
	return r
}

func (r *rig) deps() Deps {
	return Deps{
		Input:     r.input,
		Clock:     r.clock,
		Player:    r.player,
		Store:     r.store,
		Publisher: r.pub,
		Sinks:     []Sink{r.sink},
	}
}

// tick advances both clocks by d and runs one pass.
func (r *rig) tick(d time.Duration) {
	r.t.Helper()
	r.at = r.at.Add(d)
	r.clock.Advance(d)
	require.NoError(r.t, r.rt.Tick(r.at))
}

// click presses b for 100ms and releases it for 100ms.
func (r *rig) click(b logic.Button) {
	r.t.Helper()
	r.input.Append(gpio.Hold(gpio.Press(b), 10)...)
	r.input.Append(gpio.Hold(gpio.Press(), 10)...)
	for i := 0; i < 20; i++ {
		r.tick(step)
	}
}

func alarmAt7() logic.Settings {
	s := logic.DefaultSettings()
	s.Alarms[logic.AlarmA] = logic.Alarm{Enabled: true, Hour: 7, Minute: 0, Track: 1}
	return s
}

func TestNewFailsOnUnreadableSettings(t *testing.T) {
	store := settings.NewMemoryStore(logic.Settings{})
	store.ReadError = errors.New("disk gone")

	_, err := New(context.Background(), Deps{
		Input:  gpio.NewFakeReader([]logic.RawInput{gpio.Press()}),
		Clock:  rtc.NewFakeClock(start),
		Player: audio.NewFakePlayer(3),
		Store:  store,
	}, Options{Timings: logic.DefaultTimings(), TrackCount: 3}, start)
	require.ErrorIs(t, err, ErrFatal)
}

func TestNewFailsWithoutTracks(t *testing.T) {
	_, err := New(context.Background(), Deps{
		Input:  gpio.NewFakeReader([]logic.RawInput{gpio.Press()}),
		Clock:  rtc.NewFakeClock(start),
		Player: audio.NewFakePlayer(0),
		Store:  settings.NewMemoryStore(logic.Settings{}),
	}, Options{Timings: logic.DefaultTimings()}, start)
	require.ErrorIs(t, err, ErrFatal)
	assert.ErrorIs(t, err, logic.ErrNoTracks)
}

func TestNewShowsFaultCode(t *testing.T) {
	cases := []struct {
		name  string
		setup func(d *Deps, o *Options)
		want  string
	}{
		{"clock", func(d *Deps, o *Options) { d.Clock = rtc.NewFakeClock(time.Time{}) }, "Er r1"},
		{"player", func(d *Deps, o *Options) {
			p := audio.NewFakePlayer(3)
			p.VolumeError = errors.New("no codec")
			d.Player = p
		}, "Er r2"},
		{"settings", func(d *Deps, o *Options) {
			m := settings.NewMemoryStore(logic.DefaultSettings())
			m.ReadError = errors.New("card removed")
			d.Store = m
		}, "Er r3"},
		{"tracks", func(d *Deps, o *Options) { o.TrackCount = 0 }, "Er r3"},
		{"nap track", func(d *Deps, o *Options) { o.NapTrack = 3 }, "Er r4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := &recordingSink{}
			deps := Deps{
				Input:  gpio.NewFakeReader([]logic.RawInput{gpio.Press()}),
				Clock:  rtc.NewFakeClock(start),
				Player: audio.NewFakePlayer(3),
				Store:  settings.NewMemoryStore(logic.DefaultSettings()),
				Sinks:  []Sink{sink},
			}
			opts := rigOptions()
			tc.setup(&deps, &opts)

			_, err := New(context.Background(), deps, opts, start)
			require.ErrorIs(t, err, ErrFatal)
			require.Len(t, sink.frames, 1)
			assert.Equal(t, tc.want, sink.frames[0].Face.Text())
		})
	}
}

func TestNewStoresDefaultsWhenUnset(t *testing.T) {
	r := newRig(t, logic.Settings{})
	require.Equal(t, 1, r.store.Writes())
	stored, err := r.store.Read()
	require.NoError(t, err)
	assert.True(t, stored.Valid)
	assert.Equal(t, logic.DefaultSettings().Volume, stored.Volume)
	assert.Empty(t, r.pub.Events)
}

func TestNewFailsWhenDefaultsCannotBeStored(t *testing.T) {
	store := settings.NewMemoryStore(logic.Settings{})
	store.WriteError = errors.New("read-only filesystem")
	sink := &recordingSink{}

	_, err := New(context.Background(), Deps{
		Input:  gpio.NewFakeReader([]logic.RawInput{gpio.Press()}),
		Clock:  rtc.NewFakeClock(start),
		Player: audio.NewFakePlayer(3),
		Store:  store,
		Sinks:  []Sink{sink},
	}, rigOptions(), start)
	require.ErrorIs(t, err, ErrFatal)
	require.Len(t, sink.frames, 1)
	assert.Equal(t, "Er r3", sink.frames[0].Face.Text())
}

func TestStoredSettingsAreNotRewritten(t *testing.T) {
	r := newRig(t, logic.DefaultSettings())
	assert.Equal(t, 0, r.store.Writes())
}

func TestBootSoundPlays(t *testing.T) {
	opts := rigOptions()
	opts.Boot = Cue{Track: 0, On: true}
	r := newRigWith(t, logic.DefaultSettings(), opts)
	assert.Equal(t, []int{0}, r.player.Played)

	quiet := newRig(t, logic.DefaultSettings())
	assert.Empty(t, quiet.player.Played)
}

func TestButtonBeepOnlyWhenIdle(t *testing.T) {
	opts := rigOptions()
	opts.Beep = Cue{Track: 0, On: true}
	r := newRigWith(t, logic.DefaultSettings(), opts)

	r.click(logic.ButtonMode)
	require.Equal(t, logic.StateDate, r.rt.State())
	assert.Equal(t, []int{0}, r.player.Played)

	// Still beeping: the next command is silent.
	r.click(logic.ButtonMode)
	assert.Equal(t, []int{0}, r.player.Played)

	r.player.Finish()
	r.click(logic.ButtonMode)
	assert.Equal(t, []int{0, 0}, r.player.Played)

	r.player.Finish()
	r.tick(step)
	assert.Equal(t, []int{0, 0}, r.player.Played, "no beep without a command")
}

func TestBeepGivesWayToAlarm(t *testing.T) {
	opts := rigOptions()
	opts.Beep = Cue{Track: 0, On: true}
	r := newRigWith(t, alarmAt7(), opts)

	r.click(logic.ButtonMode)
	require.Equal(t, 0, r.player.Current())

	r.tick(30 * time.Second)
	require.Equal(t, logic.StateRingingA, r.rt.State())
	assert.Equal(t, 1, r.player.Current(), "alarm track must replace the beep")
	assert.Equal(t, []int{0, 1}, r.player.Played)
}

func TestNewAppliesStoredVolume(t *testing.T) {
	s := logic.DefaultSettings()
	s.Volume = 55
	r := newRig(t, s)
	assert.Equal(t, 55, r.player.Volume)
	assert.Equal(t, logic.StateTime, r.rt.State())
}

func TestAlarmRingsAndStops(t *testing.T) {
	r := newRig(t, alarmAt7())

	r.tick(29 * time.Second)
	assert.Equal(t, logic.StateTime, r.rt.State())
	assert.Empty(t, r.player.Played)

	r.tick(time.Second)
	require.Equal(t, logic.StateRingingA, r.rt.State())
	assert.Equal(t, []int{1}, r.player.Played)
	require.Len(t, r.pub.Events, 1)
	assert.Equal(t, mqtt.EventAlarmRinging, r.pub.Events[0].Type)
	assert.Equal(t, "A", r.pub.Events[0].Source)
	assert.Equal(t, 1, r.pub.Events[0].Track)

	r.click(logic.ButtonSnooze)
	assert.Equal(t, logic.StateTime, r.rt.State())
	assert.Equal(t, 1, r.player.Stops)
	assert.Equal(t, []mqtt.EventType{mqtt.EventAlarmRinging, mqtt.EventAlarmStopped}, r.pub.Types())

	c := r.rt.Counts()
	assert.Equal(t, 1, c.RingsA)
	assert.Equal(t, 1, c.Stops)

	// Latched: the rest of the minute does not ring again.
	r.tick(10 * time.Second)
	assert.Equal(t, logic.StateTime, r.rt.State())
	assert.Len(t, r.player.Played, 1)
}

func TestAlarmCompletesWhenTrackEnds(t *testing.T) {
	r := newRig(t, alarmAt7())
	r.tick(30 * time.Second)
	require.Equal(t, logic.StateRingingA, r.rt.State())

	r.player.Finish()
	r.tick(step)
	assert.Equal(t, logic.StateTime, r.rt.State())
	assert.Equal(t, mqtt.EventAlarmStopped, r.pub.Events[len(r.pub.Events)-1].Type)
}

func TestVolumeChangeIsAppliedAndSaved(t *testing.T) {
	r := newRig(t, logic.DefaultSettings())
	initial := r.player.Volume

	r.click(logic.ButtonUp)
	require.Equal(t, logic.StateVolume, r.rt.State())
	assert.Equal(t, initial, r.player.Volume)

	r.click(logic.ButtonUp)
	assert.Equal(t, initial+1, r.player.Volume)
	assert.Equal(t, 0, r.store.Writes())

	r.click(logic.ButtonSet)
	assert.Equal(t, logic.StateTime, r.rt.State())
	require.Equal(t, 1, r.store.Writes())
	stored, err := r.store.Read()
	require.NoError(t, err)
	assert.Equal(t, initial+1, stored.Volume)

	require.NotEmpty(t, r.pub.Events)
	last := r.pub.Events[len(r.pub.Events)-1]
	assert.Equal(t, mqtt.EventSettingsSaved, last.Type)
	assert.Equal(t, initial+1, last.Volume)
	assert.Equal(t, 1, r.rt.Counts().SettingsSaved)
}

func TestPersistFailureIsFatal(t *testing.T) {
	r := newRig(t, logic.DefaultSettings())
	r.store.WriteError = errors.New("read-only filesystem")

	r.click(logic.ButtonUp)
	r.input.Append(gpio.Hold(gpio.Press(logic.ButtonSet), 10)...)
	r.input.Append(gpio.Hold(gpio.Press(), 10)...)

	var err error
	for i := 0; i < 20 && err == nil; i++ {
		r.at = r.at.Add(step)
		r.clock.Advance(step)
		err = r.rt.Tick(r.at)
	}
	require.ErrorIs(t, err, ErrFatal)
}

func TestTimeEditAdjustsClock(t *testing.T) {
	r := newRig(t, logic.DefaultSettings())

	r.click(logic.ButtonSet)
	require.Equal(t, logic.StateSetHour, r.rt.State())
	r.click(logic.ButtonUp)
	r.click(logic.ButtonMode)

	assert.Equal(t, logic.StateTime, r.rt.State())
	require.Len(t, r.clock.Adjustments, 1)
	assert.Equal(t, 7, r.clock.Adjustments[0].Hour())
	assert.Equal(t, 7, r.clock.Now().Hour())
	assert.Equal(t, 1, r.rt.Counts().ClockAdjusts)
	assert.Equal(t, mqtt.EventClockAdjusted, r.pub.Events[len(r.pub.Events)-1].Type)
}

func TestClockAdjustFailureIsNotFatal(t *testing.T) {
	r := newRig(t, logic.DefaultSettings())
	r.clock.AdjustError = errors.New("permission denied")

	r.click(logic.ButtonSet)
	r.click(logic.ButtonMode)

	assert.Equal(t, logic.StateTime, r.rt.State())
	assert.Equal(t, 1, r.rt.Counts().EffectErrors)
	assert.Equal(t, 0, r.rt.Counts().ClockAdjusts)
	assert.Empty(t, r.pub.Events)
}

func TestNapSessionPublishesAndRings(t *testing.T) {
	r := newRig(t, logic.DefaultSettings())

	// Long press SNOOZE.
	r.input.Append(gpio.Hold(gpio.Press(logic.ButtonSnooze), 220)...)
	r.input.Append(gpio.Hold(gpio.Press(), 10)...)
	for i := 0; i < 230; i++ {
		r.tick(step)
	}
	require.True(t, r.rt.State().IsNap(), "state %v", r.rt.State())
	assert.Equal(t, mqtt.EventNapStarted, r.pub.Events[0].Type)

	r.tick(3 * time.Second)
	r.tick(4 * time.Second)
	require.Equal(t, logic.StateNapCounting, r.rt.State())

	r.tick(10 * time.Minute)
	require.Equal(t, logic.StateNapRinging, r.rt.State())
	assert.Equal(t, []int{2}, r.player.Played)
	assert.Equal(t, 1, r.rt.Counts().NapRings)

	ring := r.pub.Events[len(r.pub.Events)-1]
	assert.Equal(t, mqtt.EventAlarmRinging, ring.Type)
	assert.Equal(t, "NAP", ring.Source)
	assert.Equal(t, 2, ring.Track)

	r.click(logic.ButtonSnooze)
	assert.Equal(t, logic.StateTime, r.rt.State())
	assert.Equal(t, mqtt.EventAlarmStopped, r.pub.Events[len(r.pub.Events)-1].Type)
}

func TestInputErrorsAreCounted(t *testing.T) {
	r := newRig(t, logic.DefaultSettings())
	r.input.ReadError = errors.New("line busy")

	r.tick(step)
	r.tick(step)
	assert.Equal(t, 2, r.rt.Counts().InputErrors)
	assert.Equal(t, logic.StateTime, r.rt.State())
}

func TestSinksReceiveEveryFrame(t *testing.T) {
	r := newRig(t, logic.DefaultSettings())

	r.tick(step)
	r.tick(step)
	require.Len(t, r.sink.frames, 2)

	f := r.sink.frames[1]
	assert.Equal(t, r.at, f.At)
	assert.Equal(t, logic.StateTime, f.View.State)
	assert.Equal(t, " 6:59", f.Face.Text())
	assert.Equal(t, f, r.rt.Last())
}

func TestNilPublisherIsAllowed(t *testing.T) {
	r := newRig(t, alarmAt7())
	deps := r.deps()
	deps.Publisher = nil
	rt, err := New(context.Background(), deps, Options{Timings: logic.DefaultTimings(), TrackCount: 3, NapTrack: 2}, start)
	require.NoError(t, err)
	r.rt = rt

	r.tick(30 * time.Second)
	assert.Equal(t, logic.StateRingingA, r.rt.State())
}

func TestCheckHeartbeat(t *testing.T) {
	r := newRig(t, logic.DefaultSettings())

	assert.Nil(t, r.rt.CheckHeartbeat(start.Add(time.Hour), 0))
	assert.Nil(t, r.rt.CheckHeartbeat(start.Add(14*time.Minute), 15*time.Minute))

	hb := r.rt.CheckHeartbeat(start.Add(15*time.Minute), 15*time.Minute)
	require.NotNil(t, hb)
	assert.Equal(t, 15*time.Minute, hb.Uptime)

	assert.Nil(t, r.rt.CheckHeartbeat(start.Add(20*time.Minute), 15*time.Minute))
	hb = r.rt.CheckHeartbeat(start.Add(30*time.Minute), 15*time.Minute)
	require.NotNil(t, hb)
	assert.Equal(t, 30*time.Minute, hb.Uptime)
}
