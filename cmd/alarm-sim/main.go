// Command alarm-sim runs the alarm clock in a terminal with simulated
// buttons, clock and audio.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sweeney/alarm-clock/internal/audio"
	"github.com/sweeney/alarm-clock/internal/device"
	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/logger"
	"github.com/sweeney/alarm-clock/internal/logic"
	"github.com/sweeney/alarm-clock/internal/mqtt"
	"github.com/sweeney/alarm-clock/internal/rtc"
	"github.com/sweeney/alarm-clock/internal/settings"
)

type options struct {
	settingsFile string
	tracks       int
	napTrack     int
	start        string
	tick         time.Duration
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "alarm-sim: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "alarm-sim",
		Short: "Simulate the alarm clock in the terminal.",
		Long: `Runs the alarm clock state machine against simulated hardware. Keys press
the front panel buttons, the wall clock can be moved forward and the audio
player reports tracks as finished on demand.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The terminal belongs to the UI.
			logger.SetLogger(logger.New(io.Discard, nil))

			m, err := newModel(cmd.Context(), o, time.Now())
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(model); ok && fm.err != nil {
				return fm.err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&o.settingsFile, "settings", "", "persist settings to this YAML file (default in memory)")
	cmd.Flags().IntVar(&o.tracks, "tracks", 3, "number of simulated tracks")
	cmd.Flags().IntVar(&o.napTrack, "nap-track", 0, "track played when a nap ends")
	cmd.Flags().StringVar(&o.start, "start", "", "initial wall clock as HH:MM (default now)")
	cmd.Flags().DurationVar(&o.tick, "tick", 10*time.Millisecond, "tick period")

	return cmd
}

// sim is the simulated hardware around one runtime.
type sim struct {
	rt     *device.Runtime
	input  *gpio.FakeReader
	clock  *rtc.FakeClock
	player *audio.FakePlayer
	pub    *mqtt.FakePublisher
	store  settings.Store
	tick   time.Duration
	at     time.Time
}

func newSim(ctx context.Context, o options, now time.Time) (*sim, error) {
	if o.tick <= 0 {
		return nil, fmt.Errorf("tick must be positive, got %v", o.tick)
	}

	wall := now
	if o.start != "" {
		hm, err := time.Parse("15:04", o.start)
		if err != nil {
			return nil, fmt.Errorf("--start: %w", err)
		}
		wall = time.Date(now.Year(), now.Month(), now.Day(), hm.Hour(), hm.Minute(), 0, 0, now.Location())
	}

	var store settings.Store = settings.NewMemoryStore(logic.Settings{})
	if o.settingsFile != "" {
		store = settings.NewFileStore(o.settingsFile)
	}

	s := &sim{
		input:  gpio.NewFakeReader([]logic.RawInput{gpio.Press()}),
		clock:  rtc.NewFakeClock(wall),
		player: audio.NewFakePlayer(o.tracks),
		pub:    mqtt.NewFakePublisher(),
		store:  store,
		tick:   o.tick,
		at:     now,
	}

	rt, err := device.New(ctx, device.Deps{
		Input:     s.input,
		Clock:     s.clock,
		Player:    s.player,
		Store:     s.store,
		Publisher: s.pub,
	}, device.Options{
		Timings:    logic.DefaultTimings(),
		TrackCount: o.tracks,
		NapTrack:   o.napTrack,
	}, now)
	if err != nil {
		return nil, err
	}
	s.rt = rt
	return s, nil
}

// step advances both clocks by one tick and runs the runtime.
func (s *sim) step() error {
	s.at = s.at.Add(s.tick)
	s.clock.Advance(s.tick)
	return s.rt.Tick(s.at)
}

// ticksFor returns how many ticks cover d, rounded up.
func (s *sim) ticksFor(d time.Duration) int {
	return int((d + s.tick - 1) / s.tick)
}

// click queues a short press of b.
func (s *sim) click(b logic.Button) {
	n := s.ticksFor(100 * time.Millisecond)
	s.input.Append(gpio.Hold(gpio.Press(b), n)...)
	s.input.Append(gpio.Hold(gpio.Press(), n)...)
}

// longPress queues a press of b held past the long press threshold.
func (s *sim) longPress(b logic.Button) {
	t := logic.DefaultTimings()
	s.input.Append(gpio.Hold(gpio.Press(b), s.ticksFor(t.LongPress+t.Debounce+100*time.Millisecond))...)
	s.input.Append(gpio.Hold(gpio.Press(), s.ticksFor(100*time.Millisecond))...)
}
