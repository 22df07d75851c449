// Command alarm-clock runs the bedside alarm clock: it polls the buttons,
// drives the display sinks and the audio player, and publishes events to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/alarm-clock/internal/audio"
	"github.com/sweeney/alarm-clock/internal/config"
	"github.com/sweeney/alarm-clock/internal/device"
	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/logger"
	"github.com/sweeney/alarm-clock/internal/logic"
	"github.com/sweeney/alarm-clock/internal/mqtt"
	"github.com/sweeney/alarm-clock/internal/rtc"
	"github.com/sweeney/alarm-clock/internal/settings"
	"github.com/sweeney/alarm-clock/internal/status"
	"github.com/sweeney/alarm-clock/internal/web"
)

// flags holds command line overrides. Empty values keep the config file.
type flags struct {
	configPath string
	logLevel   string
	httpAddr   string
	broker     string
	player     string
	printState bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "alarm-clock",
		Short: "Run the alarm clock daemon.",
		Long: `Polls the five front panel buttons, runs the clock state machine on a fixed
tick, plays alarm and nap tracks through an external player and publishes
alarm events to MQTT. A status page is served over HTTP with a live view of
the display on /ws.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			err = run(cmd.Context(), cfg, f.printState, cmd.OutOrStdout())
			if err != nil {
				logger.Logger().Errorw("fatal", "error", err)
			}
			logger.Sync()
			return err
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	cmd.Flags().StringVar(&f.httpAddr, "http", "", `HTTP status address (overrides config, "off" disables)`)
	cmd.Flags().StringVar(&f.broker, "broker", "", `MQTT broker address (overrides config, "off" disables)`)
	cmd.Flags().StringVar(&f.player, "player", "", `audio player command line, e.g. "mpg123 -q" (overrides config)`)
	cmd.Flags().BoolVar(&f.printState, "print-state", false, "Print current button state and exit")

	return cmd
}

// loadConfig reads the config file and applies flag overrides. A missing
// file at the default path is not an error.
func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	path := f.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.httpAddr != "" {
		cfg.HTTP.Addr = disableIfOff(f.httpAddr)
	}
	if f.broker != "" {
		cfg.MQTT.Broker = disableIfOff(f.broker)
	}
	if f.player != "" {
		argv, err := shlex.Split(f.player)
		if err != nil {
			return config.Config{}, fmt.Errorf("--player: %w", err)
		}
		cfg.Audio.PlayerCmd = argv
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	lvl, _ := logger.ParseLogLevel(cfg.Logging.Level)
	logger.SetLevel(lvl)
	return cfg, nil
}

func disableIfOff(v string) string {
	if v == "off" {
		return ""
	}
	return v
}

func run(ctx context.Context, cfg config.Config, printState bool, out io.Writer) error {
	// Initialize GPIO
	buttons, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.ButtonPins(), cfg.GPIO.ActiveLow)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer buttons.Close()

	// Print state mode
	if printState {
		in, err := buttons.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Fprintln(out, formatButtons(in))
		return nil
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := rtc.NewSystemClock(loc)

	catalog, err := audio.LoadCatalog(cfg.Audio.MediaDir, cfg.Audio.Extensions)
	if err != nil {
		return fmt.Errorf("load media: %w", err)
	}
	logger.InfoKV(ctx, "media catalog loaded", "dir", cfg.Audio.MediaDir, "tracks", catalog.Len())

	if cfg.Audio.ReapStale {
		n, err := audio.NewReaper().ReapStale(cfg.Audio.PlayerCmd)
		if err != nil {
			logger.WarnKV(ctx, "reap stale players", "error", err)
		} else if n > 0 {
			logger.InfoKV(ctx, "killed stale players", "count", n)
		}
	}

	player := audio.NewExecPlayer(catalog, cfg.Audio.PlayerCmd, cfg.Audio.MixerCmd)
	defer player.Stop()

	// Initialize MQTT
	var publisher mqtt.Publisher
	var connStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		p := mqtt.NewRealPublisher(ctx, mqtt.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			BufferSize:  cfg.MQTT.BufferSize,
		})
		defer p.Close()
		publisher, connStatus = p, p
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:      cfg.Timing.Tick.Milliseconds(),
		DebounceMs:  cfg.Timing.Debounce.Milliseconds(),
		LongPressMs: cfg.Timing.LongPress.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPPort:    cfg.HTTP.Addr,
		MediaDir:    cfg.Audio.MediaDir,
		Tracks:      catalog.Names(),
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	sinks := []device.Sink{tracker}
	var hub *web.Hub
	if cfg.HTTP.Addr != "" {
		hub = web.NewHub(ctx, web.HubConfig{})
		sinks = append(sinks, hub)
	}

	rt, err := device.New(ctx, device.Deps{
		Input:     buttons,
		Clock:     clock,
		Player:    player,
		Store:     settings.NewFileStore(cfg.SettingsFile),
		Publisher: publisher,
		Sinks:     sinks,
	}, device.Options{
		Timings:    cfg.Timings(),
		TrackCount: catalog.Len(),
		NapTrack:   cfg.Audio.NapTrack,
		Boot:       cue(cfg.Audio.BootTrack),
		Beep:       cue(cfg.Audio.BeepTrack),
	}, time.Now())
	if err != nil {
		return err
	}

	publishSystem(ctx, publisher, tracker, "STARTUP", "")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// Start HTTP status server. Failing to serve is logged, the clock keeps running.
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, hub)
		g.Go(func() error {
			hub.Run(gctx)
			return nil
		})
		g.Go(func() error {
			logger.InfoKV(ctx, "http status server listening", "addr", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.ErrorKV(ctx, "http server error", "error", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(sctx)
		})
	}

	logger.InfoKV(ctx, "started",
		"tick", cfg.Timing.Tick, "broker", cfg.MQTT.Broker, "heartbeat", cfg.MQTT.Heartbeat, "tracks", catalog.Len())

	ticker := time.NewTicker(cfg.Timing.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g.Go(func() error {
		defer cancel()
		return runLoop(gctx, loop{
			runtime:    rt,
			publisher:  publisher,
			mqttStatus: connStatus,
			tracker:    tracker,
			heartbeat:  cfg.MQTT.Heartbeat,
			now:        time.Now,
			tick:       ticker.C,
			sig:        sigCh,
		})
	})

	return g.Wait()
}

// cue turns an optional configured track into a device cue.
func cue(track *int) device.Cue {
	if track == nil {
		return device.Cue{}
	}
	return device.Cue{Track: *track, On: true}
}

// loop holds the collaborators of runLoop. publisher, mqttStatus and
// tracker may be nil.
type loop struct {
	runtime    *device.Runtime
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration
	now        func() time.Time
	tick       <-chan time.Time
	sig        <-chan os.Signal
}

func runLoop(ctx context.Context, l loop) error {
	for {
		select {
		case s := <-l.sig:
			logger.InfoKV(ctx, "shutting down", "signal", s)
			l.refresh()
			publishSystem(ctx, l.publisher, l.tracker, "SHUTDOWN", signalName(s))
			return nil

		case <-ctx.Done():
			return nil

		case <-l.tick:
			t := l.now()
			if err := l.runtime.Tick(t); err != nil {
				l.refresh()
				publishSystem(ctx, l.publisher, l.tracker, "SHUTDOWN", "FATAL")
				return err
			}

			// Check for heartbeat
			if hb := l.runtime.CheckHeartbeat(t, l.heartbeat); hb != nil {
				logger.InfoKV(ctx, "heartbeat",
					"uptime", hb.Uptime, "rings_a", hb.Counts.RingsA, "rings_b", hb.Counts.RingsB,
					"nap_rings", hb.Counts.NapRings, "input_errors", hb.Counts.InputErrors)

				// Refresh network info for heartbeat
				if l.tracker != nil {
					if net := readNetworkInfo(); net != nil {
						l.tracker.SetNetwork(net)
					}
				}
				l.refresh()
				publishSystem(ctx, l.publisher, l.tracker, "HEARTBEAT", "")
			}

			l.refresh()
		}
	}
}

// refresh copies runtime counters and the MQTT connection state into the
// tracker for HTTP consumers. Frames reach it as a device sink.
func (l loop) refresh() {
	if l.tracker == nil {
		return
	}
	l.tracker.SetCounts(l.runtime.Counts())
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

func publishSystem(ctx context.Context, publisher mqtt.Publisher, tracker *status.Tracker, event, reason string) {
	if publisher == nil {
		return
	}
	e := mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     event,
		Reason:    reason,
		Retained:  event != "HEARTBEAT",
	}
	if tracker != nil {
		snap := tracker.Snapshot()
		e.Timestamp = snap.Now
		e.RawPayload = status.FormatStatusEvent(snap, event, reason)
	}
	if err := publisher.PublishSystem(e); err != nil {
		logger.WarnKV(ctx, "publish system event", "event", event, "error", err)
		return
	}
	logger.DebugKV(ctx, "published system event", "event", event)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func formatButtons(in logic.RawInput) string {
	parts := make([]string, 0, len(logic.Buttons()))
	for _, b := range logic.Buttons() {
		state := "released"
		if in[b] {
			state = "pressed"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", b, state))
	}
	return strings.Join(parts, ", ")
}
