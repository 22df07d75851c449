// Package config loads the daemon configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/logger"
	"github.com/sweeney/alarm-clock/internal/logic"
)

// DefaultConfigFilename is used when no --config flag is given.
const DefaultConfigFilename = "/etc/alarm-clock/config.yaml"

// Config is the full daemon configuration.
type Config struct {
	GPIO         GPIO    `yaml:"gpio"`
	Timing       Timing  `yaml:"timing"`
	Audio        Audio   `yaml:"audio"`
	SettingsFile string  `yaml:"settings_file"`
	Timezone     string  `yaml:"timezone"`
	MQTT         MQTT    `yaml:"mqtt"`
	HTTP         HTTP    `yaml:"http"`
	Logging      Logging `yaml:"logging"`
}

// GPIO selects the chip and the BCM line of each button.
type GPIO struct {
	Chip      string `yaml:"chip"`
	ActiveLow bool   `yaml:"active_low"`
	Pins      Pins   `yaml:"pins"`
}

// Pins is the per-button line offset.
type Pins struct {
	Mode   int `yaml:"mode"`
	Set    int `yaml:"set"`
	Up     int `yaml:"up"`
	Down   int `yaml:"down"`
	Snooze int `yaml:"snooze"`
}

// Timing holds the tick period and every controller delay.
type Timing struct {
	Tick          time.Duration `yaml:"tick"`
	Debounce      time.Duration `yaml:"debounce"`
	LongPress     time.Duration `yaml:"long_press"`
	VolumeIdle    time.Duration `yaml:"volume_idle"`
	DisplayIdle   time.Duration `yaml:"display_idle"`
	DarkIdle      time.Duration `yaml:"dark_idle"`
	NapIntro      time.Duration `yaml:"nap_intro"`
	NapConfigIdle time.Duration `yaml:"nap_config_idle"`
	NapIncrement  time.Duration `yaml:"nap_increment"`
	NapMax        time.Duration `yaml:"nap_max"`
}

// Audio configures the external player and the media catalog.
type Audio struct {
	MediaDir   string   `yaml:"media_dir"`
	PlayerCmd  []string `yaml:"player_cmd"`
	MixerCmd   []string `yaml:"mixer_cmd"`
	Extensions []string `yaml:"extensions"`
	NapTrack   int      `yaml:"nap_track"`
	// BootTrack and BeepTrack are catalog indexes of the startup sound
	// and the button beep. Unset means silent.
	BootTrack *int `yaml:"boot_track"`
	BeepTrack *int `yaml:"beep_track"`
	ReapStale bool `yaml:"reap_stale"`
}

// MQTT configures the telemetry sink. An empty broker disables it.
type MQTT struct {
	Broker      string        `yaml:"broker"`
	ClientID    string        `yaml:"client_id"`
	TopicPrefix string        `yaml:"topic_prefix"`
	Heartbeat   time.Duration `yaml:"heartbeat"`
	BufferSize  int           `yaml:"buffer_size"`
}

// HTTP configures the status server. An empty address disables it.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// Logging configures the zap logger.
type Logging struct {
	Level string `yaml:"level"`
}

// Default returns the configuration of the reference board.
func Default() Config {
	t := logic.DefaultTimings()
	pins := gpio.DefaultPins()
	return Config{
		GPIO: GPIO{
			Chip:      gpio.DefaultChip,
			ActiveLow: true,
			Pins: Pins{
				Mode:   pins[logic.ButtonMode],
				Set:    pins[logic.ButtonSet],
				Up:     pins[logic.ButtonUp],
				Down:   pins[logic.ButtonDown],
				Snooze: pins[logic.ButtonSnooze],
			},
		},
		Timing: Timing{
			Tick:          10 * time.Millisecond,
			Debounce:      t.Debounce,
			LongPress:     t.LongPress,
			VolumeIdle:    t.VolumeIdle,
			DisplayIdle:   t.DisplayIdle,
			DarkIdle:      t.DarkIdle,
			NapIntro:      t.NapIntro,
			NapConfigIdle: t.NapConfigIdle,
			NapIncrement:  t.NapIncrement,
			NapMax:        t.NapMax,
		},
		Audio: Audio{
			MediaDir:   "/var/lib/alarm-clock/media",
			PlayerCmd:  []string{"mpg123", "-q"},
			MixerCmd:   []string{"amixer", "-q", "sset", "Master", "{volume}%"},
			Extensions: []string{".mp3", ".wav", ".ogg"},
			ReapStale:  true,
		},
		SettingsFile: "/var/lib/alarm-clock/settings.yaml",
		Timezone:     "Local",
		MQTT: MQTT{
			Broker:      "tcp://192.168.1.200:1883",
			ClientID:    "alarm-clock",
			TopicPrefix: "home/alarm-clock",
			Heartbeat:   15 * time.Minute,
			BufferSize:  1000,
		},
		HTTP:    HTTP{Addr: ":80"},
		Logging: Logging{Level: "info"},
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first user-facing problem with the configuration.
func (c Config) Validate() error {
	if c.GPIO.Chip == "" {
		return errors.New("gpio.chip must be set")
	}
	seen := map[int]logic.Button{}
	for b, pin := range c.ButtonPins() {
		if pin < 0 {
			return fmt.Errorf("gpio.pins.%s: negative line %d", strings.ToLower(b.String()), pin)
		}
		if other, ok := seen[pin]; ok {
			return fmt.Errorf("gpio.pins: line %d used by both %s and %s", pin, other, b)
		}
		seen[pin] = b
	}

	if c.Timing.Tick <= 0 {
		return errors.New("timing.tick must be positive")
	}
	if c.Timing.Debounce < c.Timing.Tick {
		return fmt.Errorf("timing.debounce (%v) must be at least one tick (%v)", c.Timing.Debounce, c.Timing.Tick)
	}
	if c.Timing.LongPress <= c.Timing.Debounce {
		return errors.New("timing.long_press must be longer than timing.debounce")
	}
	for name, d := range map[string]time.Duration{
		"volume_idle":     c.Timing.VolumeIdle,
		"display_idle":    c.Timing.DisplayIdle,
		"dark_idle":       c.Timing.DarkIdle,
		"nap_intro":       c.Timing.NapIntro,
		"nap_config_idle": c.Timing.NapConfigIdle,
		"nap_increment":   c.Timing.NapIncrement,
	} {
		if d <= 0 {
			return fmt.Errorf("timing.%s must be positive", name)
		}
	}
	if c.Timing.NapMax < c.Timing.NapIncrement {
		return errors.New("timing.nap_max must be at least timing.nap_increment")
	}

	if c.Audio.MediaDir == "" {
		return errors.New("audio.media_dir must be set")
	}
	if len(c.Audio.PlayerCmd) == 0 {
		return errors.New("audio.player_cmd must name a program")
	}
	if len(c.Audio.Extensions) == 0 {
		return errors.New("audio.extensions must list at least one extension")
	}
	if c.Audio.NapTrack < 0 {
		return errors.New("audio.nap_track must not be negative")
	}
	if t := c.Audio.BootTrack; t != nil && *t < 0 {
		return errors.New("audio.boot_track must not be negative")
	}
	if t := c.Audio.BeepTrack; t != nil && *t < 0 {
		return errors.New("audio.beep_track must not be negative")
	}

	if c.SettingsFile == "" {
		return errors.New("settings_file must be set")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.MQTT.Broker != "" {
		u, err := url.Parse(c.MQTT.Broker)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("mqtt.broker %q is not a valid URL", c.MQTT.Broker)
		}
		if c.MQTT.BufferSize <= 0 {
			return errors.New("mqtt.buffer_size must be positive")
		}
		if c.MQTT.Heartbeat < 0 {
			return errors.New("mqtt.heartbeat must not be negative")
		}
	}

	if _, ok := logger.ParseLogLevel(c.Logging.Level); !ok {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// Timings converts the timing section for the controller.
func (c Config) Timings() logic.Timings {
	return logic.Timings{
		Debounce:      c.Timing.Debounce,
		LongPress:     c.Timing.LongPress,
		VolumeIdle:    c.Timing.VolumeIdle,
		DisplayIdle:   c.Timing.DisplayIdle,
		DarkIdle:      c.Timing.DarkIdle,
		NapIntro:      c.Timing.NapIntro,
		NapConfigIdle: c.Timing.NapConfigIdle,
		NapIncrement:  c.Timing.NapIncrement,
		NapMax:        c.Timing.NapMax,
	}
}

// ButtonPins converts the pin section for the GPIO reader.
func (c Config) ButtonPins() gpio.Pins {
	p := c.GPIO.Pins
	return gpio.Pins{
		logic.ButtonMode:   p.Mode,
		logic.ButtonSet:    p.Set,
		logic.ButtonUp:     p.Up,
		logic.ButtonDown:   p.Down,
		logic.ButtonSnooze: p.Snooze,
	}
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
