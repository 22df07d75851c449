// Package status provides a thread-safe status tracker for the alarm clock daemon.
// It is written from the tick loop and read by HTTP handlers and MQTT heartbeats.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/alarm-clock/internal/device"
	"github.com/sweeney/alarm-clock/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	DebounceMs  int64
	LongPressMs int64
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
	MediaDir    string
	Tracks      []string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Ready         bool // at least one frame was shown
	State         logic.State
	Display       string
	Wall          time.Time
	Settings      logic.Settings
	NapRemaining  time.Duration
	Counts        device.Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Show records the latest rendered frame. Tracker is a device.Sink.
func (t *Tracker) Show(f device.Frame) {
	var remaining time.Duration
	if f.View.State == logic.StateNapCounting {
		remaining = f.View.Nap.Remaining(f.Wall)
	}

	t.mu.Lock()
	t.snap.Ready = true
	t.snap.State = f.View.State
	t.snap.Display = f.Face.Text()
	t.snap.Wall = f.Wall
	t.snap.Settings = f.View.Settings
	t.snap.NapRemaining = remaining
	t.mu.Unlock()
}

// SetCounts sets the device counters.
func (t *Tracker) SetCounts(counts device.Counts) {
	t.mu.Lock()
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
