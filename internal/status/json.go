package status

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event               string       `json:"event,omitempty"`
	Reason              string       `json:"reason,omitempty"`
	State               string       `json:"state"`
	Display             string       `json:"display"`
	Clock               string       `json:"clock,omitempty"`
	Ready               bool         `json:"ready"`
	Volume              int          `json:"volume"`
	Alarms              []AlarmJSON  `json:"alarms"`
	NapRemainingSeconds int64        `json:"nap_remaining_seconds,omitempty"`
	UptimeSeconds       int64        `json:"uptime_seconds"`
	StartTime           string       `json:"start_time"`
	Timestamp           string       `json:"timestamp"`
	MQTT                MQTTStatus   `json:"mqtt"`
	Counts              CountsJSON   `json:"event_counts"`
	Network             *NetworkJSON `json:"network,omitempty"`
	Config              ConfigJSON   `json:"config"`
}

// AlarmJSON is the JSON representation of one alarm.
type AlarmJSON struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"`
	Weekend bool   `json:"weekend"`
	Track   int    `json:"track"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of device counters.
type CountsJSON struct {
	RingsA        int `json:"rings_a"`
	RingsB        int `json:"rings_b"`
	NapRings      int `json:"nap_rings"`
	Stops         int `json:"stops"`
	SettingsSaved int `json:"settings_saved"`
	ClockAdjusts  int `json:"clock_adjusts"`
	InputErrors   int `json:"input_errors"`
	EffectErrors  int `json:"effect_errors"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64    `json:"tick_ms"`
	DebounceMs  int64    `json:"debounce_ms"`
	LongPressMs int64    `json:"long_press_ms"`
	HeartbeatMs int64    `json:"heartbeat_ms"`
	Broker      string   `json:"broker"`
	HTTPPort    string   `json:"http_port"`
	MediaDir    string   `json:"media_dir"`
	Tracks      []string `json:"tracks"`
}

func buildInner(snap Snapshot) StatusInner {
	state := "UNKNOWN"
	clock := ""
	if snap.Ready {
		state = snap.State.String()
		clock = snap.Wall.Format(time.RFC3339)
	}

	alarms := make([]AlarmJSON, 0, logic.AlarmCount)
	for i, a := range snap.Settings.Alarms {
		alarms = append(alarms, AlarmJSON{
			ID:      logic.AlarmID(i).String(),
			Enabled: a.Enabled,
			Time:    fmt.Sprintf("%02d:%02d", a.Hour, a.Minute),
			Weekend: a.Weekend,
			Track:   a.Track,
		})
	}

	tracks := snap.Config.Tracks
	if tracks == nil {
		tracks = []string{}
	}

	return StatusInner{
		State:               state,
		Display:             snap.Display,
		Clock:               clock,
		Ready:               snap.Ready,
		Volume:              snap.Settings.Volume,
		Alarms:              alarms,
		NapRemainingSeconds: int64(snap.NapRemaining.Truncate(time.Second).Seconds()),
		UptimeSeconds:       int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:           snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:           snap.Now.UTC().Format(time.RFC3339),
		MQTT:                MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			RingsA:        snap.Counts.RingsA,
			RingsB:        snap.Counts.RingsB,
			NapRings:      snap.Counts.NapRings,
			Stops:         snap.Counts.Stops,
			SettingsSaved: snap.Counts.SettingsSaved,
			ClockAdjusts:  snap.Counts.ClockAdjusts,
			InputErrors:   snap.Counts.InputErrors,
			EffectErrors:  snap.Counts.EffectErrors,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			DebounceMs:  snap.Config.DebounceMs,
			LongPressMs: snap.Config.LongPressMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			MediaDir:    snap.Config.MediaDir,
			Tracks:      tracks,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
