package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/alarm-clock/internal/device"
	"github.com/sweeney/alarm-clock/internal/display"
	"github.com/sweeney/alarm-clock/internal/logic"
)

var wall = time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)

func frameFor(state logic.State) device.Frame {
	view := logic.View{State: state, Settings: logic.DefaultSettings(), TrackCount: 3}
	return device.Frame{At: wall, Wall: wall, View: view, Face: display.Render(view, wall)}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{TickMs: 10, DebounceMs: 50, Broker: "tcp://localhost:1883", HTTPPort: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.TickMs != 10 {
		t.Errorf("Config.TickMs: got %d, want 10", snap.Config.TickMs)
	}
	if snap.Config.HTTPPort != ":80" {
		t.Errorf("Config.HTTPPort: got %q, want %q", snap.Config.HTTPPort, ":80")
	}
	if snap.Ready {
		t.Error("expected Ready=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestShowAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Show(frameFor(logic.StateTime))
	tr.SetCounts(device.Counts{RingsA: 3, Stops: 1})

	snap := tr.Snapshot()
	if !snap.Ready {
		t.Error("expected Ready=true after a frame")
	}
	if snap.State != logic.StateTime {
		t.Errorf("State: got %v, want TIME", snap.State)
	}
	if snap.Display != " 7:00" {
		t.Errorf("Display: got %q, want %q", snap.Display, " 7:00")
	}
	if !snap.Wall.Equal(wall) {
		t.Errorf("Wall: got %v, want %v", snap.Wall, wall)
	}
	if snap.Settings.Volume != 40 {
		t.Errorf("Settings.Volume: got %d, want 40", snap.Settings.Volume)
	}
	if snap.Counts.RingsA != 3 {
		t.Errorf("Counts.RingsA: got %d, want 3", snap.Counts.RingsA)
	}
	if snap.Counts.Stops != 1 {
		t.Errorf("Counts.Stops: got %d, want 1", snap.Counts.Stops)
	}
}

func TestShowNapRemaining(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	f := frameFor(logic.StateNapCounting)
	f.View.Nap = logic.Nap{Phase: logic.NapCounting, Deadline: wall.Add(90 * time.Second)}
	tr.Show(f)

	if got := tr.Snapshot().NapRemaining; got != 90*time.Second {
		t.Errorf("NapRemaining: got %v, want 1m30s", got)
	}

	tr.Show(frameFor(logic.StateTime))
	if got := tr.Snapshot().NapRemaining; got != 0 {
		t.Errorf("NapRemaining outside a nap: got %v, want 0", got)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	net := &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"}
	tr.SetNetwork(net)

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Show(frameFor(logic.StateRingingA))

	snap1 := tr.Snapshot()

	tr.Show(frameFor(logic.StateTime))

	if snap1.State != logic.StateRingingA {
		t.Error("snapshot should be a copy; State was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	settings := logic.DefaultSettings()
	settings.Alarms[logic.AlarmA] = logic.Alarm{Enabled: true, Hour: 6, Minute: 5, Track: 2}
	snap := Snapshot{
		Ready:         true,
		State:         logic.StateRingingA,
		Display:       " 6:05",
		Wall:          wall,
		Settings:      settings,
		Counts:        device.Counts{RingsA: 5, Stops: 2, SettingsSaved: 1},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{TickMs: 10, DebounceMs: 50, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPPort: ":80", Tracks: []string{"a.mp3", "b.mp3"}},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.State != "RINGING_A" {
		t.Errorf("State: got %q, want RINGING_A", parsed.Status.State)
	}
	if parsed.Status.Display != " 6:05" {
		t.Errorf("Display: got %q", parsed.Status.Display)
	}
	if parsed.Status.Clock != "2026-01-05T07:00:00Z" {
		t.Errorf("Clock: got %q", parsed.Status.Clock)
	}
	if !parsed.Status.Ready {
		t.Error("expected Ready=true")
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if parsed.Status.MQTT.Connected != true {
		t.Error("expected MQTT.Connected=true")
	}
	if parsed.Status.Counts.RingsA != 5 {
		t.Errorf("Counts.RingsA: got %d, want 5", parsed.Status.Counts.RingsA)
	}
	if len(parsed.Status.Alarms) != 2 {
		t.Fatalf("expected 2 alarms, got %d", len(parsed.Status.Alarms))
	}
	a := parsed.Status.Alarms[0]
	if a.ID != "A" || !a.Enabled || a.Time != "06:05" || a.Track != 2 {
		t.Errorf("alarm A: got %+v", a)
	}
	if b := parsed.Status.Alarms[1]; b.ID != "B" || b.Time != "08:30" || !b.Weekend {
		t.Errorf("alarm B: got %+v", b)
	}
	if len(parsed.Status.Config.Tracks) != 2 {
		t.Errorf("Config.Tracks: got %v", parsed.Status.Config.Tracks)
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", parsed.Status.Reason)
	}
}

func TestFormatJSONUnknownState(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	json.Unmarshal(data, &parsed)

	if parsed.Status.State != "UNKNOWN" {
		t.Errorf("State: got %q, want UNKNOWN", parsed.Status.State)
	}
	if parsed.Status.Clock != "" {
		t.Errorf("Clock: got %q, want empty", parsed.Status.Clock)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Ready:         true,
		State:         logic.StateTime,
		Counts:        device.Counts{RingsB: 3},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{TickMs: 10, DebounceMs: 50, Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("Reason: got %q, want empty", parsed.Status.Reason)
	}
	if parsed.Status.State != "TIME" {
		t.Errorf("State: got %q, want TIME", parsed.Status.State)
	}
	if parsed.Status.Counts.RingsB != 3 {
		t.Errorf("Counts.RingsB: got %d, want 3", parsed.Status.Counts.RingsB)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Ready:     true,
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	// Verify "reason" is not in the raw JSON output
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if _, exists := status["nap_remaining_seconds"]; exists {
		t.Error("nap_remaining_seconds should be omitted outside a nap")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		Ready:     true,
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	json.Unmarshal(data, &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", parsed.Status.Network.IP)
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	f := frameFor(logic.StateTime)
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Show(f)
			tr.SetCounts(device.Counts{Stops: i})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()
}
