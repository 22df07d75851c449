// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// DefaultTopicPrefix is the topic root used when none is configured.
const DefaultTopicPrefix = "home/alarm-clock"

// EventsTopic is the topic for alarm clock events under prefix.
func EventsTopic(prefix string) string {
	return prefix + "/events"
}

// SystemTopic is the topic for system lifecycle events under prefix.
func SystemTopic(prefix string) string {
	return prefix + "/system"
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an alarm clock event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// EventType names something the clock did.
type EventType string

const (
	EventAlarmRinging  EventType = "ALARM_RINGING"
	EventAlarmStopped  EventType = "ALARM_STOPPED"
	EventNapStarted    EventType = "NAP_STARTED"
	EventSettingsSaved EventType = "SETTINGS_SAVED"
	EventClockAdjusted EventType = "CLOCK_ADJUSTED"
)

// Event is one alarm clock event.
type Event struct {
	Timestamp time.Time
	Type      EventType
	// Source is "A", "B" or "NAP" for ringing events.
	Source string
	// Track is the played track for ALARM_RINGING.
	Track int
	// Clock is the new wall-clock time for CLOCK_ADJUSTED.
	Clock time.Time
	// Volume is the stored volume for SETTINGS_SAVED.
	Volume int
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Alarm AlarmPayload `json:"alarm"`
}

// AlarmPayload contains the event details.
type AlarmPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Source    string `json:"source,omitempty"`
	Track     *int   `json:"track,omitempty"`
	Clock     string `json:"clock,omitempty"`
	Volume    *int   `json:"volume,omitempty"`
}

// FormatPayload creates the JSON payload for an event.
func FormatPayload(event Event) ([]byte, error) {
	p := AlarmPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Source:    event.Source,
	}
	switch event.Type {
	case EventAlarmRinging:
		track := event.Track
		p.Track = &track
	case EventClockAdjusted:
		p.Clock = event.Clock.Format(time.RFC3339)
	case EventSettingsSaved:
		volume := event.Volume
		p.Volume = &volume
	}
	return json.Marshal(Payload{Alarm: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
