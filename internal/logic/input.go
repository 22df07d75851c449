package logic

import "time"

// Button is the logical identity of a physical push button.
type Button int

const (
	ButtonMode Button = iota
	ButtonSet
	ButtonUp
	ButtonDown
	ButtonSnooze
)

var buttonNames = [...]string{"MODE", "SET", "UP", "DOWN", "SNOOZE"}

func (b Button) String() string {
	if b < 0 || int(b) >= len(buttonNames) {
		return "UNKNOWN"
	}
	return buttonNames[b]
}

// Buttons returns all buttons in default scan order.
func Buttons() []Button {
	return []Button{ButtonMode, ButtonSet, ButtonUp, ButtonDown, ButtonSnooze}
}

// RawInput is one undebounced sample: true = pressed.
// Buttons missing from the map read as released.
type RawInput map[Button]bool

// Edge is a classified button transition.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeClick
	EdgeLongStart
	EdgeLongHold
	EdgeLongStop
)

var edgeNames = [...]string{"NONE", "CLICK", "LONG_START", "LONG_HOLD", "LONG_STOP"}

func (e Edge) String() string {
	if e < 0 || int(e) >= len(edgeNames) {
		return "UNKNOWN"
	}
	return edgeNames[e]
}

// ButtonEvent is the single event reported for a tick.
type ButtonEvent struct {
	Button Button
	Edge   Edge
}

// ButtonState tracks debounce and press state for a single button.
type ButtonState struct {
	// Current stable (debounced) reading
	Stable bool
	// Raw reading that differs from Stable and is waiting out the debounce
	Pending bool
	// Whether Pending holds a value
	HasPending bool
	// Time when the pending reading was first observed
	PendingSince time.Time
	// Time when the stable reading became pressed
	PressedSince time.Time
	// Whether the current press crossed the long-press threshold
	Long bool
}

// Classifier debounces raw button samples and turns them into edge events.
type Classifier struct {
	debounce        time.Duration
	longPress       time.Duration
	order           []Button
	buttons         map[Button]*ButtonState
	lastInteraction time.Time
}

// NewClassifier creates a classifier scanning buttons in the given order.
// A nil order scans Buttons(). The start time seeds LastInteraction.
func NewClassifier(t Timings, order []Button, start time.Time) *Classifier {
	if order == nil {
		order = Buttons()
	}
	c := &Classifier{
		debounce:        t.Debounce,
		longPress:       t.LongPress,
		order:           order,
		buttons:         make(map[Button]*ButtonState, len(order)),
		lastInteraction: start,
	}
	for _, b := range order {
		c.buttons[b] = &ButtonState{}
	}
	return c
}

// Process takes a new raw sample and returns at most one event.
// Every button is updated; when several produce an edge in the same tick the
// first in scan order wins and the rest are dropped.
func (c *Classifier) Process(raw RawInput, now time.Time) ButtonEvent {
	result := ButtonEvent{Edge: EdgeNone}
	for _, b := range c.order {
		edge := c.processButton(c.buttons[b], raw[b], now)
		if edge != EdgeNone && result.Edge == EdgeNone {
			result = ButtonEvent{Button: b, Edge: edge}
		}
	}
	if result.Edge != EdgeNone {
		c.lastInteraction = now
	}
	return result
}

// processButton handles debounce and edge classification for a single button.
func (c *Classifier) processButton(bs *ButtonState, pressed bool, now time.Time) Edge {
	if pressed == bs.Stable {
		// Bounce settled back to the stable reading.
		bs.HasPending = false
		return c.holdEdge(bs, now)
	}

	if !bs.HasPending || bs.Pending != pressed {
		bs.Pending = pressed
		bs.HasPending = true
		bs.PendingSince = now
		return c.holdEdge(bs, now)
	}

	if now.Sub(bs.PendingSince) < c.debounce {
		return c.holdEdge(bs, now)
	}

	bs.Stable = pressed
	bs.HasPending = false

	if pressed {
		bs.PressedSince = now
		bs.Long = false
		return EdgeNone
	}

	if bs.Long {
		bs.Long = false
		return EdgeLongStop
	}
	return EdgeClick
}

// holdEdge reports long-press progress for a button whose stable state did
// not change this tick.
func (c *Classifier) holdEdge(bs *ButtonState, now time.Time) Edge {
	if !bs.Stable {
		return EdgeNone
	}
	if bs.Long {
		return EdgeLongHold
	}
	if now.Sub(bs.PressedSince) >= c.longPress {
		bs.Long = true
		return EdgeLongStart
	}
	return EdgeNone
}

// Pressed reports the debounced state of a button.
func (c *Classifier) Pressed(b Button) bool {
	bs, ok := c.buttons[b]
	return ok && bs.Stable
}

// LastInteraction returns the time of the most recent non-None event.
func (c *Classifier) LastInteraction() time.Time {
	return c.lastInteraction
}

type edgeKey struct {
	button Button
	edge   Edge
}

// commandTable maps (button, edge) to a Command. Missing pairs map to CommandNone.
var commandTable = map[edgeKey]Command{
	{ButtonMode, EdgeClick}:       CommandMode,
	{ButtonSet, EdgeClick}:        CommandSet,
	{ButtonUp, EdgeClick}:         CommandUp,
	{ButtonUp, EdgeLongStart}:     CommandUp,
	{ButtonDown, EdgeClick}:       CommandDown,
	{ButtonDown, EdgeLongStart}:   CommandDown,
	{ButtonSnooze, EdgeClick}:     CommandStopOrSnooze,
	{ButtonSnooze, EdgeLongStart}: CommandNap,
}

// CommandFor maps a classified event to a Command.
func CommandFor(ev ButtonEvent) Command {
	if ev.Edge == EdgeNone {
		return CommandNone
	}
	return commandTable[edgeKey{ev.Button, ev.Edge}]
}
