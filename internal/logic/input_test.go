package logic

import (
	"testing"
	"time"
)

var inputStart = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const tickStep = 10 * time.Millisecond

// feed drives the classifier with one sample per 10ms tick starting at
// *now, returning every non-None event.
func feed(c *Classifier, now *time.Time, b Button, pressed bool, ticks int) []Edge {
	var edges []Edge
	for i := 0; i < ticks; i++ {
		ev := c.Process(RawInput{b: pressed}, *now)
		if ev.Edge != EdgeNone {
			if ev.Button != b {
				panic("unexpected button " + ev.Button.String())
			}
			edges = append(edges, ev.Edge)
		}
		*now = now.Add(tickStep)
	}
	return edges
}

func TestClassifierClick(t *testing.T) {
	c := NewClassifier(DefaultTimings(), nil, inputStart)
	now := inputStart

	if edges := feed(c, &now, ButtonSet, true, 10); len(edges) != 0 {
		t.Fatalf("expected no events while pressed briefly, got %v", edges)
	}
	if !c.Pressed(ButtonSet) {
		t.Fatal("expected SET to be stably pressed after 100ms")
	}

	edges := feed(c, &now, ButtonSet, false, 10)
	if len(edges) != 1 || edges[0] != EdgeClick {
		t.Fatalf("expected one CLICK, got %v", edges)
	}
	if CommandFor(ButtonEvent{ButtonSet, EdgeClick}) != CommandSet {
		t.Error("SET click should map to CommandSet")
	}
}

func TestClassifierDebounceFiltersNoise(t *testing.T) {
	c := NewClassifier(DefaultTimings(), nil, inputStart)
	now := inputStart

	// Bounce every 10ms for 200ms; no reading is stable for 50ms.
	for i := 0; i < 20; i++ {
		ev := c.Process(RawInput{ButtonUp: i%2 == 0}, now)
		if ev.Edge != EdgeNone {
			t.Fatalf("tick %d: unexpected event %v", i, ev)
		}
		if c.Pressed(ButtonUp) {
			t.Fatalf("tick %d: noise flipped stable state", i)
		}
		now = now.Add(tickStep)
	}

	// A 40ms glitch is also filtered.
	feed(c, &now, ButtonUp, true, 4)
	feed(c, &now, ButtonUp, false, 10)
	if c.Pressed(ButtonUp) {
		t.Error("40ms glitch flipped stable state")
	}
	if !c.LastInteraction().Equal(inputStart) {
		t.Errorf("noise should not count as interaction, got %v", c.LastInteraction())
	}
}

func TestClassifierDebounceExactBoundary(t *testing.T) {
	c := NewClassifier(DefaultTimings(), nil, inputStart)

	c.Process(RawInput{ButtonMode: true}, inputStart)
	c.Process(RawInput{ButtonMode: true}, inputStart.Add(49*time.Millisecond))
	if c.Pressed(ButtonMode) {
		t.Fatal("should not be stable before 50ms")
	}
	c.Process(RawInput{ButtonMode: true}, inputStart.Add(50*time.Millisecond))
	if !c.Pressed(ButtonMode) {
		t.Fatal("should be stable at 50ms")
	}
}

func TestClassifierLongPressSequence(t *testing.T) {
	c := NewClassifier(DefaultTimings(), nil, inputStart)
	now := inputStart

	// Hold for 2.5s: stable after 50ms, long press at 2050ms.
	edges := feed(c, &now, ButtonSnooze, true, 250)

	starts, holds := 0, 0
	for i, e := range edges {
		switch e {
		case EdgeLongStart:
			starts++
			if i != 0 {
				t.Errorf("LONG_START should be the first event, was #%d", i)
			}
		case EdgeLongHold:
			holds++
		default:
			t.Errorf("unexpected edge while held: %v", e)
		}
	}
	if starts != 1 {
		t.Fatalf("expected exactly one LONG_START, got %d", starts)
	}
	if holds == 0 || holds != len(edges)-1 {
		t.Errorf("expected LONG_HOLD on every tick after start, got %d of %d", holds, len(edges))
	}

	release := feed(c, &now, ButtonSnooze, false, 10)
	stops := 0
	for _, e := range release {
		switch e {
		case EdgeLongStop:
			stops++
		case EdgeClick:
			t.Error("CLICK must be suppressed after a long press")
		}
	}
	if stops != 1 {
		t.Errorf("expected exactly one LONG_STOP, got %d (%v)", stops, release)
	}

	if got := CommandFor(ButtonEvent{ButtonSnooze, EdgeLongStart}); got != CommandNap {
		t.Errorf("SNOOZE long press: got %v, want NAP", got)
	}
	if got := CommandFor(ButtonEvent{ButtonSnooze, EdgeLongHold}); got != CommandNone {
		t.Errorf("SNOOZE hold: got %v, want NONE", got)
	}
	if got := CommandFor(ButtonEvent{ButtonSnooze, EdgeLongStop}); got != CommandNone {
		t.Errorf("SNOOZE long stop: got %v, want NONE", got)
	}

	// The next short press is a plain click again.
	feed(c, &now, ButtonSnooze, true, 10)
	edges = feed(c, &now, ButtonSnooze, false, 10)
	if len(edges) != 1 || edges[0] != EdgeClick {
		t.Errorf("expected CLICK after long press cycle, got %v", edges)
	}
}

func TestClassifierOneEventPerTick(t *testing.T) {
	c := NewClassifier(DefaultTimings(), nil, inputStart)
	both := RawInput{ButtonMode: true, ButtonUp: true}

	c.Process(both, inputStart)
	c.Process(both, inputStart.Add(60*time.Millisecond))

	ev := c.Process(RawInput{}, inputStart.Add(100*time.Millisecond))
	if ev.Edge != EdgeNone {
		t.Fatalf("release is still pending, got %v", ev)
	}
	ev = c.Process(RawInput{}, inputStart.Add(160*time.Millisecond))
	if ev.Button != ButtonMode || ev.Edge != EdgeClick {
		t.Errorf("scan order should report MODE first, got %v/%v", ev.Button, ev.Edge)
	}
	if c.Pressed(ButtonUp) {
		t.Error("UP state must still be updated when its event is dropped")
	}
}

func TestClassifierLastInteraction(t *testing.T) {
	c := NewClassifier(DefaultTimings(), nil, inputStart)
	now := inputStart
	feed(c, &now, ButtonDown, true, 10)
	if !c.LastInteraction().Equal(inputStart) {
		t.Errorf("press without edge should not update interaction, got %v", c.LastInteraction())
	}
	feed(c, &now, ButtonDown, false, 10)
	if !c.LastInteraction().After(inputStart) {
		t.Error("click should update last interaction")
	}
}

func TestCommandTable(t *testing.T) {
	tests := []struct {
		ev   ButtonEvent
		want Command
	}{
		{ButtonEvent{ButtonMode, EdgeClick}, CommandMode},
		{ButtonEvent{ButtonSet, EdgeClick}, CommandSet},
		{ButtonEvent{ButtonUp, EdgeClick}, CommandUp},
		{ButtonEvent{ButtonDown, EdgeClick}, CommandDown},
		{ButtonEvent{ButtonUp, EdgeLongStart}, CommandUp},
		{ButtonEvent{ButtonDown, EdgeLongStart}, CommandDown},
		{ButtonEvent{ButtonSnooze, EdgeClick}, CommandStopOrSnooze},
		{ButtonEvent{ButtonSnooze, EdgeLongStart}, CommandNap},
		{ButtonEvent{ButtonMode, EdgeLongStart}, CommandNone},
		{ButtonEvent{ButtonUp, EdgeLongHold}, CommandNone},
		{ButtonEvent{ButtonMode, EdgeNone}, CommandNone},
	}
	for _, tt := range tests {
		if got := CommandFor(tt.ev); got != tt.want {
			t.Errorf("CommandFor(%v/%v) = %v, want %v", tt.ev.Button, tt.ev.Edge, got, tt.want)
		}
	}
}
