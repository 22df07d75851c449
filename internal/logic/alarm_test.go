package logic

import (
	"testing"
	"time"
)

// Monday 5 January 2026.
func monday(h, m, s int) time.Time {
	return time.Date(2026, 1, 5, h, m, s, 0, time.UTC)
}

func alarmsWith(a Alarm) [AlarmCount]Alarm {
	return [AlarmCount]Alarm{a, {Hour: 12}}
}

func TestEvaluateAlarmsTriggersAtExactMinute(t *testing.T) {
	alarms := alarmsWith(Alarm{Enabled: true, Hour: 7, Minute: 0, Track: 2})

	d := EvaluateAlarms(monday(6, 59, 59), StateTime, alarms, [AlarmCount]bool{}, true)
	if d.Forced {
		t.Fatalf("should not ring at 06:59:59, got %v", d.Next)
	}

	d = EvaluateAlarms(monday(7, 0, 0), StateTime, alarms, [AlarmCount]bool{}, true)
	if !d.Forced || d.Next != StateRingingA {
		t.Fatalf("expected RINGING_A at 07:00:00, got forced=%v next=%v", d.Forced, d.Next)
	}
	if len(d.Effects) != 1 || d.Effects[0] != StartTrack(2) {
		t.Errorf("expected StartTrack(2), got %+v", d.Effects)
	}

	// Still within the minute but already ringing: no second start.
	d = EvaluateAlarms(monday(7, 0, 20), StateRingingA, alarms, [AlarmCount]bool{}, false)
	if d.Forced || len(d.Effects) != 0 {
		t.Errorf("already ringing: expected no change, got %+v", d)
	}
}

func TestEvaluateAlarmsRespectsFlags(t *testing.T) {
	saturday := time.Date(2026, 1, 3, 7, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		alarm   Alarm
		now     time.Time
		latched bool
		want    bool
	}{
		{"disabled", Alarm{Hour: 7}, monday(7, 0, 0), false, false},
		{"weekday", Alarm{Enabled: true, Hour: 7}, monday(7, 0, 0), false, true},
		{"weekend not allowed", Alarm{Enabled: true, Hour: 7}, saturday, false, false},
		{"weekend allowed", Alarm{Enabled: true, Hour: 7, Weekend: true}, saturday, false, true},
		{"latched", Alarm{Enabled: true, Hour: 7}, monday(7, 0, 0), true, false},
		{"other minute", Alarm{Enabled: true, Hour: 7}, monday(7, 1, 0), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := EvaluateAlarms(tt.now, StateTime, alarmsWith(tt.alarm), [AlarmCount]bool{tt.latched, false}, true)
			if got := d.Next == StateRingingA; got != tt.want {
				t.Errorf("ringing: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateAlarmsLatchClearsOneMinuteBefore(t *testing.T) {
	alarms := alarmsWith(Alarm{Enabled: true, Hour: 7, Minute: 0})
	latched := [AlarmCount]bool{true, false}

	d := EvaluateAlarms(monday(6, 58, 59), StateTime, alarms, latched, true)
	if !d.Latches[AlarmA] {
		t.Error("latch should still be set at 06:58")
	}
	d = EvaluateAlarms(monday(6, 59, 0), StateTime, alarms, latched, true)
	if d.Latches[AlarmA] {
		t.Error("latch should clear at 06:59")
	}
}

func TestEvaluateAlarmsLatchClearWrapsMidnight(t *testing.T) {
	alarms := alarmsWith(Alarm{Enabled: true, Hour: 0, Minute: 0})
	latched := [AlarmCount]bool{true, false}

	d := EvaluateAlarms(monday(23, 59, 30), StateTime, alarms, latched, true)
	if d.Latches[AlarmA] {
		t.Error("latch for a midnight alarm should clear at 23:59")
	}
}

func TestEvaluateAlarmsNaturalCompletion(t *testing.T) {
	alarms := alarmsWith(Alarm{Enabled: true, Hour: 7, Minute: 0})

	d := EvaluateAlarms(monday(7, 3, 0), StateRingingA, alarms, [AlarmCount]bool{}, true)
	if !d.Forced || d.Next != StateTime {
		t.Fatalf("finished playback should return to TIME, got %v", d.Next)
	}
	if !d.Latches[AlarmA] {
		t.Error("finished playback should set the latch")
	}

	// Finishing inside the trigger minute must not restart the alarm.
	d = EvaluateAlarms(monday(7, 0, 40), StateRingingA, alarms, [AlarmCount]bool{}, true)
	if d.Next != StateTime || len(d.Effects) != 0 {
		t.Errorf("expected TIME without restart, got %v %+v", d.Next, d.Effects)
	}
}

func TestEvaluateAlarmsBOverridesA(t *testing.T) {
	alarms := [AlarmCount]Alarm{
		{Enabled: true, Hour: 7, Track: 0},
		{Enabled: true, Hour: 7, Track: 1},
	}
	d := EvaluateAlarms(monday(7, 0, 0), StateTime, alarms, [AlarmCount]bool{}, true)
	if d.Next != StateRingingB {
		t.Errorf("expected B to win, got %v", d.Next)
	}
	if len(d.Effects) != 2 || d.Effects[1] != StartTrack(1) {
		t.Errorf("expected both starts with B last, got %+v", d.Effects)
	}
}
