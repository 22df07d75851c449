package logic

import "time"

// alarmSlot binds an alarm identifier to its ringing state.
type alarmSlot struct {
	id      AlarmID
	ringing State
}

// alarmSlots is evaluated in order; a later slot can override an earlier one.
var alarmSlots = [AlarmCount]alarmSlot{
	{id: AlarmA, ringing: StateRingingA},
	{id: AlarmB, ringing: StateRingingB},
}

// AlarmDecision is the outcome of one alarm evaluation.
type AlarmDecision struct {
	// Forced is true when the state must change to Next before the command is applied.
	Forced  bool
	Next    State
	Effects []Effect
	Latches [AlarmCount]bool
}

// EvaluateAlarms decides whether an alarm starts or stops ringing at wall time now.
// It is pure: the caller applies the returned state and latches.
func EvaluateAlarms(now time.Time, current State, alarms [AlarmCount]Alarm, latches [AlarmCount]bool, stopped bool) AlarmDecision {
	d := AlarmDecision{Next: current, Latches: latches}
	nowMinute := minuteOfDay(now.Hour(), now.Minute())
	weekend := isWeekend(now.Weekday())

	for _, slot := range alarmSlots {
		a := alarms[slot.id]
		latched := &d.Latches[slot.id]

		// Playback ended on its own.
		if d.Next == slot.ringing && !*latched && stopped {
			*latched = true
			d.Next = StateTime
			d.Forced = true
		}

		alarmMinute := minuteOfDay(a.Hour, a.Minute)
		if nowMinute == wrap(alarmMinute-1, 24*60) {
			*latched = false
		}

		if a.Enabled &&
			(a.Weekend || !weekend) &&
			!*latched &&
			d.Next != slot.ringing &&
			nowMinute == alarmMinute {
			d.Next = slot.ringing
			d.Forced = true
			d.Effects = append(d.Effects, StartTrack(a.Track))
		}
	}
	return d
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
