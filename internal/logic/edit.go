package logic

import "time"

type chainKind int

const (
	chainTime chainKind = iota
	chainDate
	chainAlarm
)

type fieldKind int

const (
	fieldHour fieldKind = iota
	fieldMinute
	fieldDay
	fieldMonth
	fieldYear
	fieldAlarmEnabled
	fieldAlarmHour
	fieldAlarmMinute
	fieldAlarmWeekend
	fieldAlarmTrack
)

// editChain is an ordered sequence of focused fields entered from a display state.
type editChain struct {
	kind   chainKind
	origin State
	alarm  AlarmID
	fields []editField
}

type editField struct {
	state State
	kind  fieldKind
}

func alarmChain(id AlarmID, origin, enabled, hour, minute, weekend, track State) *editChain {
	return &editChain{
		kind:   chainAlarm,
		origin: origin,
		alarm:  id,
		fields: []editField{
			{enabled, fieldAlarmEnabled},
			{hour, fieldAlarmHour},
			{minute, fieldAlarmMinute},
			{weekend, fieldAlarmWeekend},
			{track, fieldAlarmTrack},
		},
	}
}

var editChains = []*editChain{
	{
		kind:   chainTime,
		origin: StateTime,
		fields: []editField{{StateSetHour, fieldHour}, {StateSetMinute, fieldMinute}},
	},
	{
		kind:   chainDate,
		origin: StateDate,
		fields: []editField{{StateSetDay, fieldDay}, {StateSetMonth, fieldMonth}, {StateSetYear, fieldYear}},
	},
	alarmChain(AlarmA, StateAlarmA, StateSetAlarmAEnabled, StateSetAlarmAHour, StateSetAlarmAMinute, StateSetAlarmAWeekend, StateSetAlarmATrack),
	alarmChain(AlarmB, StateAlarmB, StateSetAlarmBEnabled, StateSetAlarmBHour, StateSetAlarmBMinute, StateSetAlarmBWeekend, StateSetAlarmBTrack),
}

// enterChain snapshots the live values and focuses the first field.
func (c *Controller) enterChain(ch *editChain, in stepInput) []Effect {
	c.edit = NewEditBuffer(in.wall)
	if ch.kind == chainAlarm {
		c.edit.Alarm = c.settings.Alarms[ch.alarm]
	}
	c.previewing = false
	c.setState(ch.fields[0].state)
	return nil
}

// commitChain writes the buffer back and returns to the originating display state.
func (c *Controller) commitChain(ch *editChain, in stepInput) []Effect {
	var effects []Effect
	if c.previewing {
		effects = append(effects, StopPlayback())
		c.previewing = false
	}

	loc := in.wall.Location()
	switch ch.kind {
	case chainTime:
		effects = append(effects, AdjustClock(c.edit.Time(loc)))
	case chainDate:
		w := in.wall
		d := time.Date(2000+c.edit.Year, time.Month(c.edit.Month+1), c.edit.Day+1, w.Hour(), w.Minute(), w.Second(), 0, loc)
		effects = append(effects, AdjustClock(d))
	case chainAlarm:
		c.settings.Alarms[ch.alarm] = c.edit.Alarm
		effects = append(effects, PersistSettings(c.settings))
	}

	c.setState(ch.origin)
	return effects
}

// stepField moves the focused field one step up (dir=+1) or down (dir=-1).
func (c *Controller) stepField(kind fieldKind, dir int) []Effect {
	step := func(n, m int) int {
		if dir > 0 {
			return Incr(n, m)
		}
		return Decr(n, m)
	}

	b := &c.edit
	switch kind {
	case fieldHour:
		b.Hour = step(b.Hour, 24)
	case fieldMinute:
		b.Minute = step(b.Minute, 60)
	case fieldDay:
		b.Day = step(b.Day, DaysInMonth(b.Month, b.Year))
	case fieldMonth:
		b.Month = step(b.Month, 12)
		c.clampDay()
	case fieldYear:
		b.Year = step(b.Year, 100)
		c.clampDay()
	case fieldAlarmEnabled:
		b.Alarm.Enabled = !b.Alarm.Enabled
	case fieldAlarmHour:
		b.Alarm.Hour = step(b.Alarm.Hour, 24)
	case fieldAlarmMinute:
		b.Alarm.Minute = step(b.Alarm.Minute, 60)
	case fieldAlarmWeekend:
		b.Alarm.Weekend = !b.Alarm.Weekend
	case fieldAlarmTrack:
		b.Alarm.Track = step(b.Alarm.Track, c.trackCount)
		c.previewing = true
		return []Effect{StartTrack(b.Alarm.Track)}
	}
	return nil
}

// clampDay pulls the day down to the last day of the selected month.
func (c *Controller) clampDay() {
	if last := DaysInMonth(c.edit.Month, c.edit.Year) - 1; c.edit.Day > last {
		c.edit.Day = last
	}
}

// addChainTransitions registers the handlers of every edit chain.
func addChainTransitions(t transitionTable) {
	for _, ch := range editChains {
		t.add(ch.origin, CommandSet, func(c *Controller, in stepInput) []Effect {
			return c.enterChain(ch, in)
		})

		last := len(ch.fields) - 1
		for i, f := range ch.fields {
			t.add(f.state, CommandMode, func(c *Controller, in stepInput) []Effect {
				return c.commitChain(ch, in)
			})
			t.add(f.state, CommandSet, func(c *Controller, in stepInput) []Effect {
				if i == last {
					return c.commitChain(ch, in)
				}
				var effects []Effect
				if f.kind == fieldAlarmTrack && c.previewing {
					effects = append(effects, StopPlayback())
					c.previewing = false
				}
				c.setState(ch.fields[i+1].state)
				return effects
			})
			t.add(f.state, CommandUp, func(c *Controller, _ stepInput) []Effect {
				return c.stepField(f.kind, +1)
			})
			t.add(f.state, CommandDown, func(c *Controller, _ stepInput) []Effect {
				return c.stepField(f.kind, -1)
			})
		}
	}
}
