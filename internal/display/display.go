// Package display projects the controller view onto a four digit seven
// segment face with a center colon and two alarm indicator dots.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// Blink masks. Bits 0-3 are the digits from left to right.
const (
	BlinkDigit1 uint8 = 1 << iota
	BlinkDigit2
	BlinkDigit3
	BlinkDigit4
	BlinkDots

	blinkLeft  = BlinkDigit1 | BlinkDigit2
	blinkRight = BlinkDigit3 | BlinkDigit4
	blinkAll   = blinkLeft | blinkRight
)

// BlinkPeriod is the on and off time of blinking segments.
const BlinkPeriod = 300 * time.Millisecond

// Frame is one rendered face. A zero Frame is a dark display.
type Frame struct {
	Digits [4]string
	Colon  bool
	// UpperDot and LowerDot are the left indicator dots for alarms A and B.
	UpperDot bool
	LowerDot bool
	Blink    uint8
}

// Text returns the face as five characters, e.g. " 7:30".
func (f Frame) Text() string {
	var b strings.Builder
	for i, d := range f.Digits {
		if i == 2 {
			if f.Colon {
				b.WriteByte(':')
			} else {
				b.WriteByte(' ')
			}
		}
		if d == "" {
			d = " "
		}
		b.WriteString(d)
	}
	return b.String()
}

// Dark reports whether nothing is lit.
func (f Frame) Dark() bool {
	return f == Frame{}
}

// Visible returns what is lit at instant at, with blinking parts blanked
// during the off half of the blink cycle.
func (f Frame) Visible(at time.Time) Frame {
	if f.Blink == 0 || at.UnixMilli()%(2*BlinkPeriod.Milliseconds()) >= BlinkPeriod.Milliseconds() {
		return f
	}
	out := f
	for i := range out.Digits {
		if f.Blink&(1<<i) != 0 {
			out.Digits[i] = ""
		}
	}
	if f.Blink&BlinkDots != 0 {
		out.Colon, out.UpperDot, out.LowerDot = false, false, false
	}
	out.Blink = 0
	return out
}

// Render draws view at wall-clock time wall.
func Render(v logic.View, wall time.Time) Frame {
	s := v.State
	e := v.Edit
	a := v.Settings.Alarms

	switch s {
	case logic.StateTime:
		f := clock(wall.Hour(), wall.Minute())
		f.UpperDot = a[logic.AlarmA].Enabled
		f.LowerDot = a[logic.AlarmB].Enabled
		return f
	case logic.StateDate:
		return date(wall.Day(), int(wall.Month()))
	case logic.StateVolume:
		return number(v.Settings.Volume)
	case logic.StateAlarmA:
		f := onOff(logic.AlarmA, a[logic.AlarmA].Enabled)
		f.UpperDot = true
		return f
	case logic.StateAlarmB:
		f := onOff(logic.AlarmB, a[logic.AlarmB].Enabled)
		f.LowerDot = true
		return f

	case logic.StateSetHour:
		return blink(clock(e.Hour, e.Minute), blinkLeft)
	case logic.StateSetMinute:
		return blink(clock(e.Hour, e.Minute), blinkRight)
	case logic.StateSetDay:
		return blink(date(e.Day+1, e.Month+1), blinkLeft)
	case logic.StateSetMonth:
		return blink(date(e.Day+1, e.Month+1), blinkRight)
	case logic.StateSetYear:
		return blink(number(2000+e.Year), blinkAll)

	case logic.StateRingingA:
		f := clock(wall.Hour(), wall.Minute())
		f.UpperDot = true
		return blink(f, BlinkDots)
	case logic.StateRingingB:
		f := clock(wall.Hour(), wall.Minute())
		f.LowerDot = true
		return blink(f, BlinkDots)

	case logic.StateNapIntro:
		return Frame{Digits: [4]string{"n", "A", "P", ""}}
	case logic.StateNapConfiguring:
		return blink(countdown(v.Nap.Duration), blinkAll)
	case logic.StateNapCounting:
		return countdown(v.Nap.Remaining(wall))
	case logic.StateNapRinging:
		return blink(countdown(0), blinkAll|BlinkDots)

	case logic.StateDark:
		return Frame{}
	}

	if id, field, ok := alarmField(s); ok {
		return renderAlarmField(id, field, e.Alarm, wall)
	}
	return Frame{}
}

// Err shows an error code, e.g. "Er r3".
func Err(code int) Frame {
	return Frame{Digits: [4]string{"E", "r", "r", digit(code % 10)}}
}

const (
	fieldEnabled = iota
	fieldHour
	fieldMinute
	fieldWeekend
	fieldTrack
)

func alarmField(s logic.State) (logic.AlarmID, int, bool) {
	switch {
	case s >= logic.StateSetAlarmAEnabled && s <= logic.StateSetAlarmATrack:
		return logic.AlarmA, int(s - logic.StateSetAlarmAEnabled), true
	case s >= logic.StateSetAlarmBEnabled && s <= logic.StateSetAlarmBTrack:
		return logic.AlarmB, int(s - logic.StateSetAlarmBEnabled), true
	}
	return 0, 0, false
}

func renderAlarmField(id logic.AlarmID, field int, draft logic.Alarm, wall time.Time) Frame {
	var f Frame
	switch field {
	case fieldEnabled:
		f = blink(onOff(id, draft.Enabled), blinkRight)
	case fieldHour:
		f = blink(clock(draft.Hour, draft.Minute), blinkLeft)
	case fieldMinute:
		f = blink(clock(draft.Hour, draft.Minute), blinkRight)
	case fieldWeekend:
		// Alternates between SA(turday) and SU(nday).
		second := "A"
		if wall.UnixMilli()%(2*BlinkPeriod.Milliseconds()) >= BlinkPeriod.Milliseconds() {
			second = "U"
		}
		f = blink(Frame{Digits: [4]string{"S", second, "o", onOffLetter(draft.Weekend)}}, blinkRight)
	case fieldTrack:
		n := draft.Track + 1
		f = Frame{Digits: [4]string{"A", alarmDigit(id), "", digit(n)}, Blink: BlinkDigit4}
		if n >= 10 {
			f.Digits[2] = digit(n / 10)
			f.Blink |= BlinkDigit3
		}
	}
	if id == logic.AlarmA {
		f.UpperDot = true
	} else {
		f.LowerDot = true
	}
	return f
}

// clock prints h:mm without a leading zero on the hour.
func clock(h, m int) Frame {
	f := Frame{Colon: true}
	if h >= 10 {
		f.Digits[0] = digit(h / 10)
	}
	f.Digits[1] = digit(h % 10)
	f.Digits[2] = digit(m / 10)
	f.Digits[3] = digit(m % 10)
	return f
}

func date(day, month int) Frame {
	return Frame{Digits: [4]string{digit(day / 10), digit(day % 10), digit(month / 10), digit(month % 10)}}
}

// countdown prints minutes:seconds; minutes go up to 99.
func countdown(d time.Duration) Frame {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return clock(total/60, total%60)
}

// number prints n right-aligned without leading zeros.
func number(n int) Frame {
	var f Frame
	s := fmt.Sprintf("%4d", n)
	for i := range f.Digits {
		if c := s[len(s)-4+i]; c != ' ' {
			f.Digits[i] = string(c)
		}
	}
	return f
}

func onOff(id logic.AlarmID, on bool) Frame {
	return Frame{Digits: [4]string{"A", alarmDigit(id), "o", onOffLetter(on)}}
}

func onOffLetter(on bool) string {
	if on {
		return "n"
	}
	return "f"
}

func alarmDigit(id logic.AlarmID) string {
	return digit(int(id) + 1)
}

func blink(f Frame, mask uint8) Frame {
	f.Blink = mask
	return f
}

func digit(n int) string {
	return string(rune('0' + n%10))
}
