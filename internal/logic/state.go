package logic

// State is what the device is currently doing.
type State int

const (
	StateTime State = iota
	StateDate
	StateVolume
	StateAlarmA
	StateAlarmB

	StateSetHour
	StateSetMinute
	StateSetDay
	StateSetMonth
	StateSetYear

	StateSetAlarmAEnabled
	StateSetAlarmAHour
	StateSetAlarmAMinute
	StateSetAlarmAWeekend
	StateSetAlarmATrack

	StateSetAlarmBEnabled
	StateSetAlarmBHour
	StateSetAlarmBMinute
	StateSetAlarmBWeekend
	StateSetAlarmBTrack

	StateRingingA
	StateRingingB
	StateNapRinging

	StateNapIntro
	StateNapConfiguring
	StateNapCounting

	StateDark

	stateCount
)

var stateNames = [stateCount]string{
	"TIME", "DATE", "VOLUME", "ALARM_A", "ALARM_B",
	"SET_HOUR", "SET_MINUTE", "SET_DAY", "SET_MONTH", "SET_YEAR",
	"SET_ALARM_A_ENABLED", "SET_ALARM_A_HOUR", "SET_ALARM_A_MINUTE", "SET_ALARM_A_WEEKEND", "SET_ALARM_A_TRACK",
	"SET_ALARM_B_ENABLED", "SET_ALARM_B_HOUR", "SET_ALARM_B_MINUTE", "SET_ALARM_B_WEEKEND", "SET_ALARM_B_TRACK",
	"RINGING_A", "RINGING_B", "NAP_RINGING",
	"NAP_INTRO", "NAP_CONFIGURING", "NAP_COUNTING",
	"DARK",
}

func (s State) String() string {
	if s < 0 || s >= stateCount {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// States lists every State.
func States() []State {
	out := make([]State, 0, stateCount)
	for s := State(0); s < stateCount; s++ {
		out = append(out, s)
	}
	return out
}

// IsRinging reports whether s plays an alarm or nap track.
func (s State) IsRinging() bool {
	return s == StateRingingA || s == StateRingingB || s == StateNapRinging
}

// IsEditing reports whether s focuses a field of an edit chain.
func (s State) IsEditing() bool {
	return s >= StateSetHour && s <= StateSetAlarmBTrack
}

// IsNap reports whether s belongs to a nap session.
func (s State) IsNap() bool {
	return s == StateNapIntro || s == StateNapConfiguring || s == StateNapCounting || s == StateNapRinging
}

var napStates = map[NapPhase]State{
	NapIntro:       StateNapIntro,
	NapConfiguring: StateNapConfiguring,
	NapCounting:    StateNapCounting,
	NapRinging:     StateNapRinging,
}
