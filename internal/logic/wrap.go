package logic

const volumeModulus = 100

// Incr returns (n+1) mod m.
func Incr(n, m int) int {
	return (n + 1) % m
}

// Decr returns (n+m-1) mod m.
func Decr(n, m int) int {
	return (n + m - 1) % m
}

// wrap maps any integer into [0, m). A non-positive modulus yields 0.
func wrap(n, m int) int {
	if m <= 0 {
		return 0
	}
	n %= m
	if n < 0 {
		n += m
	}
	return n
}

// IsLeap reports whether 2000+yearOffset is a leap year.
// The simplified rule is exact for 2000–2099.
func IsLeap(yearOffset int) bool {
	return yearOffset%4 == 0
}

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the number of days of month (0–11) in 2000+yearOffset.
func DaysInMonth(month, yearOffset int) int {
	month = wrap(month, 12)
	if month == 1 && IsLeap(yearOffset) {
		return 29
	}
	return monthDays[month]
}

// minuteOfDay returns minutes since midnight.
func minuteOfDay(hour, minute int) int {
	return hour*60 + minute
}
