package utils

import "time"

const (
	MillisPerMinute int64 = 60_000
	MillisPerHour   int64 = 3_600_000
	MillisPerDay    int64 = 86_400_000
)

// Millis returns t as UTC epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis returns the UTC time for epoch milliseconds.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// DayStartMillis truncates ms to 00:00 UTC of the same day.
func DayStartMillis(ms int64) int64 {
	return ms - floorMod(ms, MillisPerDay)
}

// WeekStartMillis returns 00:00 UTC of the Monday on or before ms.
func WeekStartMillis(ms int64) int64 {
	day := DayStartMillis(ms)
	// 1970-01-01 was a Thursday, three days after a Monday.
	daysSinceMonday := floorMod(day/MillisPerDay+3, 7)
	return day - daysSinceMonday*MillisPerDay
}

// DateString renders ms as a calendar date in UTC.
func DateString(ms int64) string {
	return FromMillis(ms).Format(time.DateOnly)
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
