package utils

import (
	"testing"
	"time"
)

func TestWeekStartMillisIsMonday(t *testing.T) {
	// Thursday 2024-01-18 15:30 UTC.
	ms := time.Date(2024, 1, 18, 15, 30, 0, 0, time.UTC).UnixMilli()
	got := FromMillis(WeekStartMillis(ms))
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDayStartMillis(t *testing.T) {
	ms := time.Date(2024, 3, 9, 23, 59, 59, 0, time.UTC).UnixMilli()
	if got := DateString(DayStartMillis(ms)); got != "2024-03-09" {
		t.Fatalf("unexpected day start %s", got)
	}
	if DayStartMillis(ms)%MillisPerDay != 0 {
		t.Fatalf("day start not aligned")
	}
}
