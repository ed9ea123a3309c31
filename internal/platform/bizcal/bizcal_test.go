package bizcal

import (
	"testing"
	"time"
)

// 2026-03-06 is a Friday.
func at(day, hour, min int) time.Time {
	return time.Date(2026, time.March, day, hour, min, 0, 0, time.UTC)
}

func TestAddBusinessHours(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
		hours float64
		want  time.Time
	}{
		{"friday afternoon skips weekend", at(6, 14, 0), 48, at(10, 14, 0)},
		{"saturday rolls to monday", at(7, 10, 0), 1, at(9, 1, 0)},
		{"sunday half hour", at(8, 23, 0), 0.5, at(9, 0, 30)},
		{"same day", at(9, 10, 0), 5, at(9, 15, 0)},
		{"zero hours on weekend is unchanged", at(7, 10, 0), 0, at(7, 10, 0)},
		{"negative hours is unchanged", at(9, 10, 0), -3, at(9, 10, 0)},
		{"exact end of friday", at(6, 20, 0), 4, at(7, 0, 0)},
		{"default lock from thursday midnight", at(5, 0, 0), 72, at(10, 0, 0)},
		{"two full weeks", at(2, 9, 0), 240, at(16, 9, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AddBusinessHours(tc.start, tc.hours)
			if !got.Equal(tc.want) {
				t.Fatalf("AddBusinessHours(%s, %v): want=%s got=%s", tc.start.Format(time.RFC3339), tc.hours, tc.want.Format(time.RFC3339), got.Format(time.RFC3339))
			}
		})
	}
}

func TestAddBusinessHoursNeverLandsInsideWeekend(t *testing.T) {
	base := at(2, 0, 0)
	for offset := 0; offset < 24*14; offset += 5 {
		start := base.Add(time.Duration(offset) * time.Hour)
		for _, hours := range []float64{1, 7.5, 24, 48, 72, 100} {
			got := AddBusinessHours(start, hours)
			if !got.After(start) {
				t.Fatalf("deadline not after start: start=%s hours=%v got=%s", start, hours, got)
			}
			if IsWeekend(got) && !(got.Weekday() == time.Saturday && got.Hour() == 0 && got.Minute() == 0) {
				t.Fatalf("deadline inside weekend: start=%s hours=%v got=%s", start, hours, got)
			}
		}
	}
}

func TestAddBusinessHoursUsesLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	// Friday 22:00 local is already Saturday in UTC; local weekday decides.
	start := time.Date(2026, time.March, 6, 22, 0, 0, 0, loc)
	got := AddBusinessHours(start, 4)
	want := time.Date(2026, time.March, 9, 2, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("want=%s got=%s", want, got)
	}
}

func TestCountBusinessDaysBetween(t *testing.T) {
	cases := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"full week", at(2, 9, 0), at(6, 18, 0), 5},
		{"friday to monday", at(6, 9, 0), at(9, 9, 0), 2},
		{"weekend only", at(7, 0, 0), at(8, 23, 0), 0},
		{"same day", at(4, 8, 0), at(4, 9, 0), 1},
		{"reversed", at(9, 0, 0), at(6, 0, 0), 0},
		{"two weeks", at(2, 0, 0), at(15, 0, 0), 10},
	}
	for _, tc := range cases {
		if got := CountBusinessDaysBetween(tc.a, tc.b); got != tc.want {
			t.Fatalf("%s: want=%d got=%d", tc.name, tc.want, got)
		}
	}
}
