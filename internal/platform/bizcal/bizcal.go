// Package bizcal computes deadlines that skip Saturdays and Sundays.
//
// A business day contributes all 24 of its hours; there is no 9-to-5
// window and no holiday table. Weekdays are evaluated in the location of
// the time passed in, so callers convert to the business time zone first.
package bizcal

import "time"

// IsWeekend reports whether t falls on Saturday or Sunday in t's location.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// AddBusinessHours walks forward from start consuming hours only against
// time that falls on Monday through Friday. A weekend start rolls to the
// following Monday 00:00 before any hour is consumed. hours <= 0 returns
// start unchanged.
func AddBusinessHours(start time.Time, hours float64) time.Time {
	if hours <= 0 {
		return start
	}
	remaining := time.Duration(hours * float64(time.Hour))
	cur := start
	if IsWeekend(cur) {
		cur = nextMonday(cur)
	}
	for {
		midnight := startOfDay(cur).AddDate(0, 0, 1)
		left := midnight.Sub(cur)
		if remaining <= left {
			return cur.Add(remaining)
		}
		remaining -= left
		cur = midnight
		if IsWeekend(cur) {
			cur = nextMonday(cur)
		}
	}
}

// CountBusinessDaysBetween counts Monday-Friday calendar days from a to b,
// both ends inclusive. Returns 0 when a is after b.
func CountBusinessDaysBetween(a, b time.Time) int {
	if a.After(b) {
		return 0
	}
	b = b.In(a.Location())
	day := startOfDay(a)
	last := startOfDay(b)
	count := 0
	for !day.After(last) {
		if !IsWeekend(day) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func nextMonday(t time.Time) time.Time {
	days := (8 - int(t.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	y, m, d := t.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, t.Location())
}
