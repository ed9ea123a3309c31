package clock

import (
	"testing"
	"time"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2026, 3, 6, 14, 0, 0, 0, time.UTC)
	c := Fake(start)
	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now: want=%v got=%v", start, got)
	}
	c.Advance(90 * time.Minute)
	if got := c.Now(); !got.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("Advance: want=%v got=%v", start.Add(90*time.Minute), got)
	}
	c.Set(start)
	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Set: want=%v got=%v", start, got)
	}
}

func TestRealClockIsUTC(t *testing.T) {
	if loc := Real().Now().Location(); loc != time.UTC {
		t.Fatalf("location: want=UTC got=%v", loc)
	}
}
