package envutil

import (
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_INT", "12")
	if got := Int("ENVUTIL_TEST_INT", 3); got != 12 {
		t.Fatalf("Int: want=12 got=%d", got)
	}
	t.Setenv("ENVUTIL_TEST_INT", "twelve")
	if got := Int("ENVUTIL_TEST_INT", 3); got != 3 {
		t.Fatalf("Int fallback: want=3 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_BOOL", "on")
	if !Bool("ENVUTIL_TEST_BOOL", false) {
		t.Fatalf("Bool: want=true")
	}
	t.Setenv("ENVUTIL_TEST_BOOL", "maybe")
	if Bool("ENVUTIL_TEST_BOOL", false) {
		t.Fatalf("Bool fallback: want=false")
	}
}

func TestDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", time.Minute},
		{"30", 30 * time.Second},
		{"15m", 15 * time.Minute},
		{"-5", time.Minute},
		{"soon", time.Minute},
	}
	for _, tc := range cases {
		t.Setenv("ENVUTIL_TEST_DURATION", tc.raw)
		if got := Duration("ENVUTIL_TEST_DURATION", time.Minute); got != tc.want {
			t.Fatalf("Duration(%q): want=%v got=%v", tc.raw, tc.want, got)
		}
	}
}

func TestStringAndFloat(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_STRING", "  value ")
	if got := String("ENVUTIL_TEST_STRING", "def"); got != "value" {
		t.Fatalf("String: want=value got=%q", got)
	}
	t.Setenv("ENVUTIL_TEST_FLOAT", "0.25")
	if got := Float("ENVUTIL_TEST_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float: want=0.25 got=%v", got)
	}
}
