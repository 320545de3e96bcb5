package core

import (
	"testing"
	"time"
)

func TestDayKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-09-30T23:30:00-03:00", "2025-09-30", true},
		{"2025-09-30T01:00:00Z", "2025-09-30", true},
		{"2025-09-30 08:15:00", "2025-09-30", true},
		{"2025-09-30", "2025-09-30", true},
		{"2025-13-01", "", false},
		{"2025-00-10", "", false},
		{"2025-01-32", "", false},
		{"2025/09/30", "", false},
		{"09-30-2025", "", false},
		{"garbage", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := DayKey(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("DayKey(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("DayKey(%q) expected error, got %q", tc.in, got)
		}
	}
}

// Two records written on the same calendar day must share a key even when
// their time components straddle midnight in some viewer timezone.
func TestDayKeyIgnoresTimeAndOffset(t *testing.T) {
	a, err := DayKey("2025-09-30T23:30:00-03:00")
	if err != nil {
		t.Fatal(err)
	}
	b, err := DayKey("2025-09-30T00:10:00+09:00")
	if err != nil {
		t.Fatal(err)
	}
	if a != b || a != "2025-09-30" {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
}

func TestDayKeyTime(t *testing.T) {
	got := DayKeyTime("2025-09-30")
	want := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DayKeyTime = %v, want %v", got, want)
	}
	if !DayKeyTime("bogus").IsZero() {
		t.Error("expected zero time for bad key")
	}
}

func TestMidnight(t *testing.T) {
	in := time.Date(2025, 9, 30, 18, 45, 12, 999, time.FixedZone("X", -3*3600))
	got := Midnight(in)
	want := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Midnight = %v, want %v", got, want)
	}
}
