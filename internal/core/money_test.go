package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.345", 1234, true},
		{"12.346", 1235, true},
		{"0.01", 1, true},
		{"100", 10000, true},
		{"", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseDecimalToCents(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseDecimalToCents(%q) expected error", tc.in)
		}
	}
}

func TestFormatCents(t *testing.T) {
	if got := FormatCents(1234); got != "R$ 12,34" {
		t.Errorf("FormatCents(1234) = %q", got)
	}
	if got := FormatCents(-50); got != "-R$ 0,50" {
		t.Errorf("FormatCents(-50) = %q", got)
	}
	if got := FormatCents(0); got != "R$ 0,00" {
		t.Errorf("FormatCents(0) = %q", got)
	}
}
