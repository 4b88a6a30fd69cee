package core

import (
	"testing"
	"time"
)

func TestParseMonthID(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-03", true},
		{"2025-12", true},
		{"2025-13", false},
		{"2025-3", false},
		{"202503", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := ParseMonthID(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestMonthIDNextPrev(t *testing.T) {
	if next := MonthID("2025-12").Next(); next != "2026-01" {
		t.Fatalf("next of 2025-12 = %s", next)
	}
	if prev := MonthID("2025-01").Prev(); prev != "2024-12" {
		t.Fatalf("prev of 2025-01 = %s", prev)
	}
}

func TestMonthOf(t *testing.T) {
	d := time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)
	if got := MonthOf(d); got != "2025-03" {
		t.Fatalf("got %s", got)
	}
	if !MonthID("2025-03").Contains(d) {
		t.Fatalf("expected 2025-03 to contain %v", d)
	}
	if MonthID("2025-04").Contains(d) {
		t.Fatalf("did not expect 2025-04 to contain %v", d)
	}
}
