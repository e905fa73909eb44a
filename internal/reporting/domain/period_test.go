package domain

import (
	"testing"
	"time"
)

func TestMonthKeyUsesUTC(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*3600)
	// 01:30 local on June 1 is still May 31 in UTC.
	local := time.Date(2024, time.June, 1, 1, 30, 0, 0, nairobi)

	if got := MonthKey(local); got != "2024-05" {
		t.Fatalf("MonthKey = %q, want 2024-05", got)
	}
}

func TestMonthsBetween(t *testing.T) {
	a := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	if got := MonthsBetween(a, b); got != 3 {
		t.Fatalf("MonthsBetween = %d, want 3", got)
	}
	if got := MonthsBetween(b, a); got != -3 {
		t.Fatalf("reverse MonthsBetween = %d, want -3", got)
	}
}

func TestWindowEndsAtCurrentMonth(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	window := Window(now, 3)

	if len(window) != 3 {
		t.Fatalf("window size = %d, want 3", len(window))
	}
	keys := []string{"2024-04", "2024-05", "2024-06"}
	for i, key := range keys {
		if window[i].Key != key {
			t.Fatalf("window[%d].Key = %q, want %q", i, window[i].Key, key)
		}
	}
	if window[2].Label != "Jun 2024" {
		t.Fatalf("label = %q, want Jun 2024", window[2].Label)
	}
}
