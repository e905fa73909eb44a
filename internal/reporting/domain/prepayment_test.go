package domain

import (
	"testing"
	"time"
)

func TestPrepaidMonthsFromCurrentMonth(t *testing.T) {
	current := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	if got := PrepaidMonths(date(2024, time.June, 1), nil, current); got != 4 {
		t.Fatalf("prepaid months = %d, want 4", got)
	}
}

func TestPrepaidMonthsBaselineIsLaterOfNextDue(t *testing.T) {
	current := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	// Next due already advanced past the current month, so the count
	// starts there.
	if got := PrepaidMonths(date(2024, time.June, 1), date(2024, time.May, 1), current); got != 2 {
		t.Fatalf("prepaid months = %d, want 2", got)
	}
}

func TestPrepaidMonthsZeroWhenInThePast(t *testing.T) {
	current := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	if got := PrepaidMonths(date(2024, time.January, 1), nil, current); got != 0 {
		t.Fatalf("prepaid months = %d, want 0", got)
	}
	if got := PrepaidMonths(nil, nil, current); got != 0 {
		t.Fatal("nil paid-until should yield zero")
	}
}

func TestResolvePrepaymentsRecomputesWhenViewEmpty(t *testing.T) {
	current := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	leases := []LeaseRow{
		{ID: "lease-1", TenantID: "ten-1", UnitNumber: "A1", RentPaidUntil: date(2024, time.June, 1)},
		{ID: "lease-2", TenantID: "ten-2", UnitNumber: "A2", RentPaidUntil: date(2024, time.January, 1)},
	}
	profiles := map[string]TenantProfile{"ten-1": {TenantID: "ten-1", Name: "Alice Wambui", Phone: "0712"}}

	entries := ResolvePrepayments(nil, leases, profiles, current, nil)

	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].PrepaidMonths != 4 || !entries[0].IsPrepaid || entries[0].TenantName != "Alice Wambui" {
		t.Fatalf("lease-1 entry = %+v", entries[0])
	}
	if entries[1].PrepaidMonths != 0 || entries[1].IsPrepaid {
		t.Fatalf("past paid-until should not flag prepaid: %+v", entries[1])
	}
}

func TestResolvePrepaymentsOverridesStaleViewFlag(t *testing.T) {
	current := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	view := []PrepaymentRow{
		{LeaseID: "lease-1", TenantID: "ten-1", RentPaidUntil: date(2024, time.January, 1), PrepaidFlag: true},
	}

	entries := ResolvePrepayments(view, nil, nil, current, nil)

	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].IsPrepaid || entries[0].PrepaidMonths != 0 {
		t.Fatalf("recomputed months should override view flag: %+v", entries[0])
	}
}
