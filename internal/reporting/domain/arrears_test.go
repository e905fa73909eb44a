package domain

import (
	"testing"
	"time"
)

func TestRankArrearsSortsByAmountDescending(t *testing.T) {
	rows := []ArrearsRow{
		{LeaseID: "lease-1", TenantID: "ten-1", Amount: dec(500)},
		{LeaseID: "lease-2", TenantID: "ten-2", Amount: dec(1500)},
		{LeaseID: "lease-3", TenantID: "ten-3", Amount: dec(1000)},
	}

	ranked := RankArrears(rows, nil)

	want := []float64{1500, 1000, 500}
	for i, amount := range want {
		if ranked[i].Amount != amount {
			t.Fatalf("ranked[%d].Amount = %v, want %v", i, ranked[i].Amount, amount)
		}
	}
}

func TestRankArrearsKeepsRowsWithoutTenant(t *testing.T) {
	rows := []ArrearsRow{{LeaseID: "lease-1", Amount: dec(800)}}

	ranked := RankArrears(rows, nil)

	if len(ranked) != 1 {
		t.Fatal("row without tenant must be kept")
	}
	if ranked[0].TenantName != UnknownTenant {
		t.Fatalf("tenant name = %q, want placeholder", ranked[0].TenantName)
	}
}

func TestAgeArrearsBucketsByDaysOverdue(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	entries := []ArrearsEntry{
		{Amount: 100, OldestDueDate: date(2024, time.May, 20)},  // 12 days
		{Amount: 200, OldestDueDate: date(2024, time.April, 1)}, // 61 days
		{Amount: 300, OldestDueDate: date(2024, time.January, 1)},
		{Amount: 400}, // no due date, oldest bucket
	}

	buckets := AgeArrears(entries, now)

	if buckets[0].Count != 1 || buckets[0].Total != 100 {
		t.Fatalf("0-30 bucket = %+v", buckets[0])
	}
	if buckets[2].Count != 1 || buckets[2].Total != 200 {
		t.Fatalf("61-90 bucket = %+v", buckets[2])
	}
	if buckets[3].Count != 2 || buckets[3].Total != 700 {
		t.Fatalf("90+ bucket = %+v", buckets[3])
	}
}
