package domain

import "testing"

func TestRollOccupancyPendingCountsPotentialOnly(t *testing.T) {
	units := []UnitRow{
		{ID: "u-1", PropertyID: "prop-1", PropertyName: "Sunrise Court", LeaseStatus: "active", LeaseRent: dec(1000)},
		{ID: "u-2", PropertyID: "prop-1", PropertyName: "Sunrise Court", LeaseStatus: "pending", LeaseRent: dec(1200)},
		{ID: "u-3", PropertyID: "prop-1", PropertyName: "Sunrise Court", PriceCategory: "KSh 900"},
	}

	rolls := RollOccupancy(units)

	if len(rolls) != 1 {
		t.Fatalf("rolls = %d, want 1", len(rolls))
	}
	roll := rolls[0]
	if roll.TotalUnits != 3 || roll.OccupiedUnits != 1 {
		t.Fatalf("occupancy = %d/%d, want 1/3", roll.OccupiedUnits, roll.TotalUnits)
	}
	if !roll.Potential.Equal(dec(3100)) {
		t.Fatalf("potential = %s, want 3100", roll.Potential)
	}
}

func TestRollOccupancyUnassignedProperty(t *testing.T) {
	rolls := RollOccupancy([]UnitRow{{ID: "u-1", PriceCategory: "500"}})

	if len(rolls) != 1 || rolls[0].PropertyID != UnassignedProperty {
		t.Fatalf("rolls = %+v", rolls)
	}
}

func TestParseCurrency(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"KSh 12,000", 12000},
		{"KES 8,500.50", 8500.50},
		{"premium", 0},
		{"", 0},
		{"-300", 300},
	}
	for _, tc := range cases {
		if got := ParseCurrency(tc.in).InexactFloat64(); got != tc.want {
			t.Errorf("ParseCurrency(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
