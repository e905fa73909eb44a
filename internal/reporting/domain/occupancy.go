package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// OccupancyRoll is the per-property occupancy and rent-potential
// summary.
type OccupancyRoll struct {
	PropertyID    string
	PropertyName  string
	TotalUnits    int
	OccupiedUnits int
	Potential     decimal.Decimal
}

// unitPotential resolves the monthly rent a unit could earn: the
// active-like lease rent when present, otherwise the price category
// parsed as a currency string.
func unitPotential(u UnitRow) decimal.Decimal {
	if (u.LeaseStatus == "active" || u.LeaseStatus == "pending") && u.LeaseRent.IsPositive() {
		return u.LeaseRent
	}
	return ParseCurrency(u.PriceCategory)
}

// RollOccupancy folds unit rows into per-property occupancy and
// potential revenue. A unit counts as occupied only with a lease
// status of exactly "active"; pending leases contribute to potential
// but not occupancy.
func RollOccupancy(units []UnitRow) []OccupancyRoll {
	byProperty := make(map[string]*OccupancyRoll)
	var order []string
	for _, u := range units {
		key := u.PropertyID
		if key == "" {
			key = UnassignedProperty
		}
		roll, ok := byProperty[key]
		if !ok {
			name := u.PropertyName
			if name == "" {
				name = key
			}
			roll = &OccupancyRoll{PropertyID: key, PropertyName: name}
			byProperty[key] = roll
			order = append(order, key)
		}
		roll.TotalUnits++
		if u.LeaseStatus == "active" {
			roll.OccupiedUnits++
		}
		roll.Potential = roll.Potential.Add(unitPotential(u))
	}

	sort.Strings(order)
	out := make([]OccupancyRoll, 0, len(order))
	for _, key := range order {
		out = append(out, *byProperty[key])
	}
	return out
}

// ParseCurrency extracts the numeric value from a display string such
// as "KSh 12,000" or "KES 8,500.50". Unparseable or non-positive
// values yield zero.
func ParseCurrency(s string) decimal.Decimal {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil || !value.IsPositive() {
		return decimal.Zero
	}
	return value
}
