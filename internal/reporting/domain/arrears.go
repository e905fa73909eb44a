package domain

import (
	"sort"
	"time"
)

// UnknownTenant labels arrears rows whose tenant link is missing, so
// data-quality problems stay visible instead of being dropped.
const UnknownTenant = "Unknown tenant"

// ArrearsEntry is one ranked row of the defaulter list.
type ArrearsEntry struct {
	LeaseID       string
	TenantID      string
	TenantName    string
	TenantPhone   string
	UnitNumber    string
	Amount        float64
	OpenInvoices  int
	OldestDueDate *time.Time
}

// RankArrears sorts arrears rows by amount descending, ties keeping
// input order. Rows without a tenant reference are kept with a
// placeholder name.
func RankArrears(rows []ArrearsRow, profiles map[string]TenantProfile) []ArrearsEntry {
	out := make([]ArrearsEntry, 0, len(rows))
	for _, row := range rows {
		entry := ArrearsEntry{
			LeaseID:       row.LeaseID,
			TenantID:      row.TenantID,
			UnitNumber:    row.UnitNumber,
			Amount:        row.Amount.InexactFloat64(),
			OpenInvoices:  row.OpenInvoices,
			OldestDueDate: row.OldestDueDate,
		}
		entry.TenantName, entry.TenantPhone = profileNameAndPhone(profiles, row.TenantID)
		if entry.TenantName == "" {
			entry.TenantName = UnknownTenant
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}

// AgeBucket is one range of the arrears ageing chart.
type AgeBucket struct {
	Label string
	Min   int
	Max   int
	Count int
	Total float64
}

// AgeArrears buckets ranked arrears by days overdue of the oldest
// open invoice. Rows without a due date land in the oldest bucket.
func AgeArrears(entries []ArrearsEntry, now time.Time) []AgeBucket {
	buckets := []AgeBucket{
		{Label: "0-30", Min: 0, Max: 30},
		{Label: "31-60", Min: 31, Max: 60},
		{Label: "61-90", Min: 61, Max: 90},
		{Label: "90+", Min: 91, Max: -1},
	}
	now = now.UTC()
	for _, entry := range entries {
		days := 0
		if entry.OldestDueDate != nil {
			days = int(now.Sub(entry.OldestDueDate.UTC()).Hours() / 24)
			if days < 0 {
				days = 0
			}
		} else {
			days = 91
		}
		for i := range buckets {
			if days < buckets[i].Min {
				continue
			}
			if buckets[i].Max >= 0 && days > buckets[i].Max {
				continue
			}
			buckets[i].Count++
			buckets[i].Total += entry.Amount
			break
		}
	}
	return buckets
}
