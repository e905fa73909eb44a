package domain

import (
	"log"
	"time"
)

// PrepaidMonths counts whole forward months already covered by a
// lease's paid-until pointer, starting at the later of the current
// month and the next-due month.
func PrepaidMonths(rentPaidUntil, nextRentDue *time.Time, currentMonthStart time.Time) int {
	if rentPaidUntil == nil {
		return 0
	}
	baseline := MonthStart(currentMonthStart)
	if nextRentDue != nil {
		nextDueMonth := MonthStart(*nextRentDue)
		if nextDueMonth.After(baseline) {
			baseline = nextDueMonth
		}
	}
	paidMonth := MonthStart(*rentPaidUntil)
	if paidMonth.Before(baseline) {
		return 0
	}
	months := MonthsBetween(baseline, paidMonth) + 1
	if months < 0 {
		return 0
	}
	return months
}

// PrepaymentEntry is one lease in the prepayments output.
type PrepaymentEntry struct {
	LeaseID       string
	TenantID      string
	UnitID        string
	UnitNumber    string
	TenantName    string
	TenantPhone   string
	RentPaidUntil *time.Time
	NextRentDue   *time.Time
	PrepaidMonths int
	IsPrepaid     bool
}

// ResolvePrepayments prefers the precomputed view when it has rows and
// falls back to recomputing from lease pointers. The recomputed month
// count is the ground truth either way; a view flag that disagrees is
// logged and overridden.
func ResolvePrepayments(
	viewRows []PrepaymentRow,
	leases []LeaseRow,
	profiles map[string]TenantProfile,
	currentMonthStart time.Time,
	logger *log.Logger,
) []PrepaymentEntry {
	if logger == nil {
		logger = log.Default()
	}

	if len(viewRows) > 0 {
		out := make([]PrepaymentEntry, 0, len(viewRows))
		for _, row := range viewRows {
			months := PrepaidMonths(row.RentPaidUntil, row.NextRentDue, currentMonthStart)
			if row.PrepaidFlag != (months > 0) {
				logger.Printf("reporting: prepayment view disagrees for lease %s: view=%t recomputed=%d",
					row.LeaseID, row.PrepaidFlag, months)
			}
			entry := PrepaymentEntry{
				LeaseID:       row.LeaseID,
				TenantID:      row.TenantID,
				UnitID:        row.UnitID,
				UnitNumber:    row.UnitNumber,
				RentPaidUntil: row.RentPaidUntil,
				NextRentDue:   row.NextRentDue,
				PrepaidMonths: months,
				IsPrepaid:     months > 0,
			}
			entry.TenantName, entry.TenantPhone = profileNameAndPhone(profiles, row.TenantID)
			out = append(out, entry)
		}
		return out
	}

	out := make([]PrepaymentEntry, 0, len(leases))
	for _, lease := range leases {
		months := PrepaidMonths(lease.RentPaidUntil, lease.NextRentDue, currentMonthStart)
		entry := PrepaymentEntry{
			LeaseID:       lease.ID,
			TenantID:      lease.TenantID,
			UnitID:        lease.UnitID,
			UnitNumber:    lease.UnitNumber,
			RentPaidUntil: lease.RentPaidUntil,
			NextRentDue:   lease.NextRentDue,
			PrepaidMonths: months,
			IsPrepaid:     months > 0,
		}
		entry.TenantName, entry.TenantPhone = profileNameAndPhone(profiles, lease.TenantID)
		out = append(out, entry)
	}
	return out
}

func profileNameAndPhone(profiles map[string]TenantProfile, tenantID string) (string, string) {
	if profiles == nil {
		return "", ""
	}
	p, ok := profiles[tenantID]
	if !ok {
		return "", ""
	}
	return p.Name, p.Phone
}
