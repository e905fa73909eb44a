package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// UnassignedProperty is the bucket for rows without a property link.
const UnassignedProperty = "Unassigned"

// RevenuePoint is one month of the revenue series.
type RevenuePoint struct {
	Label   string
	Key     string
	Revenue decimal.Decimal
}

// ExpensePoint is one month of the expense series.
type ExpensePoint struct {
	Label    string
	Key      string
	Expenses decimal.Decimal
}

// RevenueReport is the monthly revenue fold over the trailing window.
type RevenueReport struct {
	Series       []RevenuePoint
	CurrentMonth decimal.Decimal
	PrevMonth    decimal.Decimal
	Delta        *float64
}

// invoiceMonth resolves the bucket date for an invoice, preferring the
// billing period over the due date. Nil means the row is skipped.
func invoiceMonth(inv InvoiceRow) *time.Time {
	if inv.PeriodStart != nil {
		return inv.PeriodStart
	}
	return inv.DueDate
}

// expenseMonth resolves the bucket date for an expense.
func expenseMonth(e ExpenseRow) *time.Time {
	if e.IncurredAt != nil {
		return e.IncurredAt
	}
	return e.CreatedAt
}

// AggregateRevenue folds capped invoice payments into the window's
// month buckets. Invoices with no collected money or no resolvable
// date contribute nothing.
func AggregateRevenue(window []MonthBucket, invoices []InvoiceRow, effectivePaid map[string]decimal.Decimal) RevenueReport {
	byKey := make(map[string]decimal.Decimal, len(window))
	for _, inv := range invoices {
		paid, ok := effectivePaid[inv.ID]
		if !ok || !paid.IsPositive() {
			continue
		}
		date := invoiceMonth(inv)
		if date == nil {
			continue
		}
		byKey[MonthKey(*date)] = byKey[MonthKey(*date)].Add(paid)
	}

	report := RevenueReport{Series: make([]RevenuePoint, 0, len(window))}
	for _, bucket := range window {
		report.Series = append(report.Series, RevenuePoint{
			Label:   bucket.Label,
			Key:     bucket.Key,
			Revenue: byKey[bucket.Key],
		})
	}
	if n := len(report.Series); n > 0 {
		report.CurrentMonth = report.Series[n-1].Revenue
		if n > 1 {
			report.PrevMonth = report.Series[n-2].Revenue
		}
	}
	report.Delta = MonthOverMonthDelta(report.CurrentMonth, report.PrevMonth)
	return report
}

// MonthOverMonthDelta is the percentage change against the previous
// month, nil when the baseline is zero.
func MonthOverMonthDelta(current, previous decimal.Decimal) *float64 {
	if previous.IsZero() {
		return nil
	}
	delta := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).InexactFloat64()
	return &delta
}

// AggregateExpenses folds expenses into the window's month buckets.
// Rows with neither an incurred nor a created date are skipped.
func AggregateExpenses(window []MonthBucket, expenses []ExpenseRow) []ExpensePoint {
	byKey := make(map[string]decimal.Decimal, len(window))
	for _, e := range expenses {
		date := expenseMonth(e)
		if date == nil {
			continue
		}
		byKey[MonthKey(*date)] = byKey[MonthKey(*date)].Add(e.Amount)
	}

	out := make([]ExpensePoint, 0, len(window))
	for _, bucket := range window {
		out = append(out, ExpensePoint{
			Label:    bucket.Label,
			Key:      bucket.Key,
			Expenses: byKey[bucket.Key],
		})
	}
	return out
}

// PropertyRevenue is the per-property split of collected revenue
// against the property's rent potential.
type PropertyRevenue struct {
	PropertyID string
	Name       string
	Revenue    decimal.Decimal
	Potential  decimal.Decimal
	Percent    float64
}

// SplitRevenueByProperty folds collected revenue per property and
// joins in the rent potential from the occupancy roll. Invoices
// without a property land in the Unassigned bucket.
func SplitRevenueByProperty(invoices []InvoiceRow, effectivePaid map[string]decimal.Decimal, occupancy []OccupancyRoll) []PropertyRevenue {
	byProperty := make(map[string]decimal.Decimal)
	for _, inv := range invoices {
		paid, ok := effectivePaid[inv.ID]
		if !ok || !paid.IsPositive() {
			continue
		}
		key := inv.PropertyID
		if key == "" {
			key = UnassignedProperty
		}
		byProperty[key] = byProperty[key].Add(paid)
	}

	out := make([]PropertyRevenue, 0, len(occupancy))
	seen := make(map[string]bool, len(occupancy))
	for _, roll := range occupancy {
		revenue := byProperty[roll.PropertyID]
		seen[roll.PropertyID] = true
		entry := PropertyRevenue{
			PropertyID: roll.PropertyID,
			Name:       roll.PropertyName,
			Revenue:    revenue,
			Potential:  roll.Potential,
		}
		if roll.Potential.IsPositive() {
			entry.Percent = revenue.Div(roll.Potential).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		out = append(out, entry)
	}
	var extra []PropertyRevenue
	for key, revenue := range byProperty {
		if seen[key] {
			continue
		}
		extra = append(extra, PropertyRevenue{PropertyID: key, Name: key, Revenue: revenue})
	}
	sort.SliceStable(extra, func(i, j int) bool { return extra[i].PropertyID < extra[j].PropertyID })
	return append(out, extra...)
}
