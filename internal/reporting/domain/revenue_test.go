package domain

import (
	"testing"
	"time"
)

func TestAggregateRevenueCapsOverpayment(t *testing.T) {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	window := Window(now, 6)
	invoices := []InvoiceRow{{ID: "inv-1", Amount: dec(1000), PeriodStart: date(2024, time.May, 1)}}
	payments := []PaymentRow{
		{ID: "pay-1", InvoiceID: "inv-1", Amount: dec(600)},
		{ID: "pay-2", InvoiceID: "inv-1", Amount: dec(600)},
	}

	report := AggregateRevenue(window, invoices, MatchPayments(invoices, payments))

	var may RevenuePoint
	for _, point := range report.Series {
		if point.Key == "2024-05" {
			may = point
		}
	}
	if !may.Revenue.Equal(dec(1000)) {
		t.Fatalf("revenue[2024-05] = %s, want 1000", may.Revenue)
	}
}

func TestAggregateRevenueFallsBackToDueDate(t *testing.T) {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	window := Window(now, 6)
	invoices := []InvoiceRow{{ID: "inv-1", Amount: dec(500), DueDate: date(2024, time.April, 5)}}
	payments := []PaymentRow{{ID: "pay-1", InvoiceID: "inv-1", Amount: dec(500)}}

	report := AggregateRevenue(window, invoices, MatchPayments(invoices, payments))

	for _, point := range report.Series {
		if point.Key == "2024-04" && !point.Revenue.Equal(dec(500)) {
			t.Fatalf("revenue[2024-04] = %s, want 500", point.Revenue)
		}
	}
}

func TestAggregateRevenueSkipsDatelessInvoices(t *testing.T) {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	window := Window(now, 6)
	invoices := []InvoiceRow{{ID: "inv-1", Amount: dec(500)}}
	payments := []PaymentRow{{ID: "pay-1", InvoiceID: "inv-1", Amount: dec(500)}}

	report := AggregateRevenue(window, invoices, MatchPayments(invoices, payments))

	for _, point := range report.Series {
		if !point.Revenue.IsZero() {
			t.Fatalf("dateless invoice leaked into bucket %s", point.Key)
		}
	}
}

func TestMonthOverMonthDeltaNilOnZeroBaseline(t *testing.T) {
	if delta := MonthOverMonthDelta(dec(1000), dec(0)); delta != nil {
		t.Fatalf("delta against zero baseline = %v, want nil", *delta)
	}
	delta := MonthOverMonthDelta(dec(1200), dec(1000))
	if delta == nil || *delta != 20 {
		t.Fatalf("delta = %v, want 20", delta)
	}
}

func TestAggregateExpensesSkipsDatelessRows(t *testing.T) {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	window := Window(now, 3)
	expenses := []ExpenseRow{
		{ID: "exp-1", Amount: dec(300), IncurredAt: date(2024, time.May, 10)},
		{ID: "exp-2", Amount: dec(999)},
	}

	points := AggregateExpenses(window, expenses)

	var total float64
	for _, point := range points {
		total += point.Expenses.InexactFloat64()
	}
	if total != 300 {
		t.Fatalf("total bucketed expenses = %v, want 300", total)
	}
}

func TestSplitRevenueByPropertyUnassignedBucket(t *testing.T) {
	invoices := []InvoiceRow{
		{ID: "inv-1", PropertyID: "prop-1", Amount: dec(1000), PeriodStart: date(2024, time.May, 1)},
		{ID: "inv-2", PropertyID: "", Amount: dec(400), PeriodStart: date(2024, time.May, 1)},
	}
	payments := []PaymentRow{
		{ID: "pay-1", InvoiceID: "inv-1", Amount: dec(1000)},
		{ID: "pay-2", InvoiceID: "inv-2", Amount: dec(400)},
	}
	occupancy := []OccupancyRoll{{PropertyID: "prop-1", PropertyName: "Sunrise Court", Potential: dec(2000)}}

	split := SplitRevenueByProperty(invoices, MatchPayments(invoices, payments), occupancy)

	if len(split) != 2 {
		t.Fatalf("split rows = %d, want 2", len(split))
	}
	if split[0].Name != "Sunrise Court" || !split[0].Revenue.Equal(dec(1000)) || split[0].Percent != 50 {
		t.Fatalf("prop-1 split = %+v", split[0])
	}
	if split[1].Name != UnassignedProperty || !split[1].Revenue.Equal(dec(400)) {
		t.Fatalf("unassigned split = %+v", split[1])
	}
}
