package application

import (
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/reporting/domain"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubSource struct {
	invoices    []domain.InvoiceRow
	payments    []domain.PaymentRow
	units       []domain.UnitRow
	expenses    []domain.ExpenseRow
	arrears     []domain.ArrearsRow
	prepayments []domain.PrepaymentRow
	leases      []domain.LeaseRow
	profiles    map[string]domain.TenantProfile
	counters    Counters

	failAll  bool
	failOnly map[string]bool
}

func (s *stubSource) fail(name string) error {
	if s.failAll || s.failOnly[name] {
		return errors.New(name + " unavailable")
	}
	return nil
}

func (s *stubSource) FetchInvoices(ctx context.Context, orgID string, since time.Time) ([]domain.InvoiceRow, error) {
	return s.invoices, s.fail("invoices")
}

func (s *stubSource) FetchVerifiedPayments(ctx context.Context, orgID string) ([]domain.PaymentRow, error) {
	return s.payments, s.fail("payments")
}

func (s *stubSource) FetchUnits(ctx context.Context, orgID string) ([]domain.UnitRow, error) {
	return s.units, s.fail("units")
}

func (s *stubSource) FetchExpenses(ctx context.Context, orgID string, since time.Time) ([]domain.ExpenseRow, error) {
	return s.expenses, s.fail("expenses")
}

func (s *stubSource) FetchArrears(ctx context.Context, orgID string) ([]domain.ArrearsRow, error) {
	return s.arrears, s.fail("arrears")
}

func (s *stubSource) FetchPrepayments(ctx context.Context, orgID string) ([]domain.PrepaymentRow, error) {
	return s.prepayments, s.fail("prepayments")
}

func (s *stubSource) FetchPrepaymentLeases(ctx context.Context, orgID string) ([]domain.LeaseRow, error) {
	return s.leases, s.fail("leases")
}

func (s *stubSource) FetchTenantProfiles(ctx context.Context, orgID string, tenantIDs []string) (map[string]domain.TenantProfile, error) {
	return s.profiles, s.fail("profiles")
}

func (s *stubSource) FetchCounters(ctx context.Context, orgID string) (Counters, error) {
	return s.counters, s.fail("counters")
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newTestService(t *testing.T, source SnapshotSource) *DashboardService {
	t.Helper()
	svc, err := NewDashboardService(source, fixedClock{now: time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)}, 6, log.New(&strings.Builder{}, "", 0))
	if err != nil {
		t.Fatalf("NewDashboardService: %v", err)
	}
	return svc
}

func TestOverviewAssemblesAllSections(t *testing.T) {
	source := &stubSource{
		invoices: []domain.InvoiceRow{
			{ID: "inv-1", PropertyID: "prop-1", Status: "paid", Amount: dec(1000), PeriodStart: datePtr(2024, time.June, 1)},
			{ID: "inv-2", PropertyID: "prop-1", Status: "paid", Amount: dec(1000), PeriodStart: datePtr(2024, time.May, 1)},
		},
		payments: []domain.PaymentRow{
			{ID: "pay-1", InvoiceID: "inv-1", Amount: dec(1000)},
			{ID: "pay-2", InvoiceID: "inv-2", Amount: dec(800)},
		},
		units: []domain.UnitRow{
			{ID: "u-1", PropertyID: "prop-1", PropertyName: "Sunrise Court", LeaseStatus: "active", LeaseRent: dec(1000)},
			{ID: "u-2", PropertyID: "prop-1", PropertyName: "Sunrise Court"},
		},
		arrears: []domain.ArrearsRow{
			{LeaseID: "lease-1", TenantID: "ten-1", Amount: dec(200), OpenInvoices: 1},
		},
		leases: []domain.LeaseRow{
			{ID: "lease-1", TenantID: "ten-1", RentPaidUntil: datePtr(2024, time.September, 1)},
		},
		profiles: map[string]domain.TenantProfile{"ten-1": {TenantID: "ten-1", Name: "Alice Wambui"}},
		counters: Counters{TotalProperties: 1, TotalTenants: 1, PendingPayments: 2, FailedPayments: 1},
	}

	out := newTestService(t, source).Overview(context.Background(), "org-1")

	if out.Error != "" {
		t.Fatalf("unexpected error payload: %q", out.Error)
	}
	if out.Summary.MonthlyRevenue != 1000 {
		t.Fatalf("monthly revenue = %v, want 1000", out.Summary.MonthlyRevenue)
	}
	if out.Summary.RevenueDelta == nil || *out.Summary.RevenueDelta != 25 {
		t.Fatalf("revenue delta = %v, want 25", out.Summary.RevenueDelta)
	}
	if out.Summary.PaidInvoices != 2 {
		t.Fatalf("paid invoices = %d, want 2", out.Summary.PaidInvoices)
	}
	if len(out.Revenue.Series) != 6 {
		t.Fatalf("series length = %d, want 6", len(out.Revenue.Series))
	}
	if len(out.Occupancy) != 1 || out.Occupancy[0].OccupiedUnits != 1 || out.Occupancy[0].TotalUnits != 2 {
		t.Fatalf("occupancy = %+v", out.Occupancy)
	}
	if len(out.Arrears) != 1 || out.Arrears[0].TenantName != "Alice Wambui" {
		t.Fatalf("arrears = %+v", out.Arrears)
	}
	// June through September inclusive.
	if len(out.Prepayments) != 1 || out.Prepayments[0].PrepaidMonths != 4 || !out.Prepayments[0].IsPrepaid {
		t.Fatalf("prepayments = %+v", out.Prepayments)
	}
	if out.Payments.Paid != 2 || out.Payments.Pending != 2 || out.Payments.Failed != 1 {
		t.Fatalf("payments section = %+v", out.Payments)
	}
}

func TestOverviewDegradesFailedSourceToEmpty(t *testing.T) {
	source := &stubSource{
		invoices: []domain.InvoiceRow{
			{ID: "inv-1", Status: "paid", Amount: dec(500), PeriodStart: datePtr(2024, time.June, 1)},
		},
		payments: []domain.PaymentRow{{ID: "pay-1", InvoiceID: "inv-1", Amount: dec(500)}},
		counters: Counters{TotalProperties: 3},
		failOnly: map[string]bool{"arrears": true},
	}

	out := newTestService(t, source).Overview(context.Background(), "org-1")

	if out.Error != "" {
		t.Fatalf("partial failure must not surface an error payload, got %q", out.Error)
	}
	if len(out.Arrears) != 0 {
		t.Fatalf("failed source should degrade to empty, got %+v", out.Arrears)
	}
	if out.Summary.MonthlyRevenue != 500 || out.Summary.TotalProperties != 3 {
		t.Fatalf("healthy sources lost: %+v", out.Summary)
	}
}

func TestOverviewTotalFailureYieldsEmptyPayload(t *testing.T) {
	source := &stubSource{failAll: true}

	out := newTestService(t, source).Overview(context.Background(), "org-1")

	if out.Error == "" {
		t.Fatal("total failure should carry an error string")
	}
	if out.Summary.MonthlyRevenue != 0 || len(out.Revenue.Series) != 0 {
		t.Fatalf("total failure payload should be empty: %+v", out)
	}
	if out.Arrears == nil || out.Prepayments == nil {
		t.Fatal("sections must be empty slices, not nil")
	}
}
