package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/auth"
	reportingapp "rentledger/internal/reporting/application"
	reporting "rentledger/internal/reporting/domain"
)

type staticClock struct{ now time.Time }

func (c staticClock) Now() time.Time { return c.now }

type staticSource struct {
	invoices []reporting.InvoiceRow
	payments []reporting.PaymentRow
	counters reportingapp.Counters
	failAll  bool
}

func (s *staticSource) err() error {
	if s.failAll {
		return errors.New("db down")
	}
	return nil
}

func (s *staticSource) FetchInvoices(ctx context.Context, orgID string, since time.Time) ([]reporting.InvoiceRow, error) {
	return s.invoices, s.err()
}

func (s *staticSource) FetchVerifiedPayments(ctx context.Context, orgID string) ([]reporting.PaymentRow, error) {
	return s.payments, s.err()
}

func (s *staticSource) FetchUnits(ctx context.Context, orgID string) ([]reporting.UnitRow, error) {
	return nil, s.err()
}

func (s *staticSource) FetchExpenses(ctx context.Context, orgID string, since time.Time) ([]reporting.ExpenseRow, error) {
	return nil, s.err()
}

func (s *staticSource) FetchArrears(ctx context.Context, orgID string) ([]reporting.ArrearsRow, error) {
	return nil, s.err()
}

func (s *staticSource) FetchPrepayments(ctx context.Context, orgID string) ([]reporting.PrepaymentRow, error) {
	return nil, s.err()
}

func (s *staticSource) FetchPrepaymentLeases(ctx context.Context, orgID string) ([]reporting.LeaseRow, error) {
	return nil, s.err()
}

func (s *staticSource) FetchTenantProfiles(ctx context.Context, orgID string, ids []string) (map[string]reporting.TenantProfile, error) {
	return nil, s.err()
}

func (s *staticSource) FetchCounters(ctx context.Context, orgID string) (reportingapp.Counters, error) {
	return s.counters, s.err()
}

func newHandler(t *testing.T, source reportingapp.SnapshotSource) *Handler {
	t.Helper()
	clock := staticClock{now: time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)}
	svc, err := reportingapp.NewDashboardService(source, clock, 6, log.New(&strings.Builder{}, "", 0))
	if err != nil {
		t.Fatalf("NewDashboardService: %v", err)
	}
	h, err := NewHandler(svc, "KES", nil)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return h
}

func TestDashboardReturnsOverview(t *testing.T) {
	period := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	source := &staticSource{
		invoices: []reporting.InvoiceRow{
			{ID: "inv-1", Status: "paid", Amount: decimal.NewFromInt(1000), PeriodStart: &period},
		},
		payments: []reporting.PaymentRow{{ID: "pay-1", InvoiceID: "inv-1", Amount: decimal.NewFromInt(1000)}},
		counters: reportingapp.Counters{TotalProperties: 2},
	}
	h := newHandler(t, source)

	req := httptest.NewRequest("GET", "/api/v1/dashboard", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), "org-1", auth.RoleViewer, "user-1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out reporting.Overview
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Summary.MonthlyRevenue != 1000 || out.Summary.TotalProperties != 2 {
		t.Fatalf("summary = %+v", out.Summary)
	}
	if out.Error != "" {
		t.Fatalf("unexpected error field: %q", out.Error)
	}
}

func TestDashboardTotalFailureStill200(t *testing.T) {
	h := newHandler(t, &staticSource{failAll: true})

	req := httptest.NewRequest("GET", "/api/v1/dashboard", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), "org-1", auth.RoleViewer, "user-1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200 even on total failure", rec.Code)
	}
	var out reporting.Overview
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Error == "" {
		t.Fatal("error field should describe the failure")
	}
	if out.Arrears == nil {
		t.Fatal("sections must serialize as empty arrays")
	}
}

func TestArrearsCSVExport(t *testing.T) {
	h := newHandler(t, &staticSource{})

	req := httptest.NewRequest("GET", "/api/v1/exports/arrears.csv", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), "org-1", auth.RoleManager, "user-1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "arrears_amount") {
		t.Fatal("csv header missing")
	}
}
