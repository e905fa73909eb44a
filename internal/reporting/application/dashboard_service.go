package application

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"rentledger/internal/observability/metrics"
	"rentledger/internal/reporting/domain"
)

// Counters are the scalar dashboard inputs fetched alongside the row
// snapshots.
type Counters struct {
	TotalProperties int
	TotalTenants    int
	PendingRequests int
	PendingPayments int
	FailedPayments  int
}

// SnapshotSource fetches the read-only inputs for one report request.
type SnapshotSource interface {
	FetchInvoices(ctx context.Context, orgID string, since time.Time) ([]domain.InvoiceRow, error)
	FetchVerifiedPayments(ctx context.Context, orgID string) ([]domain.PaymentRow, error)
	FetchUnits(ctx context.Context, orgID string) ([]domain.UnitRow, error)
	FetchExpenses(ctx context.Context, orgID string, since time.Time) ([]domain.ExpenseRow, error)
	FetchArrears(ctx context.Context, orgID string) ([]domain.ArrearsRow, error)
	FetchPrepayments(ctx context.Context, orgID string) ([]domain.PrepaymentRow, error)
	FetchPrepaymentLeases(ctx context.Context, orgID string) ([]domain.LeaseRow, error)
	FetchTenantProfiles(ctx context.Context, orgID string, tenantIDs []string) (map[string]domain.TenantProfile, error)
	FetchCounters(ctx context.Context, orgID string) (Counters, error)
}

// Clock provides current time.
type Clock interface {
	Now() time.Time
}

// DashboardService assembles the dashboard overview from a fresh
// snapshot per request.
type DashboardService struct {
	source SnapshotSource
	clock  Clock
	window int
	logger *log.Logger
}

func NewDashboardService(source SnapshotSource, clock Clock, windowMonths int, logger *log.Logger) (*DashboardService, error) {
	if source == nil {
		return nil, errors.New("dashboard service: nil snapshot source")
	}
	if clock == nil {
		return nil, errors.New("dashboard service: nil clock")
	}
	if windowMonths <= 0 {
		windowMonths = 12
	}
	if logger == nil {
		logger = log.Default()
	}
	return &DashboardService{source: source, clock: clock, window: windowMonths, logger: logger}, nil
}

// Overview fetches all snapshot sources concurrently, degrades failed
// sources to empty, and folds the result. It never returns an error
// for partial data; only when every source failed does the payload
// carry an error string.
func (s *DashboardService) Overview(ctx context.Context, orgID string) domain.Overview {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveDashboard(result, time.Since(start))
	}()

	now := s.clock.Now().UTC()
	window := domain.Window(now, s.window)
	since := window[0].Start

	snap := domain.Snapshot{}
	counters := Counters{}
	var mu sync.Mutex
	failed := 0
	total := 0

	fetch := func(name string, fn func() error) func() error {
		total++
		return func() error {
			if err := fn(); err != nil {
				s.logger.Printf("reporting: snapshot source %s failed: %v", name, err)
				metrics.IncSnapshotError(name)
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(fetch("invoices", func() error {
		rows, err := s.source.FetchInvoices(gctx, orgID, since)
		snap.Invoices = rows
		return err
	}))
	g.Go(fetch("payments", func() error {
		rows, err := s.source.FetchVerifiedPayments(gctx, orgID)
		snap.Payments = rows
		return err
	}))
	g.Go(fetch("units", func() error {
		rows, err := s.source.FetchUnits(gctx, orgID)
		snap.Units = rows
		return err
	}))
	g.Go(fetch("expenses", func() error {
		rows, err := s.source.FetchExpenses(gctx, orgID, since)
		snap.Expenses = rows
		return err
	}))
	g.Go(fetch("arrears", func() error {
		rows, err := s.source.FetchArrears(gctx, orgID)
		snap.Arrears = rows
		return err
	}))
	g.Go(fetch("prepayments", func() error {
		rows, err := s.source.FetchPrepayments(gctx, orgID)
		snap.Prepayments = rows
		return err
	}))
	g.Go(fetch("leases", func() error {
		rows, err := s.source.FetchPrepaymentLeases(gctx, orgID)
		snap.Leases = rows
		return err
	}))
	g.Go(fetch("counters", func() error {
		c, err := s.source.FetchCounters(gctx, orgID)
		counters = c
		return err
	}))
	_ = g.Wait()

	if failed == total {
		result = metrics.ResultError
		return domain.EmptyOverview("all snapshot sources unavailable")
	}
	if failed > 0 {
		result = metrics.ResultPartial
	}

	// Profile enrichment depends on the arrears and lease rows, so it
	// runs after the fan-out.
	profiles, err := s.source.FetchTenantProfiles(ctx, orgID, tenantIDs(snap))
	if err != nil {
		s.logger.Printf("reporting: snapshot source profiles failed: %v", err)
		metrics.IncSnapshotError("profiles")
		profiles = map[string]domain.TenantProfile{}
		result = metrics.ResultPartial
	}
	snap.Profiles = profiles

	return s.fold(window, now, snap, counters)
}

func (s *DashboardService) fold(window []domain.MonthBucket, now time.Time, snap domain.Snapshot, counters Counters) domain.Overview {
	effective := domain.MatchPayments(snap.Invoices, snap.Payments)
	revenue := domain.AggregateRevenue(window, snap.Invoices, effective)
	expenses := domain.AggregateExpenses(window, snap.Expenses)
	occupancy := domain.RollOccupancy(snap.Units)
	propertyRevenue := domain.SplitRevenueByProperty(snap.Invoices, effective, occupancy)
	arrears := domain.RankArrears(snap.Arrears, snap.Profiles)
	prepayments := domain.ResolvePrepayments(snap.Prepayments, snap.Leases, snap.Profiles, domain.MonthStart(now), s.logger)

	paidInvoices := 0
	for _, inv := range snap.Invoices {
		if inv.Status == "paid" {
			paidInvoices++
		}
	}

	out := domain.Overview{
		Summary: domain.Summary{
			TotalProperties: counters.TotalProperties,
			TotalTenants:    counters.TotalTenants,
			MonthlyRevenue:  revenue.CurrentMonth.InexactFloat64(),
			RevenueDelta:    revenue.Delta,
			PendingRequests: counters.PendingRequests,
			PaidInvoices:    paidInvoices,
			PendingPayments: counters.PendingPayments,
		},
		Revenue: domain.RevenueSection{
			Series:              make([]domain.SeriesPoint, 0, len(revenue.Series)),
			CurrentMonthRevenue: revenue.CurrentMonth.InexactFloat64(),
			PrevMonthRevenue:    revenue.PrevMonth.InexactFloat64(),
		},
		PropertyRevenue: make([]domain.PropertySection, 0, len(propertyRevenue)),
		Expenses:        domain.ExpensesSection{Monthly: make([]domain.ExpensePointJSON, 0, len(expenses))},
		Payments: domain.PaymentsSection{
			Paid:    len(snap.Payments),
			Pending: counters.PendingPayments,
			Failed:  counters.FailedPayments,
		},
		Occupancy:   make([]domain.OccupancySection, 0, len(occupancy)),
		Arrears:     make([]domain.ArrearsSection, 0, len(arrears)),
		Prepayments: make([]domain.PrepaymentSection, 0, len(prepayments)),
	}

	for _, point := range revenue.Series {
		out.Revenue.Series = append(out.Revenue.Series, domain.SeriesPoint{
			Label:   point.Label,
			Key:     point.Key,
			Revenue: point.Revenue.InexactFloat64(),
		})
	}
	for _, entry := range propertyRevenue {
		out.PropertyRevenue = append(out.PropertyRevenue, domain.PropertySection{
			Name:      entry.Name,
			Revenue:   entry.Revenue.InexactFloat64(),
			Potential: entry.Potential.InexactFloat64(),
			Percent:   entry.Percent,
		})
	}
	for _, point := range expenses {
		out.Expenses.Monthly = append(out.Expenses.Monthly, domain.ExpensePointJSON{
			Label:    point.Label,
			Key:      point.Key,
			Expenses: point.Expenses.InexactFloat64(),
		})
	}
	for _, roll := range occupancy {
		out.Occupancy = append(out.Occupancy, domain.OccupancySection{
			BuildingID:    roll.PropertyID,
			PropertyName:  roll.PropertyName,
			TotalUnits:    roll.TotalUnits,
			OccupiedUnits: roll.OccupiedUnits,
		})
	}
	for _, entry := range arrears {
		section := domain.ArrearsSection{
			LeaseID:       entry.LeaseID,
			TenantID:      entry.TenantID,
			TenantName:    entry.TenantName,
			TenantPhone:   entry.TenantPhone,
			UnitNumber:    entry.UnitNumber,
			ArrearsAmount: entry.Amount,
			OpenInvoices:  entry.OpenInvoices,
		}
		if entry.OldestDueDate != nil {
			section.OldestDueDate = entry.OldestDueDate.UTC().Format("2006-01-02")
		}
		out.Arrears = append(out.Arrears, section)
	}
	for _, entry := range prepayments {
		section := domain.PrepaymentSection{
			LeaseID:       entry.LeaseID,
			TenantID:      entry.TenantID,
			UnitID:        entry.UnitID,
			UnitNumber:    entry.UnitNumber,
			TenantName:    entry.TenantName,
			PrepaidMonths: entry.PrepaidMonths,
			IsPrepaid:     entry.IsPrepaid,
		}
		if entry.RentPaidUntil != nil {
			section.RentPaidUntil = entry.RentPaidUntil.UTC().Format("2006-01-02")
		}
		if entry.NextRentDue != nil {
			section.NextRentDue = entry.NextRentDue.UTC().Format("2006-01-02")
		}
		out.Prepayments = append(out.Prepayments, section)
	}
	return out
}

func tenantIDs(snap domain.Snapshot) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range snap.Arrears {
		if row.TenantID != "" && !seen[row.TenantID] {
			seen[row.TenantID] = true
			out = append(out, row.TenantID)
		}
	}
	for _, row := range snap.Prepayments {
		if row.TenantID != "" && !seen[row.TenantID] {
			seen[row.TenantID] = true
			out = append(out, row.TenantID)
		}
	}
	for _, row := range snap.Leases {
		if row.TenantID != "" && !seen[row.TenantID] {
			seen[row.TenantID] = true
			out = append(out, row.TenantID)
		}
	}
	return out
}
