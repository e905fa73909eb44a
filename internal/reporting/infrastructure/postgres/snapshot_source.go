package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"rentledger/internal/reporting/application"
	"rentledger/internal/reporting/domain"
)

// DBTX is the subset of *sql.DB and *sql.Tx the source needs.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SnapshotSource reads dashboard inputs straight from the operational
// tables and the reporting views. Every fetch is scoped by org.
type SnapshotSource struct {
	db DBTX

	invoiceTable     string
	paymentTable     string
	unitTable        string
	propertyTable    string
	leaseTable       string
	tenantTable      string
	expenseTable     string
	maintenanceTable string
	arrearsView      string
	prepaymentsView  string
}

type SnapshotSourceOption func(*SnapshotSource)

func WithArrearsView(view string) SnapshotSourceOption {
	return func(s *SnapshotSource) { s.arrearsView = view }
}

func WithPrepaymentsView(view string) SnapshotSourceOption {
	return func(s *SnapshotSource) { s.prepaymentsView = view }
}

func NewSnapshotSource(db DBTX, opts ...SnapshotSourceOption) *SnapshotSource {
	s := &SnapshotSource{
		db:               db,
		invoiceTable:     "invoices",
		paymentTable:     "payments",
		unitTable:        "units",
		propertyTable:    "properties",
		leaseTable:       "leases",
		tenantTable:      "tenants",
		expenseTable:     "expenses",
		maintenanceTable: "maintenance_requests",
		arrearsView:      "lease_arrears",
		prepaymentsView:  "lease_prepayments",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SnapshotSource) FetchInvoices(ctx context.Context, orgID string, since time.Time) ([]domain.InvoiceRow, error) {
	query := fmt.Sprintf(`
		SELECT id, lease_id, property_id, invoice_type, status, amount, period_start, due_date
		FROM %s
		WHERE org_id = $1
		  AND status <> 'void'
		  AND (COALESCE(period_start, due_date) >= $2 OR COALESCE(period_start, due_date) IS NULL)`,
		s.invoiceTable)

	rows, err := s.db.QueryContext(ctx, query, orgID, since)
	if err != nil {
		return nil, fmt.Errorf("reporting: query invoices: %w", err)
	}
	defer rows.Close()

	var out []domain.InvoiceRow
	for rows.Next() {
		var row domain.InvoiceRow
		var leaseID, propertyID sql.NullString
		var periodStart, dueDate sql.NullTime
		if err := rows.Scan(&row.ID, &leaseID, &propertyID, &row.Type, &row.Status, &row.Amount, &periodStart, &dueDate); err != nil {
			return nil, fmt.Errorf("reporting: scan invoice: %w", err)
		}
		row.LeaseID = leaseID.String
		row.PropertyID = propertyID.String
		row.PeriodStart = timePtr(periodStart)
		row.DueDate = timePtr(dueDate)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SnapshotSource) FetchVerifiedPayments(ctx context.Context, orgID string) ([]domain.PaymentRow, error) {
	query := fmt.Sprintf(`
		SELECT id, invoice_id, amount, status, paid_at
		FROM %s
		WHERE org_id = $1 AND status = 'verified'`,
		s.paymentTable)

	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("reporting: query payments: %w", err)
	}
	defer rows.Close()

	var out []domain.PaymentRow
	for rows.Next() {
		var row domain.PaymentRow
		var invoiceID sql.NullString
		var paidAt sql.NullTime
		if err := rows.Scan(&row.ID, &invoiceID, &row.Amount, &row.Status, &paidAt); err != nil {
			return nil, fmt.Errorf("reporting: scan payment: %w", err)
		}
		row.InvoiceID = invoiceID.String
		row.PaidAt = timePtr(paidAt)
		out = append(out, row)
	}
	return out, rows.Err()
}

// FetchUnits joins each unit with its property and at most one
// active-like lease.
func (s *SnapshotSource) FetchUnits(ctx context.Context, orgID string) ([]domain.UnitRow, error) {
	query := fmt.Sprintf(`
		SELECT u.id, u.property_id, p.name, u.unit_number, u.price_category,
		       COALESCE(l.status, ''), COALESCE(l.monthly_rent, 0)
		FROM %s u
		JOIN %s p ON p.id = u.property_id
		LEFT JOIN LATERAL (
			SELECT status, monthly_rent FROM %s
			WHERE unit_id = u.id AND status IN ('active', 'pending')
			ORDER BY CASE status WHEN 'active' THEN 0 ELSE 1 END
			LIMIT 1
		) l ON true
		WHERE p.org_id = $1`,
		s.unitTable, s.propertyTable, s.leaseTable)

	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("reporting: query units: %w", err)
	}
	defer rows.Close()

	var out []domain.UnitRow
	for rows.Next() {
		var row domain.UnitRow
		if err := rows.Scan(&row.ID, &row.PropertyID, &row.PropertyName, &row.UnitNumber,
			&row.PriceCategory, &row.LeaseStatus, &row.LeaseRent); err != nil {
			return nil, fmt.Errorf("reporting: scan unit: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SnapshotSource) FetchExpenses(ctx context.Context, orgID string, since time.Time) ([]domain.ExpenseRow, error) {
	query := fmt.Sprintf(`
		SELECT id, property_id, amount, incurred_at, created_at
		FROM %s
		WHERE org_id = $1 AND COALESCE(incurred_at, created_at) >= $2`,
		s.expenseTable)

	rows, err := s.db.QueryContext(ctx, query, orgID, since)
	if err != nil {
		return nil, fmt.Errorf("reporting: query expenses: %w", err)
	}
	defer rows.Close()

	var out []domain.ExpenseRow
	for rows.Next() {
		var row domain.ExpenseRow
		var propertyID sql.NullString
		var incurredAt, createdAt sql.NullTime
		if err := rows.Scan(&row.ID, &propertyID, &row.Amount, &incurredAt, &createdAt); err != nil {
			return nil, fmt.Errorf("reporting: scan expense: %w", err)
		}
		row.PropertyID = propertyID.String
		row.IncurredAt = timePtr(incurredAt)
		row.CreatedAt = timePtr(createdAt)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SnapshotSource) FetchArrears(ctx context.Context, orgID string) ([]domain.ArrearsRow, error) {
	query := fmt.Sprintf(`
		SELECT lease_id, tenant_id, unit_id, unit_number, arrears_amount, open_invoices, oldest_due_date
		FROM %s
		WHERE org_id = $1`,
		s.arrearsView)

	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("reporting: query arrears view: %w", err)
	}
	defer rows.Close()

	var out []domain.ArrearsRow
	for rows.Next() {
		var row domain.ArrearsRow
		var tenantID, unitID, unitNumber sql.NullString
		var oldestDue sql.NullTime
		if err := rows.Scan(&row.LeaseID, &tenantID, &unitID, &unitNumber, &row.Amount, &row.OpenInvoices, &oldestDue); err != nil {
			return nil, fmt.Errorf("reporting: scan arrears: %w", err)
		}
		row.TenantID = tenantID.String
		row.UnitID = unitID.String
		row.UnitNumber = unitNumber.String
		row.OldestDueDate = timePtr(oldestDue)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SnapshotSource) FetchPrepayments(ctx context.Context, orgID string) ([]domain.PrepaymentRow, error) {
	query := fmt.Sprintf(`
		SELECT lease_id, tenant_id, unit_id, unit_number, rent_paid_until, next_rent_due, is_prepaid
		FROM %s
		WHERE org_id = $1`,
		s.prepaymentsView)

	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("reporting: query prepayments view: %w", err)
	}
	defer rows.Close()

	var out []domain.PrepaymentRow
	for rows.Next() {
		var row domain.PrepaymentRow
		var tenantID, unitID, unitNumber sql.NullString
		var paidUntil, nextDue sql.NullTime
		if err := rows.Scan(&row.LeaseID, &tenantID, &unitID, &unitNumber, &paidUntil, &nextDue, &row.PrepaidFlag); err != nil {
			return nil, fmt.Errorf("reporting: scan prepayment: %w", err)
		}
		row.TenantID = tenantID.String
		row.UnitID = unitID.String
		row.UnitNumber = unitNumber.String
		row.RentPaidUntil = timePtr(paidUntil)
		row.NextRentDue = timePtr(nextDue)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SnapshotSource) FetchPrepaymentLeases(ctx context.Context, orgID string) ([]domain.LeaseRow, error) {
	query := fmt.Sprintf(`
		SELECT l.id, l.tenant_id, l.unit_id, COALESCE(u.unit_number, ''), l.rent_paid_until, l.next_rent_due
		FROM %s l
		LEFT JOIN %s u ON u.id = l.unit_id
		WHERE l.org_id = $1 AND l.status = 'active'`,
		s.leaseTable, s.unitTable)

	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("reporting: query leases: %w", err)
	}
	defer rows.Close()

	var out []domain.LeaseRow
	for rows.Next() {
		var row domain.LeaseRow
		var tenantID, unitID sql.NullString
		var paidUntil, nextDue sql.NullTime
		if err := rows.Scan(&row.ID, &tenantID, &unitID, &row.UnitNumber, &paidUntil, &nextDue); err != nil {
			return nil, fmt.Errorf("reporting: scan lease: %w", err)
		}
		row.TenantID = tenantID.String
		row.UnitID = unitID.String
		row.RentPaidUntil = timePtr(paidUntil)
		row.NextRentDue = timePtr(nextDue)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SnapshotSource) FetchTenantProfiles(ctx context.Context, orgID string, tenantIDs []string) (map[string]domain.TenantProfile, error) {
	out := make(map[string]domain.TenantProfile, len(tenantIDs))
	if len(tenantIDs) == 0 {
		return out, nil
	}

	placeholders := make([]string, 0, len(tenantIDs))
	args := make([]any, 0, len(tenantIDs)+1)
	args = append(args, orgID)
	for i, id := range tenantIDs {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		args = append(args, id)
	}
	query := fmt.Sprintf(`
		SELECT id, full_name, COALESCE(phone, '')
		FROM %s
		WHERE org_id = $1 AND id IN (%s)`,
		s.tenantTable, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reporting: query tenant profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.TenantProfile
		if err := rows.Scan(&p.TenantID, &p.Name, &p.Phone); err != nil {
			return nil, fmt.Errorf("reporting: scan tenant profile: %w", err)
		}
		out[p.TenantID] = p
	}
	return out, rows.Err()
}

func (s *SnapshotSource) FetchCounters(ctx context.Context, orgID string) (application.Counters, error) {
	var c application.Counters

	counts := []struct {
		dest  *int
		query string
	}{
		{&c.TotalProperties, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE org_id = $1`, s.propertyTable)},
		{&c.TotalTenants, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE org_id = $1 AND status = 'active'`, s.tenantTable)},
		{&c.PendingRequests, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE org_id = $1 AND status IN ('open', 'in_progress')`, s.maintenanceTable)},
		{&c.PendingPayments, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE org_id = $1 AND status = 'pending'`, s.paymentTable)},
		{&c.FailedPayments, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE org_id = $1 AND status = 'rejected'`, s.paymentTable)},
	}
	for _, count := range counts {
		if err := s.db.QueryRowContext(ctx, count.query, orgID).Scan(count.dest); err != nil {
			return c, fmt.Errorf("reporting: count query: %w", err)
		}
	}
	return c, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	u := t.Time.UTC()
	return &u
}
