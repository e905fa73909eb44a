package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rentledger/internal/leasing/domain"
)

// LeaseRepository persists leases in PostgreSQL.
type LeaseRepository struct {
	db    DBTX
	table string
}

type LeaseRepositoryOption func(*LeaseRepository)

func WithLeaseTable(name string) LeaseRepositoryOption {
	return func(r *LeaseRepository) {
		if name != "" {
			r.table = name
		}
	}
}

func NewLeaseRepository(db DBTX, opts ...LeaseRepositoryOption) *LeaseRepository {
	r := &LeaseRepository{db: db, table: "leases"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const leaseColumns = `id, org_id, property_id, unit_id, tenant_id, monthly_rent, status,
		start_date, end_date, rent_paid_until, next_rent_due, created_at, updated_at`

func (r *LeaseRepository) Get(ctx context.Context, id string) (*domain.Lease, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, leaseColumns, r.table)

	l, err := scanLease(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lease: %w", err)
	}
	return l, nil
}

func (r *LeaseRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Lease, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = $1 ORDER BY start_date DESC`, leaseColumns, r.table)
	return r.list(ctx, query, tenantID)
}

func (r *LeaseRepository) ListByProperty(ctx context.Context, propertyID string) ([]domain.Lease, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE property_id = $1 ORDER BY start_date DESC`, leaseColumns, r.table)
	return r.list(ctx, query, propertyID)
}

// ActiveByUnit returns the active lease occupying a unit, nil when
// the unit is vacant.
func (r *LeaseRepository) ActiveByUnit(ctx context.Context, unitID string) (*domain.Lease, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE unit_id = $1 AND status = 'active'
		ORDER BY start_date DESC
		LIMIT 1
	`, leaseColumns, r.table)

	l, err := scanLease(r.db.QueryRowContext(ctx, query, unitID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active lease by unit: %w", err)
	}
	return l, nil
}

func (r *LeaseRepository) list(ctx context.Context, query string, arg any) ([]domain.Lease, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list leases: %w", err)
	}
	defer rows.Close()

	var out []domain.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lease: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *LeaseRepository) Save(ctx context.Context, l *domain.Lease) error {
	if err := l.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			monthly_rent = EXCLUDED.monthly_rent,
			status = EXCLUDED.status,
			end_date = EXCLUDED.end_date,
			rent_paid_until = EXCLUDED.rent_paid_until,
			next_rent_due = EXCLUDED.next_rent_due,
			updated_at = EXCLUDED.updated_at
	`, r.table, leaseColumns)

	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.OrgID, l.PropertyID, l.UnitID, l.TenantID, l.MonthlyRent, l.Status,
		l.StartDate.UTC(), nullableTime(l.EndDate), nullableTime(l.RentPaidUntil),
		nullableTime(l.NextRentDue), l.CreatedAt.UTC(), l.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save lease: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLease(row rowScanner) (*domain.Lease, error) {
	var l domain.Lease
	var endDate, paidUntil, nextDue sql.NullTime
	err := row.Scan(
		&l.ID, &l.OrgID, &l.PropertyID, &l.UnitID, &l.TenantID, &l.MonthlyRent, &l.Status,
		&l.StartDate, &endDate, &paidUntil, &nextDue, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.StartDate = l.StartDate.UTC()
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	l.EndDate = timePtr(endDate)
	l.RentPaidUntil = timePtr(paidUntil)
	l.NextRentDue = timePtr(nextDue)
	return &l, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}
