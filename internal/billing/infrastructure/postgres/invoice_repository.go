package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rentledger/internal/billing/domain"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InvoiceRepository persists invoices in PostgreSQL.
type InvoiceRepository struct {
	db    DBTX
	table string
}

type InvoiceRepositoryOption func(*InvoiceRepository)

func WithInvoiceTable(name string) InvoiceRepositoryOption {
	return func(r *InvoiceRepository) {
		if name != "" {
			r.table = name
		}
	}
}

func NewInvoiceRepository(db DBTX, opts ...InvoiceRepositoryOption) *InvoiceRepository {
	r := &InvoiceRepository{db: db, table: "invoices"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const invoiceColumns = `id, org_id, property_id, unit_id, tenant_id, lease_id, invoice_type, status,
		amount, amount_paid, period_start, due_date, created_at, updated_at`

func (r *InvoiceRepository) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, invoiceColumns, r.table)

	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = $1 ORDER BY period_start DESC`, invoiceColumns, r.table)
	return r.list(ctx, query, tenantID)
}

func (r *InvoiceRepository) ListByProperty(ctx context.Context, propertyID, month string) ([]domain.Invoice, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE property_id = $1 AND to_char(period_start, 'YYYYMM') = $2
		ORDER BY created_at
	`, invoiceColumns, r.table)
	return r.list(ctx, query, propertyID, month)
}

func (r *InvoiceRepository) list(ctx context.Context, query string, args ...any) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *InvoiceRepository) Save(ctx context.Context, i *domain.Invoice) error {
	if err := i.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			amount = EXCLUDED.amount,
			amount_paid = EXCLUDED.amount_paid,
			due_date = EXCLUDED.due_date,
			updated_at = EXCLUDED.updated_at
	`, r.table, invoiceColumns)

	_, err := r.db.ExecContext(ctx, query,
		i.ID, i.OrgID, i.PropertyID, i.UnitID, i.TenantID, i.LeaseID, i.Type, i.Status,
		i.Amount, i.AmountPaid, i.PeriodStart.UTC(), i.DueDate.UTC(), i.CreatedAt.UTC(), i.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save invoice: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var i domain.Invoice
	err := row.Scan(
		&i.ID, &i.OrgID, &i.PropertyID, &i.UnitID, &i.TenantID, &i.LeaseID, &i.Type, &i.Status,
		&i.Amount, &i.AmountPaid, &i.PeriodStart, &i.DueDate, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	i.PeriodStart = i.PeriodStart.UTC()
	i.DueDate = i.DueDate.UTC()
	i.CreatedAt = i.CreatedAt.UTC()
	i.UpdatedAt = i.UpdatedAt.UTC()
	return &i, nil
}
