package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rentledger/internal/billing/domain"
)

// PaymentRepository persists payments in PostgreSQL.
type PaymentRepository struct {
	db    DBTX
	table string
}

type PaymentRepositoryOption func(*PaymentRepository)

func WithPaymentTable(name string) PaymentRepositoryOption {
	return func(r *PaymentRepository) {
		if name != "" {
			r.table = name
		}
	}
}

func NewPaymentRepository(db DBTX, opts ...PaymentRepositoryOption) *PaymentRepository {
	r := &PaymentRepository{db: db, table: "payments"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const paymentColumns = `id, org_id, invoice_id, tenant_id, amount, method, reference, status,
		paid_at, verified_at, verified_by, created_at, updated_at`

func (r *PaymentRepository) Get(ctx context.Context, id string) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, paymentColumns, r.table)

	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE invoice_id = $1 ORDER BY paid_at`, paymentColumns, r.table)
	return r.list(ctx, query, invoiceID)
}

func (r *PaymentRepository) ListPending(ctx context.Context, orgID string) ([]domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE org_id = $1 AND status = 'pending' ORDER BY paid_at`, paymentColumns, r.table)
	return r.list(ctx, query, orgID)
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PaymentRepository) Save(ctx context.Context, p *domain.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			verified_at = EXCLUDED.verified_at,
			verified_by = EXCLUDED.verified_by,
			updated_at = EXCLUDED.updated_at
	`, r.table, paymentColumns)

	var verifiedAt any
	if p.VerifiedAt != nil {
		verifiedAt = p.VerifiedAt.UTC()
	}
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.OrgID, p.InvoiceID, p.TenantID, p.Amount, p.Method, p.Reference, p.Status,
		p.PaidAt.UTC(), verifiedAt, p.VerifiedBy, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save payment: %w", err)
	}
	return nil
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	var verifiedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.OrgID, &p.InvoiceID, &p.TenantID, &p.Amount, &p.Method, &p.Reference, &p.Status,
		&p.PaidAt, &verifiedAt, &p.VerifiedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.PaidAt = p.PaidAt.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if verifiedAt.Valid {
		utc := verifiedAt.Time.UTC()
		p.VerifiedAt = &utc
	}
	return &p, nil
}
