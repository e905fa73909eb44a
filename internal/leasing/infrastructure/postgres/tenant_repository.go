package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rentledger/internal/leasing/domain"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TenantRepository persists tenants in PostgreSQL.
type TenantRepository struct {
	db    DBTX
	table string
}

type TenantRepositoryOption func(*TenantRepository)

func WithTenantTable(name string) TenantRepositoryOption {
	return func(r *TenantRepository) {
		if name != "" {
			r.table = name
		}
	}
}

func NewTenantRepository(db DBTX, opts ...TenantRepositoryOption) *TenantRepository {
	r := &TenantRepository{db: db, table: "tenants"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TenantRepository) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	query := fmt.Sprintf(`
		SELECT id, org_id, full_name, phone, email, status, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.table)

	var t domain.Tenant
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.OrgID, &t.FullName, &t.Phone, &t.Email, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func (r *TenantRepository) ListByOrg(ctx context.Context, orgID string) ([]domain.Tenant, error) {
	query := fmt.Sprintf(`
		SELECT id, org_id, full_name, phone, email, status, created_at, updated_at
		FROM %s
		WHERE org_id = $1
		ORDER BY full_name
	`, r.table)

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.OrgID, &t.FullName, &t.Phone, &t.Email, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		t.UpdatedAt = t.UpdatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TenantRepository) Save(ctx context.Context, t *domain.Tenant) error {
	if err := t.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, org_id, full_name, phone, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.OrgID, t.FullName, t.Phone, t.Email, t.Status, t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save tenant: %w", err)
	}
	return nil
}
