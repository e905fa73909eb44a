package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rentledger/internal/maintenance/domain"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RequestRepository persists maintenance requests in PostgreSQL.
type RequestRepository struct {
	db    DBTX
	table string
}

type RequestRepositoryOption func(*RequestRepository)

func WithRequestTable(name string) RequestRepositoryOption {
	return func(r *RequestRepository) {
		if name != "" {
			r.table = name
		}
	}
}

func NewRequestRepository(db DBTX, opts ...RequestRepositoryOption) *RequestRepository {
	r := &RequestRepository{db: db, table: "maintenance_requests"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const requestColumns = `id, org_id, property_id, unit_id, tenant_id, title, description,
		priority, status, resolved_at, created_at, updated_at`

func (r *RequestRepository) Get(ctx context.Context, id string) (*domain.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, requestColumns, r.table)

	req, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

func (r *RequestRepository) ListByProperty(ctx context.Context, propertyID string) ([]domain.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE property_id = $1 ORDER BY created_at DESC`, requestColumns, r.table)
	return r.list(ctx, query, propertyID)
}

func (r *RequestRepository) ListOpenByOrg(ctx context.Context, orgID string) ([]domain.Request, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE org_id = $1 AND status IN ('open', 'in_progress')
		ORDER BY created_at DESC
	`, requestColumns, r.table)
	return r.list(ctx, query, orgID)
}

func (r *RequestRepository) list(ctx context.Context, query string, arg any) ([]domain.Request, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (r *RequestRepository) Save(ctx context.Context, req *domain.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			priority = EXCLUDED.priority,
			status = EXCLUDED.status,
			resolved_at = EXCLUDED.resolved_at,
			updated_at = EXCLUDED.updated_at
	`, r.table, requestColumns)

	var resolvedAt any
	if req.ResolvedAt != nil {
		resolvedAt = req.ResolvedAt.UTC()
	}
	_, err := r.db.ExecContext(ctx, query,
		req.ID, req.OrgID, req.PropertyID, req.UnitID, req.TenantID, req.Title, req.Description,
		req.Priority, req.Status, resolvedAt, req.CreatedAt.UTC(), req.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save request: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.Request, error) {
	var req domain.Request
	var resolvedAt sql.NullTime
	err := row.Scan(
		&req.ID, &req.OrgID, &req.PropertyID, &req.UnitID, &req.TenantID, &req.Title, &req.Description,
		&req.Priority, &req.Status, &resolvedAt, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()
	if resolvedAt.Valid {
		utc := resolvedAt.Time.UTC()
		req.ResolvedAt = &utc
	}
	return &req, nil
}
