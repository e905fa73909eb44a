package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rentledger/internal/portfolio/domain"
)

// PropertyRepository persists properties in PostgreSQL.
type PropertyRepository struct {
	db    DBTX
	table string
}

type PropertyRepositoryOption func(*PropertyRepository)

func WithPropertyTable(name string) PropertyRepositoryOption {
	return func(r *PropertyRepository) {
		if name != "" {
			r.table = name
		}
	}
}

func NewPropertyRepository(db DBTX, opts ...PropertyRepositoryOption) *PropertyRepository {
	r := &PropertyRepository{db: db, table: "properties"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *PropertyRepository) Get(ctx context.Context, id string) (*domain.Property, error) {
	query := fmt.Sprintf(`
		SELECT id, org_id, name, address, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.table)

	var p domain.Property
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.OrgID, &p.Name, &p.Address, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (r *PropertyRepository) ListByOrg(ctx context.Context, orgID string) ([]domain.Property, error) {
	query := fmt.Sprintf(`
		SELECT id, org_id, name, address, created_at, updated_at
		FROM %s
		WHERE org_id = $1
		ORDER BY name
	`, r.table)

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var out []domain.Property
	for rows.Next() {
		var p domain.Property
		if err := rows.Scan(&p.ID, &p.OrgID, &p.Name, &p.Address, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		p.UpdatedAt = p.UpdatedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PropertyRepository) Save(ctx context.Context, p *domain.Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, org_id, name, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			updated_at = EXCLUDED.updated_at
	`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.OrgID, p.Name, p.Address, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save property: %w", err)
	}
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return nil
}
