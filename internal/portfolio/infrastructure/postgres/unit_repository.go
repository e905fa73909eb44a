package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rentledger/internal/portfolio/domain"
)

// UnitRepository persists units in PostgreSQL.
type UnitRepository struct {
	db    DBTX
	table string
}

type UnitRepositoryOption func(*UnitRepository)

func WithUnitTable(name string) UnitRepositoryOption {
	return func(r *UnitRepository) {
		if name != "" {
			r.table = name
		}
	}
}

func NewUnitRepository(db DBTX, opts ...UnitRepositoryOption) *UnitRepository {
	r := &UnitRepository{db: db, table: "units"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *UnitRepository) Get(ctx context.Context, id string) (*domain.Unit, error) {
	query := fmt.Sprintf(`
		SELECT id, property_id, unit_number, monthly_rent, price_category, status, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.table)

	var u domain.Unit
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.PropertyID, &u.UnitNumber, &u.MonthlyRent, &u.PriceCategory,
		&u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get unit: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func (r *UnitRepository) ListByProperty(ctx context.Context, propertyID string) ([]domain.Unit, error) {
	query := fmt.Sprintf(`
		SELECT id, property_id, unit_number, monthly_rent, price_category, status, created_at, updated_at
		FROM %s
		WHERE property_id = $1
		ORDER BY unit_number
	`, r.table)

	rows, err := r.db.QueryContext(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var out []domain.Unit
	for rows.Next() {
		var u domain.Unit
		if err := rows.Scan(
			&u.ID, &u.PropertyID, &u.UnitNumber, &u.MonthlyRent, &u.PriceCategory,
			&u.Status, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.CreatedAt = u.CreatedAt.UTC()
		u.UpdatedAt = u.UpdatedAt.UTC()
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UnitRepository) Save(ctx context.Context, u *domain.Unit) error {
	if err := u.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, property_id, unit_number, monthly_rent, price_category, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			unit_number = EXCLUDED.unit_number,
			monthly_rent = EXCLUDED.monthly_rent,
			price_category = EXCLUDED.price_category,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.PropertyID, u.UnitNumber, u.MonthlyRent, u.PriceCategory,
		u.Status, u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save unit: %w", err)
	}
	return nil
}

// SetStatus updates the occupancy state of a unit.
func (r *UnitRepository) SetStatus(ctx context.Context, id, status string) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $2, updated_at = now() WHERE id = $1`, r.table)
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("set unit status: %w", err)
	}
	return nil
}
