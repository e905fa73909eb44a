package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rentledger/internal/billing/domain"
)

// MeterRepository persists water meter readings in PostgreSQL.
type MeterRepository struct {
	db    DBTX
	table string
}

type MeterRepositoryOption func(*MeterRepository)

func WithMeterTable(name string) MeterRepositoryOption {
	return func(r *MeterRepository) {
		if name != "" {
			r.table = name
		}
	}
}

func NewMeterRepository(db DBTX, opts ...MeterRepositoryOption) *MeterRepository {
	r := &MeterRepository{db: db, table: "meter_readings"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Latest returns the most recent reading for a unit strictly before
// the given month key (YYYYMM).
func (r *MeterRepository) Latest(ctx context.Context, unitID, beforeMonth string) (*domain.MeterReading, error) {
	query := fmt.Sprintf(`
		SELECT id, org_id, property_id, unit_id, month, reading, read_at, created_at
		FROM %s
		WHERE unit_id = $1 AND month < $2
		ORDER BY month DESC
		LIMIT 1
	`, r.table)

	var m domain.MeterReading
	err := r.db.QueryRowContext(ctx, query, unitID, beforeMonth).Scan(
		&m.ID, &m.OrgID, &m.PropertyID, &m.UnitID, &m.Month, &m.Reading, &m.ReadAt, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest reading: %w", err)
	}
	m.ReadAt = m.ReadAt.UTC()
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

func (r *MeterRepository) ListByMonth(ctx context.Context, orgID, month string) ([]domain.MeterReading, error) {
	query := fmt.Sprintf(`
		SELECT id, org_id, property_id, unit_id, month, reading, read_at, created_at
		FROM %s
		WHERE org_id = $1 AND month = $2
		ORDER BY unit_id
	`, r.table)

	rows, err := r.db.QueryContext(ctx, query, orgID, month)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var out []domain.MeterReading
	for rows.Next() {
		var m domain.MeterReading
		if err := rows.Scan(&m.ID, &m.OrgID, &m.PropertyID, &m.UnitID, &m.Month, &m.Reading, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		m.ReadAt = m.ReadAt.UTC()
		m.CreatedAt = m.CreatedAt.UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MeterRepository) Save(ctx context.Context, m *domain.MeterReading) error {
	if err := m.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, org_id, property_id, unit_id, month, reading, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (unit_id, month) DO UPDATE SET
			reading = EXCLUDED.reading,
			read_at = EXCLUDED.read_at
	`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.OrgID, m.PropertyID, m.UnitID, m.Month, m.Reading, m.ReadAt.UTC(), m.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save reading: %w", err)
	}
	return nil
}
