package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rentledger/internal/billing/domain"
)

// ExpenseRepository persists property expenses in PostgreSQL.
type ExpenseRepository struct {
	db    DBTX
	table string
}

type ExpenseRepositoryOption func(*ExpenseRepository)

func WithExpenseTable(name string) ExpenseRepositoryOption {
	return func(r *ExpenseRepository) {
		if name != "" {
			r.table = name
		}
	}
}

func NewExpenseRepository(db DBTX, opts ...ExpenseRepositoryOption) *ExpenseRepository {
	r := &ExpenseRepository{db: db, table: "expenses"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ExpenseRepository) ListByOrg(ctx context.Context, orgID string) ([]domain.Expense, error) {
	query := fmt.Sprintf(`
		SELECT id, org_id, property_id, category, note, amount, incurred_at, created_at
		FROM %s
		WHERE org_id = $1
		ORDER BY COALESCE(incurred_at, created_at) DESC
	`, r.table)

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []domain.Expense
	for rows.Next() {
		var e domain.Expense
		var propertyID sql.NullString
		var incurredAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.OrgID, &propertyID, &e.Category, &e.Note, &e.Amount, &incurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.PropertyID = propertyID.String
		if incurredAt.Valid {
			t := incurredAt.Time.UTC()
			e.IncurredAt = &t
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ExpenseRepository) Save(ctx context.Context, e *domain.Expense) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, org_id, property_id, category, note, amount, incurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			property_id = EXCLUDED.property_id,
			category = EXCLUDED.category,
			note = EXCLUDED.note,
			amount = EXCLUDED.amount,
			incurred_at = EXCLUDED.incurred_at
	`, r.table)

	var propertyID any
	if e.PropertyID != "" {
		propertyID = e.PropertyID
	}
	var incurredAt any
	if e.IncurredAt != nil {
		incurredAt = e.IncurredAt.UTC()
	}
	_, err := r.db.ExecContext(ctx, query, e.ID, e.OrgID, propertyID, e.Category, e.Note, e.Amount, incurredAt, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save expense: %w", err)
	}
	return nil
}
