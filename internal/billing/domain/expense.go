package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidExpense = errors.New("billing: invalid expense")

// Expense is a property running cost. IncurredAt may be absent for
// imported rows; reporting falls back to CreatedAt.
type Expense struct {
	ID         string
	OrgID      string
	PropertyID string
	Category   string
	Note       string
	Amount     decimal.Decimal
	IncurredAt *time.Time
	CreatedAt  time.Time
}

func (e *Expense) Validate() error {
	if e.ID == "" || e.OrgID == "" {
		return ErrInvalidExpense
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidExpense
	}
	if e.Category == "" {
		return ErrInvalidExpense
	}
	return nil
}
