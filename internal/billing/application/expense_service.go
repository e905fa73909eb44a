package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/billing/domain"
)

// ExpenseService records and lists property running costs.
type ExpenseService struct {
	expenses domain.ExpenseRepository
	logger   *log.Logger
	now      func() time.Time
}

func NewExpenseService(expenses domain.ExpenseRepository, logger *log.Logger) (*ExpenseService, error) {
	if expenses == nil {
		return nil, errors.New("expense service: nil repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ExpenseService{
		expenses: expenses,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// RecordExpenseInput carries caller-supplied expense fields.
type RecordExpenseInput struct {
	PropertyID string
	Category   string
	Note       string
	Amount     decimal.Decimal
	IncurredAt *time.Time
}

func (s *ExpenseService) Record(ctx context.Context, orgID string, in RecordExpenseInput) (*domain.Expense, error) {
	e := &domain.Expense{
		ID:         newID("exp"),
		OrgID:      orgID,
		PropertyID: in.PropertyID,
		Category:   in.Category,
		Note:       in.Note,
		Amount:     in.Amount,
		IncurredAt: in.IncurredAt,
		CreatedAt:  s.now(),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.expenses.Save(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *ExpenseService) List(ctx context.Context, orgID string) ([]domain.Expense, error) {
	return s.expenses.ListByOrg(ctx, orgID)
}
