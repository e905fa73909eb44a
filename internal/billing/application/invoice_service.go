package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/billing/domain"
	"rentledger/internal/observability/metrics"
)

var (
	ErrNotFound = errors.New("billing: not found")
)

// EventPublisher publishes billing domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// InvoiceService provides invoice commands and queries.
type InvoiceService struct {
	invoices domain.InvoiceRepository
	events   EventPublisher
	logger   *log.Logger
	now      func() time.Time
}

func NewInvoiceService(invoices domain.InvoiceRepository, events EventPublisher, logger *log.Logger) (*InvoiceService, error) {
	if invoices == nil {
		return nil, errors.New("invoice service: nil repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &InvoiceService{
		invoices: invoices,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateInvoiceInput carries caller-supplied invoice fields.
type CreateInvoiceInput struct {
	PropertyID  string
	UnitID      string
	TenantID    string
	LeaseID     string
	Type        string
	Amount      decimal.Decimal
	PeriodStart time.Time
	DueDate     time.Time
}

func (s *InvoiceService) Create(ctx context.Context, orgID string, in CreateInvoiceInput) (*domain.Invoice, error) {
	result := metrics.ResultSuccess
	defer func() { metrics.IncInvoiceOp("create", result) }()

	now := s.now()
	period := in.PeriodStart
	if period.IsZero() {
		period = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	due := in.DueDate
	if due.IsZero() {
		due = period.AddDate(0, 0, 5)
	}
	inv := &domain.Invoice{
		ID:          newID("inv"),
		OrgID:       orgID,
		PropertyID:  in.PropertyID,
		UnitID:      in.UnitID,
		TenantID:    in.TenantID,
		LeaseID:     in.LeaseID,
		Type:        in.Type,
		Status:      domain.InvoiceStatusOpen,
		Amount:      in.Amount,
		AmountPaid:  decimal.Zero,
		PeriodStart: period.UTC(),
		DueDate:     due.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if inv.Type == "" {
		inv.Type = domain.InvoiceTypeRent
	}
	if err := s.invoices.Save(ctx, inv); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return inv, nil
}

func (s *InvoiceService) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	return inv, nil
}

func (s *InvoiceService) ListByTenant(ctx context.Context, tenantID string) ([]domain.Invoice, error) {
	return s.invoices.ListByTenant(ctx, tenantID)
}

// Void cancels an open or partially paid invoice.
func (s *InvoiceService) Void(ctx context.Context, id, reason string) (*domain.Invoice, error) {
	result := metrics.ResultSuccess
	defer func() { metrics.IncInvoiceOp("void", result) }()

	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if inv == nil {
		result = metrics.ResultError
		return nil, ErrNotFound
	}
	if inv.Status == domain.InvoiceStatusVoid {
		return inv, nil
	}
	if inv.Status == domain.InvoiceStatusPaid {
		result = metrics.ResultError
		return nil, domain.ErrInvoiceClosed
	}
	inv.Status = domain.InvoiceStatusVoid
	inv.UpdatedAt = s.now()
	if err := s.invoices.Save(ctx, inv); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	s.publish(ctx, InvoiceVoided{
		InvoiceID:  inv.ID,
		TenantID:   inv.TenantID,
		PropertyID: inv.PropertyID,
		Reason:     reason,
		OccurredAt: s.now(),
	})
	return inv, nil
}

func (s *InvoiceService) publish(ctx context.Context, event any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Printf("billing: publish event failed: %v", err)
	}
}

func newID(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return prefix + "-" + hex.EncodeToString([]byte(time.Now().UTC().Format("20060102150405")))
	}
	return prefix + "-" + hex.EncodeToString(buf)
}
