package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/billing/domain"
	leasing "rentledger/internal/leasing/domain"
	"rentledger/internal/observability/metrics"
)

// PaymentService records tenant payments and verifies them against
// invoices. Verification is the only path that moves money into
// revenue.
type PaymentService struct {
	payments domain.PaymentRepository
	invoices domain.InvoiceRepository
	leases   leasing.LeaseRepository
	events   EventPublisher
	logger   *log.Logger
	now      func() time.Time
}

func NewPaymentService(
	payments domain.PaymentRepository,
	invoices domain.InvoiceRepository,
	leases leasing.LeaseRepository,
	events EventPublisher,
	logger *log.Logger,
) (*PaymentService, error) {
	if payments == nil || invoices == nil {
		return nil, errors.New("payment service: nil repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &PaymentService{
		payments: payments,
		invoices: invoices,
		leases:   leases,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// RecordPaymentInput carries caller-supplied payment fields.
type RecordPaymentInput struct {
	InvoiceID string
	TenantID  string
	Amount    decimal.Decimal
	Method    string
	Reference string
	PaidAt    time.Time
}

// Record registers a payment as pending verification.
func (s *PaymentService) Record(ctx context.Context, orgID string, in RecordPaymentInput) (*domain.Payment, error) {
	now := s.now()
	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	p := &domain.Payment{
		ID:        newID("pay"),
		OrgID:     orgID,
		InvoiceID: in.InvoiceID,
		TenantID:  in.TenantID,
		Amount:    in.Amount,
		Method:    in.Method,
		Reference: in.Reference,
		Status:    domain.PaymentStatusPending,
		PaidAt:    paidAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.payments.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PaymentService) ListPending(ctx context.Context, orgID string) ([]domain.Payment, error) {
	return s.payments.ListPending(ctx, orgID)
}

func (s *PaymentService) ListByInvoice(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	return s.payments.ListByInvoice(ctx, invoiceID)
}

// Verify marks a pending payment verified, applies it to its invoice
// and advances the lease rent-paid-until marker for rent invoices.
func (s *PaymentService) Verify(ctx context.Context, paymentID, verifiedBy string) (*domain.Payment, error) {
	result := metrics.ResultSuccess
	defer func() { metrics.IncPaymentVerify(result) }()

	p, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if p == nil {
		result = metrics.ResultError
		return nil, ErrNotFound
	}
	now := s.now()
	if err := p.Verify(verifiedBy, now); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	p.UpdatedAt = now
	if err := s.payments.Save(ctx, p); err != nil {
		result = metrics.ResultError
		return nil, err
	}

	propertyID := ""
	if p.InvoiceID != "" {
		inv, err := s.invoices.Get(ctx, p.InvoiceID)
		if err != nil {
			result = metrics.ResultError
			return nil, err
		}
		if inv != nil {
			propertyID = inv.PropertyID
			if err := inv.Apply(p.Amount); err == nil {
				inv.UpdatedAt = now
				if err := s.invoices.Save(ctx, inv); err != nil {
					result = metrics.ResultError
					return nil, err
				}
				if inv.Type == domain.InvoiceTypeRent && inv.Status == domain.InvoiceStatusPaid {
					s.advanceLease(ctx, inv)
				}
			} else {
				s.logger.Printf("billing: payment %s not applied to invoice %s: %v", p.ID, inv.ID, err)
			}
		}
	}

	s.publish(ctx, PaymentVerified{
		PaymentID:  p.ID,
		InvoiceID:  p.InvoiceID,
		TenantID:   p.TenantID,
		PropertyID: propertyID,
		Amount:     p.Amount.InexactFloat64(),
		OccurredAt: now,
	})
	return p, nil
}

// Reject marks a pending payment rejected.
func (s *PaymentService) Reject(ctx context.Context, paymentID, rejectedBy string) (*domain.Payment, error) {
	p, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	now := s.now()
	if err := p.Reject(rejectedBy, now); err != nil {
		return nil, err
	}
	p.UpdatedAt = now
	if err := s.payments.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// advanceLease pushes rent_paid_until forward by the number of whole
// months the paid total covers, counted from the invoice period.
func (s *PaymentService) advanceLease(ctx context.Context, inv *domain.Invoice) {
	if s.leases == nil || inv.LeaseID == "" {
		return
	}
	lease, err := s.leases.Get(ctx, inv.LeaseID)
	if err != nil || lease == nil {
		if err != nil {
			s.logger.Printf("billing: lease %s lookup failed: %v", inv.LeaseID, err)
		}
		return
	}
	months := 1
	if lease.MonthlyRent.IsPositive() {
		covered := inv.AmountPaid.Div(lease.MonthlyRent).IntPart()
		if covered > 1 {
			months = int(covered)
		}
	}
	paidUntil := inv.PeriodStart.AddDate(0, months, 0)
	if lease.RentPaidUntil == nil || paidUntil.After(*lease.RentPaidUntil) {
		lease.RentPaidUntil = &paidUntil
		lease.NextRentDue = &paidUntil
		lease.UpdatedAt = s.now()
		if err := s.leases.Save(ctx, lease); err != nil {
			s.logger.Printf("billing: lease %s advance failed: %v", lease.ID, err)
		}
	}
}

func (s *PaymentService) publish(ctx context.Context, event any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Printf("billing: publish event failed: %v", err)
	}
}
