package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Payment lifecycle states. Only verified payments count toward
// revenue and arrears reduction.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusVerified = "verified"
	PaymentStatusRejected = "rejected"
)

var (
	ErrInvalidPayment  = errors.New("billing: invalid payment")
	ErrPaymentFinal    = errors.New("billing: payment already finalized")
	ErrPaymentNegative = errors.New("billing: payment amount must be positive")
)

// Payment is money received from a tenant, pending manual verification
// against the bank or mobile money statement.
type Payment struct {
	ID         string
	OrgID      string
	InvoiceID  string
	TenantID   string
	Amount     decimal.Decimal
	Method     string
	Reference  string
	Status     string
	PaidAt     time.Time
	VerifiedAt *time.Time
	VerifiedBy string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p *Payment) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidPayment
	}
	if strings.TrimSpace(p.OrgID) == "" {
		return ErrInvalidPayment
	}
	if strings.TrimSpace(p.TenantID) == "" {
		return ErrInvalidPayment
	}
	if !p.Amount.IsPositive() {
		return ErrPaymentNegative
	}
	switch p.Status {
	case PaymentStatusPending, PaymentStatusVerified, PaymentStatusRejected:
	default:
		return ErrInvalidPayment
	}
	return nil
}

// Verify transitions a pending payment to verified.
func (p *Payment) Verify(by string, at time.Time) error {
	if p.Status != PaymentStatusPending {
		return ErrPaymentFinal
	}
	p.Status = PaymentStatusVerified
	p.VerifiedBy = by
	at = at.UTC()
	p.VerifiedAt = &at
	return nil
}

// Reject transitions a pending payment to rejected.
func (p *Payment) Reject(by string, at time.Time) error {
	if p.Status != PaymentStatusPending {
		return ErrPaymentFinal
	}
	p.Status = PaymentStatusRejected
	p.VerifiedBy = by
	at = at.UTC()
	p.VerifiedAt = &at
	return nil
}
