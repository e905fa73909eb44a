package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice categories and lifecycle states.
const (
	InvoiceTypeRent  = "rent"
	InvoiceTypeWater = "water"
	InvoiceTypeOther = "other"

	InvoiceStatusOpen    = "open"
	InvoiceStatusPartial = "partial"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusVoid    = "void"
)

var (
	ErrInvalidInvoice = errors.New("billing: invalid invoice")
	ErrInvoiceClosed  = errors.New("billing: invoice is closed")
)

// Invoice is a charge raised against a tenant for a billing period.
type Invoice struct {
	ID          string
	OrgID       string
	PropertyID  string
	UnitID      string
	TenantID    string
	LeaseID     string
	Type        string
	Status      string
	Amount      decimal.Decimal
	AmountPaid  decimal.Decimal
	PeriodStart time.Time
	DueDate     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i *Invoice) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return ErrInvalidInvoice
	}
	if strings.TrimSpace(i.OrgID) == "" {
		return ErrInvalidInvoice
	}
	if strings.TrimSpace(i.TenantID) == "" {
		return ErrInvalidInvoice
	}
	switch i.Type {
	case InvoiceTypeRent, InvoiceTypeWater, InvoiceTypeOther:
	default:
		return ErrInvalidInvoice
	}
	switch i.Status {
	case InvoiceStatusOpen, InvoiceStatusPartial, InvoiceStatusPaid, InvoiceStatusVoid:
	default:
		return ErrInvalidInvoice
	}
	if i.Amount.IsNegative() || i.AmountPaid.IsNegative() {
		return ErrInvalidInvoice
	}
	return nil
}

// EffectivePaid caps recognized payment at the invoiced amount so
// overpayments never inflate revenue.
func (i *Invoice) EffectivePaid() decimal.Decimal {
	if i.AmountPaid.GreaterThan(i.Amount) {
		return i.Amount
	}
	return i.AmountPaid
}

// Apply records a verified payment against the invoice and moves the
// status to partial or paid. Void and paid invoices reject payments.
func (i *Invoice) Apply(amount decimal.Decimal) error {
	if i.Status == InvoiceStatusVoid || i.Status == InvoiceStatusPaid {
		return ErrInvoiceClosed
	}
	if amount.IsNegative() {
		return ErrInvalidInvoice
	}
	i.AmountPaid = i.AmountPaid.Add(amount)
	if i.AmountPaid.GreaterThanOrEqual(i.Amount) {
		i.Status = InvoiceStatusPaid
	} else if i.AmountPaid.IsPositive() {
		i.Status = InvoiceStatusPartial
	}
	return nil
}
