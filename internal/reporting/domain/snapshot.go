package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot rows are read-only inputs fetched immediately before a
// report is computed. The engine never mutates or persists them.

// InvoiceRow is the billing view of an invoice for reconciliation.
type InvoiceRow struct {
	ID          string
	LeaseID     string
	PropertyID  string
	Type        string
	Status      string
	Amount      decimal.Decimal
	PeriodStart *time.Time
	DueDate     *time.Time
}

// PaymentRow is a verified payment referencing an invoice.
type PaymentRow struct {
	ID        string
	InvoiceID string
	Amount    decimal.Decimal
	Status    string
	PaidAt    *time.Time
}

// UnitRow is a unit with its active-like lease folded in.
type UnitRow struct {
	ID            string
	PropertyID    string
	PropertyName  string
	UnitNumber    string
	PriceCategory string
	LeaseStatus   string
	LeaseRent     decimal.Decimal
}

// ExpenseRow is a property expense.
type ExpenseRow struct {
	ID         string
	PropertyID string
	Amount     decimal.Decimal
	IncurredAt *time.Time
	CreatedAt  *time.Time
}

// ArrearsRow is a row from the arrears view.
type ArrearsRow struct {
	LeaseID       string
	TenantID      string
	UnitID        string
	UnitNumber    string
	Amount        decimal.Decimal
	OpenInvoices  int
	OldestDueDate *time.Time
}

// PrepaymentRow is a row from the precomputed prepayments view.
type PrepaymentRow struct {
	LeaseID       string
	TenantID      string
	UnitID        string
	UnitNumber    string
	RentPaidUntil *time.Time
	NextRentDue   *time.Time
	PrepaidFlag   bool
}

// LeaseRow is an active lease with its payment pointers, the ground
// truth for prepayment recomputation.
type LeaseRow struct {
	ID            string
	TenantID      string
	UnitID        string
	UnitNumber    string
	RentPaidUntil *time.Time
	NextRentDue   *time.Time
}

// TenantProfile enriches arrears and prepayment rows with contact
// details.
type TenantProfile struct {
	TenantID string
	Name     string
	Phone    string
}

// Snapshot is the full immutable input set for one report request.
type Snapshot struct {
	Invoices    []InvoiceRow
	Payments    []PaymentRow
	Units       []UnitRow
	Expenses    []ExpenseRow
	Arrears     []ArrearsRow
	Prepayments []PrepaymentRow
	Leases      []LeaseRow
	Profiles    map[string]TenantProfile
}
