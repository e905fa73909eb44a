package domain

import "context"

// InvoiceRepository is the persistence port for invoices.
type InvoiceRepository interface {
	Get(ctx context.Context, id string) (*Invoice, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Invoice, error)
	ListByProperty(ctx context.Context, propertyID, month string) ([]Invoice, error)
	Save(ctx context.Context, i *Invoice) error
}

// PaymentRepository is the persistence port for payments.
type PaymentRepository interface {
	Get(ctx context.Context, id string) (*Payment, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]Payment, error)
	ListPending(ctx context.Context, orgID string) ([]Payment, error)
	Save(ctx context.Context, p *Payment) error
}

// ExpenseRepository is the persistence port for property expenses.
type ExpenseRepository interface {
	ListByOrg(ctx context.Context, orgID string) ([]Expense, error)
	Save(ctx context.Context, e *Expense) error
}

// MeterRepository is the persistence port for water meter readings.
type MeterRepository interface {
	Latest(ctx context.Context, unitID, beforeMonth string) (*MeterReading, error)
	ListByMonth(ctx context.Context, orgID, month string) ([]MeterReading, error)
	Save(ctx context.Context, m *MeterReading) error
}
