package application

import "time"

// PaymentVerified is emitted when a pending payment passes manual
// verification and has been applied to its invoice.
type PaymentVerified struct {
	PaymentID  string    `json:"payment_id"`
	InvoiceID  string    `json:"invoice_id"`
	TenantID   string    `json:"tenant_id"`
	PropertyID string    `json:"property_id"`
	Amount     float64   `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// InvoiceVoided is emitted when an admin voids an open invoice.
type InvoiceVoided struct {
	InvoiceID  string    `json:"invoice_id"`
	TenantID   string    `json:"tenant_id"`
	PropertyID string    `json:"property_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WaterRunCompleted is emitted after a water billing run.
type WaterRunCompleted struct {
	Month          string    `json:"month"`
	InvoicesRaised int       `json:"invoices_raised"`
	UnitsSkipped   int       `json:"units_skipped"`
	OccurredAt     time.Time `json:"occurred_at"`
}
