package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func TestMatchPaymentsCapsAtInvoiceAmount(t *testing.T) {
	invoices := []InvoiceRow{{ID: "inv-1", Amount: dec(1000)}}
	payments := []PaymentRow{
		{ID: "pay-1", InvoiceID: "inv-1", Amount: dec(600)},
		{ID: "pay-2", InvoiceID: "inv-1", Amount: dec(600)},
	}

	effective := MatchPayments(invoices, payments)

	if got := effective["inv-1"]; !got.Equal(dec(1000)) {
		t.Fatalf("effective paid = %s, want 1000", got)
	}
}

func TestMatchPaymentsZeroAmountInvoiceKeepsRawSum(t *testing.T) {
	invoices := []InvoiceRow{{ID: "inv-1", Amount: decimal.Zero}}
	payments := []PaymentRow{
		{ID: "pay-1", InvoiceID: "inv-1", Amount: dec(300)},
		{ID: "pay-2", InvoiceID: "inv-1", Amount: dec(200)},
	}

	effective := MatchPayments(invoices, payments)

	if got := effective["inv-1"]; !got.Equal(dec(500)) {
		t.Fatalf("effective paid = %s, want raw sum 500", got)
	}
}

func TestMatchPaymentsIgnoresUnreferencedPayments(t *testing.T) {
	invoices := []InvoiceRow{{ID: "inv-1", Amount: dec(1000)}}
	payments := []PaymentRow{
		{ID: "pay-1", InvoiceID: "", Amount: dec(400)},
		{ID: "pay-2", InvoiceID: "inv-other", Amount: dec(400)},
	}

	effective := MatchPayments(invoices, payments)

	if _, ok := effective["inv-1"]; ok {
		t.Fatal("invoice without matched payments should be absent")
	}
}
