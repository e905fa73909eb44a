package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	billing "rentledger/internal/billing/domain"
)

// BuildInvoicePDF renders a minimal PDF for an invoice with its
// payment history.
func BuildInvoicePDF(inv *billing.Invoice, payments []billing.Payment, currency string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Invoice")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice: %s", inv.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Tenant: %s", inv.TenantID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Property: %s", inv.PropertyID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Type: %s", inv.Type))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s", inv.PeriodStart.Format("2006-01")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Due: %s", inv.DueDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", inv.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.Cell(0, 6, fmt.Sprintf("Amount (%s): %.2f", currency, inv.Amount.InexactFloat64()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Paid (%s): %.2f", currency, inv.EffectivePaid().InexactFloat64()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Balance (%s): %.2f", currency, inv.Amount.Sub(inv.EffectivePaid()).InexactFloat64()))
	pdf.Ln(8)

	// Payments table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Method", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Status", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, p := range payments {
		pdf.CellFormat(40, 6, p.PaidAt.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, p.Method, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, p.Status, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", p.Amount.InexactFloat64()), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
