package domain

import "github.com/shopspring/decimal"

// MatchPayments sums verified payments per invoice and caps each total
// at the invoice's face amount. Zero-amount invoices keep the raw sum
// so legacy rows without a billed amount still report what was
// collected.
func MatchPayments(invoices []InvoiceRow, payments []PaymentRow) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal, len(invoices))
	for _, p := range payments {
		if p.InvoiceID == "" {
			continue
		}
		sums[p.InvoiceID] = sums[p.InvoiceID].Add(p.Amount)
	}

	effective := make(map[string]decimal.Decimal, len(invoices))
	for _, inv := range invoices {
		sum, ok := sums[inv.ID]
		if !ok || !sum.IsPositive() {
			continue
		}
		if inv.Amount.IsPositive() && sum.GreaterThan(inv.Amount) {
			sum = inv.Amount
		}
		effective[inv.ID] = sum
	}
	return effective
}
