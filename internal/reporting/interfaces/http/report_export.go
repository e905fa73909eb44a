package http

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	reporting "rentledger/internal/reporting/domain"
)

// BuildMonthlyReportPDF renders the dashboard overview as a monthly
// financial report.
func BuildMonthlyReportPDF(overview reporting.Overview, currency string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Monthly Financial Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Properties: %d", overview.Summary.TotalProperties))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Active tenants: %d", overview.Summary.TotalTenants))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Revenue this month (%s): %.2f", currency, overview.Summary.MonthlyRevenue))
	pdf.Ln(5)
	if overview.Summary.RevenueDelta != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Change vs previous month: %.1f%%", *overview.Summary.RevenueDelta))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Open maintenance requests: %d", overview.Summary.PendingRequests))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Month", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Revenue", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Expenses", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	expensesByKey := make(map[string]float64, len(overview.Expenses.Monthly))
	for _, point := range overview.Expenses.Monthly {
		expensesByKey[point.Key] = point.Expenses
	}
	for _, point := range overview.Revenue.Series {
		pdf.CellFormat(50, 6, point.Label, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, fmt.Sprintf("%.2f", point.Revenue), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, fmt.Sprintf("%.2f", expensesByKey[point.Key]), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Property", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Collected", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Potential", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, prop := range overview.PropertyRevenue {
		pdf.CellFormat(60, 6, prop.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", prop.Revenue), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", prop.Potential), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildMonthlyReportXLSX renders the overview as a workbook with
// summary, revenue and arrears sheets.
func BuildMonthlyReportXLSX(overview reporting.Overview, currency string) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	revenueSheet := "revenue"
	arrearsSheet := "arrears"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(revenueSheet)
	f.NewSheet(arrearsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Monthly Financial Report")
	_ = f.SetCellValue(summarySheet, "A3", "Properties")
	_ = f.SetCellValue(summarySheet, "B3", overview.Summary.TotalProperties)
	_ = f.SetCellValue(summarySheet, "A4", "Active tenants")
	_ = f.SetCellValue(summarySheet, "B4", overview.Summary.TotalTenants)
	_ = f.SetCellValue(summarySheet, "A5", "Monthly revenue")
	_ = f.SetCellValue(summarySheet, "B5", overview.Summary.MonthlyRevenue)
	_ = f.SetCellValue(summarySheet, "A6", "Currency")
	_ = f.SetCellValue(summarySheet, "B6", currency)
	if overview.Summary.RevenueDelta != nil {
		_ = f.SetCellValue(summarySheet, "A7", "Revenue delta %")
		_ = f.SetCellValue(summarySheet, "B7", *overview.Summary.RevenueDelta)
	}
	_ = f.SetCellValue(summarySheet, "A8", "Open maintenance requests")
	_ = f.SetCellValue(summarySheet, "B8", overview.Summary.PendingRequests)
	_ = f.SetCellValue(summarySheet, "A9", "Paid invoices")
	_ = f.SetCellValue(summarySheet, "B9", overview.Summary.PaidInvoices)

	_ = f.SetCellValue(revenueSheet, "A1", "Month")
	_ = f.SetCellValue(revenueSheet, "B1", "Revenue")
	_ = f.SetCellValue(revenueSheet, "C1", "Expenses")
	expensesByKey := make(map[string]float64, len(overview.Expenses.Monthly))
	for _, point := range overview.Expenses.Monthly {
		expensesByKey[point.Key] = point.Expenses
	}
	for i, point := range overview.Revenue.Series {
		row := i + 2
		_ = f.SetCellValue(revenueSheet, fmt.Sprintf("A%d", row), point.Label)
		_ = f.SetCellValue(revenueSheet, fmt.Sprintf("B%d", row), point.Revenue)
		_ = f.SetCellValue(revenueSheet, fmt.Sprintf("C%d", row), expensesByKey[point.Key])
	}

	_ = f.SetCellValue(arrearsSheet, "A1", "Tenant")
	_ = f.SetCellValue(arrearsSheet, "B1", "Unit")
	_ = f.SetCellValue(arrearsSheet, "C1", "Amount")
	_ = f.SetCellValue(arrearsSheet, "D1", "Open invoices")
	_ = f.SetCellValue(arrearsSheet, "E1", "Oldest due date")
	for i, entry := range overview.Arrears {
		row := i + 2
		_ = f.SetCellValue(arrearsSheet, fmt.Sprintf("A%d", row), entry.TenantName)
		_ = f.SetCellValue(arrearsSheet, fmt.Sprintf("B%d", row), entry.UnitNumber)
		_ = f.SetCellValue(arrearsSheet, fmt.Sprintf("C%d", row), entry.ArrearsAmount)
		_ = f.SetCellValue(arrearsSheet, fmt.Sprintf("D%d", row), entry.OpenInvoices)
		_ = f.SetCellValue(arrearsSheet, fmt.Sprintf("E%d", row), entry.OldestDueDate)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
