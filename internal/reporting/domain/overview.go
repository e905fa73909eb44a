package domain

// Overview is the dashboard aggregate. Field names follow the JSON
// contract consumed by the UI.
type Overview struct {
	Summary         Summary             `json:"summary"`
	Revenue         RevenueSection      `json:"revenue"`
	PropertyRevenue []PropertySection   `json:"propertyRevenue"`
	Expenses        ExpensesSection     `json:"expenses"`
	Payments        PaymentsSection     `json:"payments"`
	Occupancy       []OccupancySection  `json:"occupancy"`
	Arrears         []ArrearsSection    `json:"arrears"`
	Prepayments     []PrepaymentSection `json:"prepayments"`
	Error           string              `json:"error,omitempty"`
}

type Summary struct {
	TotalProperties int      `json:"totalProperties"`
	TotalTenants    int      `json:"totalTenants"`
	MonthlyRevenue  float64  `json:"monthlyRevenue"`
	RevenueDelta    *float64 `json:"revenueDelta"`
	PendingRequests int      `json:"pendingRequests"`
	PaidInvoices    int      `json:"paidInvoices"`
	PendingPayments int      `json:"pendingPayments"`
}

type RevenueSection struct {
	Series              []SeriesPoint `json:"series"`
	CurrentMonthRevenue float64       `json:"currentMonthRevenue"`
	PrevMonthRevenue    float64       `json:"prevMonthRevenue"`
}

type SeriesPoint struct {
	Label   string  `json:"label"`
	Key     string  `json:"key"`
	Revenue float64 `json:"revenue"`
}

type PropertySection struct {
	Name      string  `json:"name"`
	Revenue   float64 `json:"revenue"`
	Potential float64 `json:"potential"`
	Percent   float64 `json:"percent"`
}

type ExpensesSection struct {
	Monthly []ExpensePointJSON `json:"monthly"`
}

type ExpensePointJSON struct {
	Label    string  `json:"label"`
	Key      string  `json:"key"`
	Expenses float64 `json:"expenses"`
}

type PaymentsSection struct {
	Paid    int `json:"paid"`
	Pending int `json:"pending"`
	Failed  int `json:"failed"`
}

type OccupancySection struct {
	BuildingID    string `json:"building_id"`
	PropertyName  string `json:"property_name"`
	TotalUnits    int    `json:"total_units"`
	OccupiedUnits int    `json:"occupied_units"`
}

type ArrearsSection struct {
	LeaseID       string  `json:"lease_id"`
	TenantID      string  `json:"tenant_id"`
	TenantName    string  `json:"tenant_name"`
	TenantPhone   string  `json:"tenant_phone"`
	UnitNumber    string  `json:"unit_number"`
	ArrearsAmount float64 `json:"arrears_amount"`
	OpenInvoices  int     `json:"open_invoices"`
	OldestDueDate string  `json:"oldest_due_date,omitempty"`
}

type PrepaymentSection struct {
	LeaseID       string `json:"lease_id"`
	TenantID      string `json:"tenant_id"`
	UnitID        string `json:"unit_id"`
	UnitNumber    string `json:"unit_number"`
	TenantName    string `json:"tenant_name"`
	RentPaidUntil string `json:"rent_paid_until,omitempty"`
	NextRentDue   string `json:"next_rent_due_date,omitempty"`
	PrepaidMonths int    `json:"prepaid_months"`
	IsPrepaid     bool   `json:"is_prepaid"`
}

// EmptyOverview is the all-zero payload returned when every snapshot
// source failed. The dashboard still renders.
func EmptyOverview(errMsg string) Overview {
	return Overview{
		Revenue:         RevenueSection{Series: []SeriesPoint{}},
		PropertyRevenue: []PropertySection{},
		Expenses:        ExpensesSection{Monthly: []ExpensePointJSON{}},
		Occupancy:       []OccupancySection{},
		Arrears:         []ArrearsSection{},
		Prepayments:     []PrepaymentSection{},
		Error:           errMsg,
	}
}
