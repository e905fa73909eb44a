package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/audit"
	"rentledger/internal/auth"
	billingapp "rentledger/internal/billing/application"
	billing "rentledger/internal/billing/domain"
)

// Handler serves invoice, payment and water billing routes.
type Handler struct {
	invoices    *billingapp.InvoiceService
	payments    *billingapp.PaymentService
	water       *billingapp.WaterService
	expenses    *billingapp.ExpenseService
	unitBilling billingapp.UnitBilling
	currency    string
	auditLogger audit.Logger
}

func NewHandler(
	invoices *billingapp.InvoiceService,
	payments *billingapp.PaymentService,
	water *billingapp.WaterService,
	expenses *billingapp.ExpenseService,
	unitBilling billingapp.UnitBilling,
	currency string,
	auditLogger audit.Logger,
) (*Handler, error) {
	if invoices == nil || payments == nil {
		return nil, errors.New("billing handler: nil service")
	}
	if currency == "" {
		currency = "KES"
	}
	return &Handler{
		invoices:    invoices,
		payments:    payments,
		water:       water,
		expenses:    expenses,
		unitBilling: unitBilling,
		currency:    currency,
		auditLogger: auditLogger,
	}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/invoices":
		switch r.Method {
		case http.MethodGet:
			h.handleListInvoices(w, r)
		case http.MethodPost:
			h.handleCreateInvoice(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(path, "/api/v1/invoices/"):
		h.handleInvoiceByID(w, r, strings.TrimPrefix(path, "/api/v1/invoices/"))
	case path == "/api/v1/payments":
		switch r.Method {
		case http.MethodGet:
			h.handleListPending(w, r)
		case http.MethodPost:
			h.handleRecordPayment(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(path, "/api/v1/payments/"):
		h.handlePaymentByID(w, r, strings.TrimPrefix(path, "/api/v1/payments/"))
	case path == "/api/v1/expenses":
		switch r.Method {
		case http.MethodGet:
			h.handleListExpenses(w, r)
		case http.MethodPost:
			h.handleRecordExpense(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case path == "/api/v1/water/readings" && r.Method == http.MethodPost:
		h.handleRecordReading(w, r)
	case path == "/api/v1/water/runs" && r.Method == http.MethodPost:
		h.handleWaterRun(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		http.Error(w, "tenant_id required", http.StatusBadRequest)
		return
	}
	list, err := h.invoices.ListByTenant(r.Context(), tenantID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	orgID := auth.OrgIDFromContext(r.Context())
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		if orgID != "" && list[i].OrgID != orgID {
			continue
		}
		out = append(out, invoiceJSON(&list[i]))
	}
	writeJSON(w, map[string]any{"invoices": out})
}

func (h *Handler) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PropertyID  string  `json:"propertyId"`
		UnitID      string  `json:"unitId"`
		TenantID    string  `json:"tenantId"`
		LeaseID     string  `json:"leaseId"`
		Type        string  `json:"type"`
		Amount      float64 `json:"amount"`
		PeriodStart string  `json:"periodStart"`
		DueDate     string  `json:"dueDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	period, ok := parseDate(req.PeriodStart)
	if !ok {
		http.Error(w, "invalid periodStart", http.StatusBadRequest)
		return
	}
	due, ok := parseDate(req.DueDate)
	if !ok {
		http.Error(w, "invalid dueDate", http.StatusBadRequest)
		return
	}
	orgID := auth.OrgIDFromContext(r.Context())
	inv, err := h.invoices.Create(r.Context(), orgID, billingapp.CreateInvoiceInput{
		PropertyID:  req.PropertyID,
		UnitID:      req.UnitID,
		TenantID:    req.TenantID,
		LeaseID:     req.LeaseID,
		Type:        req.Type,
		Amount:      decimal.NewFromFloat(req.Amount),
		PeriodStart: period,
		DueDate:     due,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, invoiceJSON(inv))
	h.logAudit(r, "invoice", inv.ID, inv.PropertyID, "invoice.create", map[string]any{
		"type":   inv.Type,
		"amount": inv.Amount.InexactFloat64(),
	})
}

func (h *Handler) handleInvoiceByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 && r.Method == http.MethodGet {
		inv, err := h.ownedInvoice(r, id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, invoiceJSON(inv))
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "void":
			if r.Method == http.MethodPost {
				h.handleVoidInvoice(w, r, id)
				return
			}
		case "export.pdf":
			if r.Method == http.MethodGet {
				h.handleExportInvoicePDF(w, r, id)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleVoidInvoice(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.ownedInvoice(r, id); err != nil {
		respondServiceError(w, err)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	inv, err := h.invoices.Void(r.Context(), id, req.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, invoiceJSON(inv))
	h.logAudit(r, "invoice", inv.ID, inv.PropertyID, "invoice.void", map[string]any{"reason": req.Reason})
}

func (h *Handler) handleExportInvoicePDF(w http.ResponseWriter, r *http.Request, id string) {
	inv, err := h.ownedInvoice(r, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	payments, err := h.payments.ListByInvoice(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	data, err := BuildInvoicePDF(inv, payments, h.currency)
	if err != nil {
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, "invoice", inv.ID, inv.PropertyID, "invoice.export", map[string]any{"format": "pdf"})
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgIDFromContext(r.Context())
	list, err := h.payments.ListPending(r.Context(), orgID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, paymentJSON(&list[i]))
	}
	writeJSON(w, map[string]any{"payments": out})
}

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InvoiceID string  `json:"invoiceId"`
		TenantID  string  `json:"tenantId"`
		Amount    float64 `json:"amount"`
		Method    string  `json:"method"`
		Reference string  `json:"reference"`
		PaidAt    string  `json:"paidAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	paidAt, ok := parseDate(req.PaidAt)
	if !ok {
		http.Error(w, "invalid paidAt", http.StatusBadRequest)
		return
	}
	orgID := auth.OrgIDFromContext(r.Context())
	p, err := h.payments.Record(r.Context(), orgID, billingapp.RecordPaymentInput{
		InvoiceID: req.InvoiceID,
		TenantID:  req.TenantID,
		Amount:    decimal.NewFromFloat(req.Amount),
		Method:    req.Method,
		Reference: req.Reference,
		PaidAt:    paidAt,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, paymentJSON(p))
	h.logAudit(r, "payment", p.ID, "", "payment.record", map[string]any{
		"amount": p.Amount.InexactFloat64(),
		"method": p.Method,
	})
}

func (h *Handler) handlePaymentByID(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id := parts[0]
	actor := auth.SubjectFromContext(r.Context())
	switch parts[1] {
	case "verify":
		p, err := h.payments.Verify(r.Context(), id, actor)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, paymentJSON(p))
		h.logAudit(r, "payment", p.ID, "", "payment.verify", map[string]any{"amount": p.Amount.InexactFloat64()})
	case "reject":
		p, err := h.payments.Reject(r.Context(), id, actor)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, paymentJSON(p))
		h.logAudit(r, "payment", p.ID, "", "payment.reject", nil)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	if h.expenses == nil {
		http.Error(w, "expenses disabled", http.StatusServiceUnavailable)
		return
	}
	list, err := h.expenses.List(r.Context(), auth.OrgIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, expenseJSON(&list[i]))
	}
	writeJSON(w, map[string]any{"expenses": out})
}

func (h *Handler) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	if h.expenses == nil {
		http.Error(w, "expenses disabled", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		PropertyID string  `json:"propertyId"`
		Category   string  `json:"category"`
		Note       string  `json:"note"`
		Amount     float64 `json:"amount"`
		IncurredAt string  `json:"incurredAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	incurred, ok := parseDate(req.IncurredAt)
	if !ok {
		http.Error(w, "invalid incurredAt", http.StatusBadRequest)
		return
	}
	in := billingapp.RecordExpenseInput{
		PropertyID: req.PropertyID,
		Category:   req.Category,
		Note:       req.Note,
		Amount:     decimal.NewFromFloat(req.Amount),
	}
	if !incurred.IsZero() {
		in.IncurredAt = &incurred
	}
	e, err := h.expenses.Record(r.Context(), auth.OrgIDFromContext(r.Context()), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, expenseJSON(e))
	h.logAudit(r, "expense", e.ID, e.PropertyID, "expense.record", map[string]any{"category": e.Category})
}

func (h *Handler) handleRecordReading(w http.ResponseWriter, r *http.Request) {
	if h.water == nil {
		http.Error(w, "water billing disabled", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		PropertyID string  `json:"propertyId"`
		UnitID     string  `json:"unitId"`
		Month      string  `json:"month"`
		Reading    float64 `json:"reading"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	orgID := auth.OrgIDFromContext(r.Context())
	m, err := h.water.RecordReading(r.Context(), orgID, billingapp.RecordReadingInput{
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		Month:      req.Month,
		Reading:    decimal.NewFromFloat(req.Reading),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]any{
		"id":      m.ID,
		"unitId":  m.UnitID,
		"month":   m.Month,
		"reading": m.Reading.InexactFloat64(),
	})
}

func (h *Handler) handleWaterRun(w http.ResponseWriter, r *http.Request) {
	if h.water == nil {
		http.Error(w, "water billing disabled", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Month string `json:"month"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	orgID := auth.OrgIDFromContext(r.Context())
	result, err := h.water.Run(r.Context(), orgID, req.Month, h.unitBilling)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"month":          result.Month,
		"invoicesRaised": result.InvoicesRaised,
		"unitsSkipped":   result.UnitsSkipped,
	})
	h.logAudit(r, "water_run", result.Month, "", "water.run", map[string]any{
		"invoices_raised": result.InvoicesRaised,
		"units_skipped":   result.UnitsSkipped,
	})
}

func (h *Handler) ownedInvoice(r *http.Request, id string) (*billing.Invoice, error) {
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if orgID := auth.OrgIDFromContext(r.Context()); orgID != "" && inv.OrgID != orgID {
		return nil, auth.ErrOrgMismatch
	}
	return inv, nil
}

func (h *Handler) logAudit(r *http.Request, resourceType, resourceID, propertyID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	orgID := auth.OrgIDFromContext(r.Context())
	if orgID == "" {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		OrgID:        orgID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		PropertyID:   propertyID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func invoiceJSON(i *billing.Invoice) map[string]any {
	return map[string]any{
		"id":          i.ID,
		"tenantId":    i.TenantID,
		"propertyId":  i.PropertyID,
		"unitId":      i.UnitID,
		"leaseId":     i.LeaseID,
		"type":        i.Type,
		"status":      i.Status,
		"amount":      i.Amount.InexactFloat64(),
		"amountPaid":  i.AmountPaid.InexactFloat64(),
		"periodStart": i.PeriodStart.Format("2006-01-02"),
		"dueDate":     i.DueDate.Format("2006-01-02"),
	}
}

func paymentJSON(p *billing.Payment) map[string]any {
	out := map[string]any{
		"id":        p.ID,
		"invoiceId": p.InvoiceID,
		"tenantId":  p.TenantID,
		"amount":    p.Amount.InexactFloat64(),
		"method":    p.Method,
		"reference": p.Reference,
		"status":    p.Status,
		"paidAt":    p.PaidAt.Format("2006-01-02"),
	}
	if p.VerifiedAt != nil {
		out["verifiedAt"] = p.VerifiedAt.Format(time.RFC3339)
		out["verifiedBy"] = p.VerifiedBy
	}
	return out
}

func expenseJSON(e *billing.Expense) map[string]any {
	out := map[string]any{
		"id":         e.ID,
		"propertyId": e.PropertyID,
		"category":   e.Category,
		"note":       e.Note,
		"amount":     e.Amount.InexactFloat64(),
		"createdAt":  e.CreatedAt.Format(time.RFC3339),
	}
	if e.IncurredAt != nil {
		out["incurredAt"] = e.IncurredAt.Format("2006-01-02")
	}
	return out
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, auth.ErrOrgMismatch) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if errors.Is(err, billingapp.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, billing.ErrInvoiceClosed) || errors.Is(err, billing.ErrPaymentFinal) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
