package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"rentledger/internal/audit"
	"rentledger/internal/auth"
	"rentledger/internal/observability/metrics"
	reportingapp "rentledger/internal/reporting/application"
)

// Handler serves the dashboard overview and report exports. The
// dashboard endpoint always answers 200; degraded data carries an
// error string inside the payload instead of a failure status.
type Handler struct {
	dashboard   *reportingapp.DashboardService
	currency    string
	auditLogger audit.Logger
}

func NewHandler(dashboard *reportingapp.DashboardService, currency string, auditLogger audit.Logger) (*Handler, error) {
	if dashboard == nil {
		return nil, errors.New("reporting handler: nil dashboard service")
	}
	if currency == "" {
		currency = "KES"
	}
	return &Handler{dashboard: dashboard, currency: currency, auditLogger: auditLogger}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/dashboard":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleDashboard(w, r)
	case "/api/v1/reports/monthly/export.pdf":
		h.handleReportPDF(w, r)
	case "/api/v1/reports/monthly/export.xlsx":
		h.handleReportXLSX(w, r)
	case "/api/v1/exports/arrears.csv":
		h.handleArrearsCSV(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	overview := h.dashboard.Overview(r.Context(), auth.OrgIDFromContext(r.Context()))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(overview)
}

func (h *Handler) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportExport("pdf", result, time.Since(start))
	}()

	overview := h.dashboard.Overview(r.Context(), auth.OrgIDFromContext(r.Context()))
	data, err := BuildMonthlyReportPDF(overview, h.currency)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, "report.export", map[string]any{"format": "pdf"})
}

func (h *Handler) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportExport("xlsx", result, time.Since(start))
	}()

	overview := h.dashboard.Overview(r.Context(), auth.OrgIDFromContext(r.Context()))
	data, err := BuildMonthlyReportXLSX(overview, h.currency)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, "report.export", map[string]any{"format": "xlsx"})
}

func (h *Handler) handleArrearsCSV(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportExport("csv", result, time.Since(start))
	}()

	overview := h.dashboard.Overview(r.Context(), auth.OrgIDFromContext(r.Context()))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"lease_id",
		"tenant_id",
		"tenant_name",
		"tenant_phone",
		"unit_number",
		"arrears_amount",
		"open_invoices",
		"oldest_due_date",
	})
	for _, entry := range overview.Arrears {
		_ = writer.Write([]string{
			entry.LeaseID,
			entry.TenantID,
			entry.TenantName,
			entry.TenantPhone,
			entry.UnitNumber,
			strconv.FormatFloat(entry.ArrearsAmount, 'f', 2, 64),
			strconv.Itoa(entry.OpenInvoices),
			entry.OldestDueDate,
		})
	}
	writer.Flush()
	h.logAudit(r, "report.export", map[string]any{"format": "csv", "rows": len(overview.Arrears)})
}

func (h *Handler) logAudit(r *http.Request, action string, meta map[string]any) {
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
		ResourceType: "report",
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
