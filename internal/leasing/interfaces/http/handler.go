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
	leasingapp "rentledger/internal/leasing/application"
	leasing "rentledger/internal/leasing/domain"
)

// Handler serves tenant and lease routes under /api/v1/tenants and
// /api/v1/leases.
type Handler struct {
	service     *leasingapp.LeasingService
	auditLogger audit.Logger
}

func NewHandler(service *leasingapp.LeasingService, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("leasing handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/tenants" {
		switch r.Method {
		case http.MethodGet:
			h.handleListTenants(w, r)
		case http.MethodPost:
			h.handleCreateTenant(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if strings.HasPrefix(path, "/api/v1/tenants/") {
		h.handleTenantByID(w, r, strings.TrimPrefix(path, "/api/v1/tenants/"))
		return
	}
	if path == "/api/v1/leases" && r.Method == http.MethodPost {
		h.handleStartLease(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/leases/") {
		rest := strings.TrimPrefix(path, "/api/v1/leases/")
		parts := strings.Split(rest, "/")
		if len(parts) == 2 && parts[1] == "end" && r.Method == http.MethodPost {
			h.handleEndLease(w, r, parts[0])
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleListTenants(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgIDFromContext(r.Context())
	list, err := h.service.ListTenants(r.Context(), orgID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, tenantJSON(&list[i]))
	}
	writeJSON(w, map[string]any{"tenants": out})
}

func (h *Handler) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"fullName"`
		Phone    string `json:"phone"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	orgID := auth.OrgIDFromContext(r.Context())
	t, err := h.service.CreateTenant(r.Context(), orgID, leasingapp.CreateTenantInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Email:    req.Email,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, tenantJSON(t))
	h.logAudit(r, "tenant", t.ID, "", "tenant.create", map[string]any{"full_name": t.FullName})
}

func (h *Handler) handleTenantByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 && r.Method == http.MethodGet {
		t, err := h.ownedTenant(r, id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, tenantJSON(t))
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "leases":
			if r.Method == http.MethodGet {
				h.handleTenantLeases(w, r, id)
				return
			}
		case "offboard":
			if r.Method == http.MethodPost {
				h.handleOffboard(w, r, id)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleTenantLeases(w http.ResponseWriter, r *http.Request, tenantID string) {
	if _, err := h.ownedTenant(r, tenantID); err != nil {
		respondServiceError(w, err)
		return
	}
	leases, err := h.service.ListLeasesByTenant(r.Context(), tenantID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(leases))
	for i := range leases {
		out = append(out, leaseJSON(&leases[i]))
	}
	writeJSON(w, map[string]any{"leases": out})
}

func (h *Handler) handleOffboard(w http.ResponseWriter, r *http.Request, tenantID string) {
	orgID := auth.OrgIDFromContext(r.Context())
	result, err := h.service.Offboard(r.Context(), orgID, tenantID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"tenantId":       tenantID,
		"leasesEnded":    result.LeasesEnded,
		"invoicesVoided": result.InvoicesVoided,
		"unitsReleased":  result.UnitsReleased,
	})
	h.logAudit(r, "tenant", tenantID, "", "tenant.offboard", map[string]any{
		"leases_ended":    result.LeasesEnded,
		"invoices_voided": result.InvoicesVoided,
	})
}

func (h *Handler) handleStartLease(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TenantID    string  `json:"tenantId"`
		PropertyID  string  `json:"propertyId"`
		UnitID      string  `json:"unitId"`
		MonthlyRent float64 `json:"monthlyRent"`
		StartDate   string  `json:"startDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	var start time.Time
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			http.Error(w, "invalid startDate", http.StatusBadRequest)
			return
		}
		start = parsed
	}
	orgID := auth.OrgIDFromContext(r.Context())
	l, err := h.service.StartLease(r.Context(), orgID, leasingapp.StartLeaseInput{
		TenantID:    req.TenantID,
		PropertyID:  req.PropertyID,
		UnitID:      req.UnitID,
		MonthlyRent: decimal.NewFromFloat(req.MonthlyRent),
		StartDate:   start,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, leaseJSON(l))
	h.logAudit(r, "lease", l.ID, l.PropertyID, "lease.start", map[string]any{
		"tenant_id": l.TenantID,
		"unit_id":   l.UnitID,
	})
}

func (h *Handler) handleEndLease(w http.ResponseWriter, r *http.Request, leaseID string) {
	l, err := h.service.EndLease(r.Context(), leaseID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, leaseJSON(l))
	h.logAudit(r, "lease", l.ID, l.PropertyID, "lease.end", nil)
}

func (h *Handler) ownedTenant(r *http.Request, id string) (*leasing.Tenant, error) {
	t, err := h.service.GetTenant(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if orgID := auth.OrgIDFromContext(r.Context()); orgID != "" && t.OrgID != orgID {
		return nil, auth.ErrOrgMismatch
	}
	return t, nil
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

func tenantJSON(t *leasing.Tenant) map[string]any {
	return map[string]any{
		"id":       t.ID,
		"orgId":    t.OrgID,
		"fullName": t.FullName,
		"phone":    t.Phone,
		"email":    t.Email,
		"status":   t.Status,
	}
}

func leaseJSON(l *leasing.Lease) map[string]any {
	out := map[string]any{
		"id":          l.ID,
		"tenantId":    l.TenantID,
		"propertyId":  l.PropertyID,
		"unitId":      l.UnitID,
		"monthlyRent": l.MonthlyRent.InexactFloat64(),
		"status":      l.Status,
		"startDate":   l.StartDate.Format("2006-01-02"),
	}
	if l.EndDate != nil {
		out["endDate"] = l.EndDate.Format("2006-01-02")
	}
	if l.RentPaidUntil != nil {
		out["rentPaidUntil"] = l.RentPaidUntil.Format("2006-01-02")
	}
	if l.NextRentDue != nil {
		out["nextRentDue"] = l.NextRentDue.Format("2006-01-02")
	}
	return out
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, auth.ErrOrgMismatch) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if errors.Is(err, leasingapp.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, leasingapp.ErrUnitOccupied) {
		http.Error(w, "unit occupied", http.StatusConflict)
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
