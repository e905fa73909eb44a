package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"rentledger/internal/audit"
	"rentledger/internal/auth"
	maintapp "rentledger/internal/maintenance/application"
	maintenance "rentledger/internal/maintenance/domain"
)

// Handler serves maintenance routes under /api/v1/maintenance.
type Handler struct {
	service     *maintapp.Service
	orgChecker  auth.PropertyOrgChecker
	auditLogger audit.Logger
}

func NewHandler(service *maintapp.Service, orgChecker auth.PropertyOrgChecker, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("maintenance handler: nil service")
	}
	return &Handler{service: service, orgChecker: orgChecker, auditLogger: auditLogger}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/maintenance" {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleFile(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if strings.HasPrefix(path, "/api/v1/maintenance/") {
		rest := strings.TrimPrefix(path, "/api/v1/maintenance/")
		parts := strings.Split(rest, "/")
		if len(parts) == 1 && r.Method == http.MethodGet {
			h.handleGet(w, r, parts[0])
			return
		}
		if len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPost {
			h.handleStatus(w, r, parts[0])
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgIDFromContext(r.Context())
	propertyID := r.URL.Query().Get("property_id")

	var (
		list []maintenance.Request
		err  error
	)
	if propertyID != "" {
		if err := h.ensureOrg(r, propertyID); err != nil {
			respondServiceError(w, err)
			return
		}
		list, err = h.service.ListByProperty(r.Context(), propertyID)
	} else {
		list, err = h.service.ListOpen(r.Context(), orgID)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, requestJSON(&list[i]))
	}
	writeJSON(w, map[string]any{"requests": out})
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PropertyID  string `json:"propertyId"`
		UnitID      string `json:"unitId"`
		TenantID    string `json:"tenantId"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.ensureOrg(r, req.PropertyID); err != nil {
		respondServiceError(w, err)
		return
	}
	orgID := auth.OrgIDFromContext(r.Context())
	created, err := h.service.File(r.Context(), orgID, maintapp.FileRequestInput{
		PropertyID:  req.PropertyID,
		UnitID:      req.UnitID,
		TenantID:    req.TenantID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, requestJSON(created))
	h.logAudit(r, created.ID, created.PropertyID, "maintenance.file", map[string]any{
		"priority": created.Priority,
		"title":    created.Title,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	req, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if orgID := auth.OrgIDFromContext(r.Context()); orgID != "" && req.OrgID != orgID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	writeJSON(w, requestJSON(req))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	updated, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, requestJSON(updated))
	h.logAudit(r, updated.ID, updated.PropertyID, "maintenance.status", map[string]any{"status": updated.Status})
}

func (h *Handler) ensureOrg(r *http.Request, propertyID string) error {
	if h.orgChecker == nil {
		return nil
	}
	orgID := auth.OrgIDFromContext(r.Context())
	return h.orgChecker.EnsurePropertyOrg(r.Context(), orgID, propertyID)
}

func (h *Handler) logAudit(r *http.Request, resourceID, propertyID, action string, meta map[string]any) {
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
		ResourceType: "maintenance_request",
		ResourceID:   resourceID,
		PropertyID:   propertyID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func requestJSON(req *maintenance.Request) map[string]any {
	out := map[string]any{
		"id":          req.ID,
		"propertyId":  req.PropertyID,
		"unitId":      req.UnitID,
		"tenantId":    req.TenantID,
		"title":       req.Title,
		"description": req.Description,
		"priority":    req.Priority,
		"status":      req.Status,
		"createdAt":   req.CreatedAt.Format(time.RFC3339),
	}
	if req.ResolvedAt != nil {
		out["resolvedAt"] = req.ResolvedAt.Format(time.RFC3339)
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
	if errors.Is(err, auth.ErrNotFound) || errors.Is(err, maintapp.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, maintenance.ErrInvalidTransition) {
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
