package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"rentledger/internal/audit"
	"rentledger/internal/auth"
	portfolioapp "rentledger/internal/portfolio/application"
	portfolio "rentledger/internal/portfolio/domain"
)

// Handler serves property and unit routes under /api/v1/properties
// and /api/v1/units.
type Handler struct {
	service     *portfolioapp.PortfolioService
	auditLogger audit.Logger
}

func NewHandler(service *portfolioapp.PortfolioService, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("portfolio handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/properties" {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if strings.HasPrefix(path, "/api/v1/properties/") {
		rest := strings.TrimPrefix(path, "/api/v1/properties/")
		h.handleByID(w, r, rest)
		return
	}
	if strings.HasPrefix(path, "/api/v1/units/") {
		rest := strings.TrimPrefix(path, "/api/v1/units/")
		h.handleUnit(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgIDFromContext(r.Context())
	list, err := h.service.ListProperties(r.Context(), orgID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"properties": propertiesJSON(list)})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	orgID := auth.OrgIDFromContext(r.Context())
	p, err := h.service.CreateProperty(r.Context(), orgID, portfolioapp.CreatePropertyInput{
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, propertyJSON(p))
	h.logAudit(r, p.ID, "property.create", map[string]any{"name": p.Name})
}

func (h *Handler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodPut:
			h.handleUpdate(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if len(parts) == 2 && parts[1] == "units" {
		switch r.Method {
		case http.MethodGet:
			h.handleListUnits(w, r, id)
		case http.MethodPost:
			h.handleCreateUnit(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.ownedProperty(r, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, propertyJSON(p))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.ownedProperty(r, id); err != nil {
		respondServiceError(w, err)
		return
	}
	var req struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	p, err := h.service.UpdateProperty(r.Context(), id, portfolioapp.CreatePropertyInput{
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, propertyJSON(p))
	h.logAudit(r, p.ID, "property.update", map[string]any{"name": p.Name})
}

func (h *Handler) handleListUnits(w http.ResponseWriter, r *http.Request, propertyID string) {
	if _, err := h.ownedProperty(r, propertyID); err != nil {
		respondServiceError(w, err)
		return
	}
	units, err := h.service.ListUnits(r.Context(), propertyID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(units))
	for i := range units {
		out = append(out, unitJSON(&units[i]))
	}
	writeJSON(w, map[string]any{"units": out})
}

func (h *Handler) handleCreateUnit(w http.ResponseWriter, r *http.Request, propertyID string) {
	if _, err := h.ownedProperty(r, propertyID); err != nil {
		respondServiceError(w, err)
		return
	}
	var req struct {
		UnitNumber    string  `json:"unitNumber"`
		MonthlyRent   float64 `json:"monthlyRent"`
		PriceCategory string  `json:"priceCategory"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	u, err := h.service.CreateUnit(r.Context(), propertyID, portfolioapp.CreateUnitInput{
		UnitNumber:    req.UnitNumber,
		MonthlyRent:   decimal.NewFromFloat(req.MonthlyRent),
		PriceCategory: req.PriceCategory,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, unitJSON(u))
	h.logAudit(r, propertyID, "unit.create", map[string]any{"unit_number": u.UnitNumber})
}

func (h *Handler) handleUnit(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	if len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPost {
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := h.service.SetUnitStatus(r.Context(), parts[0], req.Status); err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, map[string]any{"unit_id": parts[0], "status": req.Status})
		h.logAudit(r, "", "unit.status", map[string]any{"unit_id": parts[0], "status": req.Status})
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

// ownedProperty loads a property and rejects cross-org access.
func (h *Handler) ownedProperty(r *http.Request, id string) (*portfolio.Property, error) {
	p, err := h.service.GetProperty(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if orgID := auth.OrgIDFromContext(r.Context()); orgID != "" && p.OrgID != orgID {
		return nil, auth.ErrOrgMismatch
	}
	return p, nil
}

func (h *Handler) logAudit(r *http.Request, propertyID, action string, meta map[string]any) {
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
		ResourceType: "property",
		ResourceID:   propertyID,
		PropertyID:   propertyID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func propertiesJSON(list []portfolio.Property) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, propertyJSON(&list[i]))
	}
	return out
}

func propertyJSON(p *portfolio.Property) map[string]any {
	return map[string]any{
		"id":      p.ID,
		"orgId":   p.OrgID,
		"name":    p.Name,
		"address": p.Address,
	}
}

func unitJSON(u *portfolio.Unit) map[string]any {
	return map[string]any{
		"id":            u.ID,
		"propertyId":    u.PropertyID,
		"unitNumber":    u.UnitNumber,
		"monthlyRent":   u.MonthlyRent.InexactFloat64(),
		"priceCategory": u.PriceCategory,
		"status":        u.Status,
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, auth.ErrOrgMismatch) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if errors.Is(err, portfolioapp.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
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
