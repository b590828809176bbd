package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/watchdesk/console/internal/services"
	"github.com/watchdesk/console/internal/store"
	"github.com/watchdesk/console/types"
)

// AlertHandler provides security alert endpoints. Every authenticated role
// can read alerts in its scope; observers cannot write.
type AlertHandler struct {
	alertService *services.AlertService
	auditService *services.AuditService
}

func NewAlertHandler(alertService *services.AlertService, auditService *services.AuditService) *AlertHandler {
	return &AlertHandler{alertService: alertService, auditService: auditService}
}

// AlertRouter registers alert routes on the given router.
func (h *AlertHandler) AlertRouter(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{alertID}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(RequireRole(types.RoleSuperAdmin, types.RoleOrgAdmin, types.RoleAuthorityUser))
		r.Post("/", h.Create)
		r.Patch("/{alertID}", h.Update)
	})

	r.With(RequireRole(types.RoleSuperAdmin, types.RoleOrgAdmin)).
		Delete("/{alertID}", h.Delete)
}

func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	alerts, err := h.alertService.List(r.Context(), orgScope(actor))
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to list alerts")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	alert, ok := h.loadScopedAlert(w, r, actor)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

type AlertRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
}

func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	var req AlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	alert, err := h.alertService.Create(r.Context(), types.Alert{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Severity:       types.AlertSeverity(req.Severity),
		Status:         types.AlertStatus(req.Status),
		OrganizationID: actor.OrganizationID,
		CreatedBy:      actor.ID,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidAlert) {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid alert")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to create alert")
		return
	}

	h.audit(r, actor, types.AuditCreate, alert.ID, map[string]any{"severity": alert.Severity})
	writeJSON(w, http.StatusCreated, alert)
}

func (h *AlertHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	alert, ok := h.loadScopedAlert(w, r, actor)
	if !ok {
		return
	}

	var req AlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	changed := map[string]any{}
	if title := strings.TrimSpace(req.Title); title != "" {
		alert.Title = title
		changed["title"] = title
	}
	if req.Description != "" {
		alert.Description = req.Description
	}
	if req.Severity != "" {
		alert.Severity = types.AlertSeverity(req.Severity)
		changed["severity"] = alert.Severity
	}
	if req.Status != "" {
		alert.Status = types.AlertStatus(req.Status)
		changed["status"] = alert.Status
	}

	updated, err := h.alertService.Update(r.Context(), alert)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAlert) {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid alert")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to update alert")
		return
	}

	h.audit(r, actor, types.AuditUpdate, updated.ID, changed)
	writeJSON(w, http.StatusOK, updated)
}

func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	alert, ok := h.loadScopedAlert(w, r, actor)
	if !ok {
		return
	}

	if err := h.alertService.Delete(r.Context(), alert.ID); err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to delete alert")
		return
	}

	h.audit(r, actor, types.AuditDelete, alert.ID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// loadScopedAlert resolves the {alertID} path param and hides alerts outside
// the caller's organization.
func (h *AlertHandler) loadScopedAlert(w http.ResponseWriter, r *http.Request, actor types.User) (types.Alert, bool) {
	id, err := parseIDParam(r, "alertID")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid alert id")
		return types.Alert{}, false
	}

	alert, err := h.alertService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "alert not found")
			return types.Alert{}, false
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to get alert")
		return types.Alert{}, false
	}

	if scope := orgScope(actor); scope != nil {
		if alert.OrganizationID == nil || *alert.OrganizationID != *scope {
			writeError(w, http.StatusNotFound, CodeNotFound, "alert not found")
			return types.Alert{}, false
		}
	}

	return alert, true
}

func (h *AlertHandler) audit(r *http.Request, actor types.User, action types.AuditAction, alertID int, details map[string]any) {
	h.auditService.Record(r.Context(), types.AuditRecord{
		UserID:         &actor.ID,
		OrganizationID: actor.OrganizationID,
		Action:         action,
		Entity:         "alert",
		EntityID:       &alertID,
		Details:        details,
	})
}
