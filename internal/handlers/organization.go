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

// OrganizationHandler provides organization management endpoints.
// All routes require super_admin.
type OrganizationHandler struct {
	orgService   *services.OrganizationService
	auditService *services.AuditService
}

func NewOrganizationHandler(orgService *services.OrganizationService, auditService *services.AuditService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService, auditService: auditService}
}

// OrganizationRouter registers organization routes on the given router.
func (h *OrganizationHandler) OrganizationRouter(r chi.Router) {
	r.Use(RequireRole(types.RoleSuperAdmin))
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{organizationID}", h.Get)
	r.Patch("/{organizationID}", h.Update)
	r.Delete("/{organizationID}", h.Delete)
}

func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.orgService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to list organizations")
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "organizationID")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid organization id")
		return
	}

	org, err := h.orgService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "organization not found")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to get organization")
		return
	}
	writeJSON(w, http.StatusOK, org)
}

type OrganizationRequest struct {
	Name     string            `json:"name"`
	Domain   string            `json:"domain"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req OrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "organization name is required")
		return
	}

	status := types.OrganizationStatus(req.Status)
	if req.Status != "" && status != types.OrganizationActive && status != types.OrganizationSuspended {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid organization status")
		return
	}

	org, err := h.orgService.Create(r.Context(), types.Organization{
		Name:     req.Name,
		Domain:   strings.TrimSpace(req.Domain),
		Status:   status,
		Metadata: req.Metadata,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, CodeConflict, "organization already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to create organization")
		return
	}

	h.audit(r, types.AuditCreate, org.ID)
	writeJSON(w, http.StatusCreated, org)
}

func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "organizationID")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid organization id")
		return
	}

	org, err := h.orgService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "organization not found")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to get organization")
		return
	}

	var req OrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		org.Name = name
	}
	if req.Domain != "" {
		org.Domain = strings.TrimSpace(req.Domain)
	}
	if req.Status != "" {
		status := types.OrganizationStatus(req.Status)
		if status != types.OrganizationActive && status != types.OrganizationSuspended {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid organization status")
			return
		}
		org.Status = status
	}
	if req.Metadata != nil {
		org.Metadata = req.Metadata
	}

	updated, err := h.orgService.Update(r.Context(), org)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, CodeConflict, "organization already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to update organization")
		return
	}

	h.audit(r, types.AuditUpdate, updated.ID)
	writeJSON(w, http.StatusOK, updated)
}

func (h *OrganizationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "organizationID")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid organization id")
		return
	}

	if err := h.orgService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "organization not found")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to delete organization")
		return
	}

	h.audit(r, types.AuditDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrganizationHandler) audit(r *http.Request, action types.AuditAction, orgID int) {
	actor, ok := currentUser(r.Context())
	if !ok {
		return
	}
	h.auditService.Record(r.Context(), types.AuditRecord{
		UserID:   &actor.ID,
		Action:   action,
		Entity:   "organization",
		EntityID: &orgID,
	})
}
