package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/watchdesk/console/internal/services"
	"github.com/watchdesk/console/internal/store"
	"github.com/watchdesk/console/types"
)

// AuditHandler provides read access to the platform activity log.
type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// AuditRouter registers audit log routes. Admin roles only; the log exposes
// actions across accounts.
func (h *AuditHandler) AuditRouter(r chi.Router) {
	r.Use(RequireRole(types.RoleSuperAdmin, types.RoleOrgAdmin))
	r.Get("/", h.List)
	r.Get("/{recordID}", h.Get)

	r.With(RequireRole(types.RoleSuperAdmin)).Post("/export", h.Export)
}

// List returns audit records matching the query filters. org_admin callers
// are pinned to their own organization regardless of filters.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	filter, err := parseAuditFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	filter.OrganizationID = orgScope(actor)

	records, err := h.auditService.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to list audit records")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *AuditHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	id, err := parseIDParam(r, "recordID")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid record id")
		return
	}

	record, err := h.auditService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "audit record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to get audit record")
		return
	}

	if scope := orgScope(actor); scope != nil {
		if record.OrganizationID == nil || *record.OrganizationID != *scope {
			writeError(w, http.StatusNotFound, CodeNotFound, "audit record not found")
			return
		}
	}

	writeJSON(w, http.StatusOK, record)
}

type ExportAuditRequest struct {
	// Before bounds the export; records older than this timestamp are
	// written to the archive. Defaults to 90 days ago.
	Before *time.Time `json:"before"`
}

// Export writes aged audit records to the configured object storage archive.
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportAuditRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request")
			return
		}
	}

	cutoff := time.Now().AddDate(0, 0, -90)
	if req.Before != nil {
		cutoff = *req.Before
	}

	result, err := h.auditService.Export(r.Context(), cutoff)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to export audit records")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseAuditFilter(r *http.Request) (types.AuditFilter, error) {
	q := r.URL.Query()
	filter := types.AuditFilter{}

	if action := q.Get("action"); action != "" {
		filter.Action = types.AuditAction(action)
	}
	if rawUserID := q.Get("userId"); rawUserID != "" {
		userID, err := strconv.Atoi(rawUserID)
		if err != nil || userID < 1 {
			return types.AuditFilter{}, errors.New("invalid userId filter")
		}
		filter.UserID = userID
	}
	if rawStart := q.Get("startDate"); rawStart != "" {
		start, err := parseDateParam(rawStart)
		if err != nil {
			return types.AuditFilter{}, errors.New("invalid startDate filter")
		}
		filter.StartDate = start
	}
	if rawEnd := q.Get("endDate"); rawEnd != "" {
		end, err := parseDateParam(rawEnd)
		if err != nil {
			return types.AuditFilter{}, errors.New("invalid endDate filter")
		}
		filter.EndDate = end
	}

	return filter, nil
}

// parseDateParam accepts RFC 3339 timestamps and bare dates.
func parseDateParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
