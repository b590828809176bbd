package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/watchdesk/console/internal/services"
	"github.com/watchdesk/console/internal/store"
	"github.com/watchdesk/console/types"
)

// EventHandler provides read access to the system event feed and a direct
// ingestion endpoint for deployments without a message bus.
type EventHandler struct {
	eventService *services.EventService
}

func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// EventRouter registers event routes on the given router.
func (h *EventHandler) EventRouter(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{eventID}", h.Get)

	r.With(RequireRole(types.RoleSuperAdmin, types.RoleOrgAdmin, types.RoleAuthorityUser)).
		Post("/", h.Ingest)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	events, err := h.eventService.List(r.Context(), orgScope(actor))
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	id, err := parseIDParam(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid event id")
		return
	}

	event, err := h.eventService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to get event")
		return
	}

	if scope := orgScope(actor); scope != nil {
		if event.OrganizationID == nil || *event.OrganizationID != *scope {
			writeError(w, http.StatusNotFound, CodeNotFound, "event not found")
			return
		}
	}

	writeJSON(w, http.StatusOK, event)
}

type IngestEventRequest struct {
	EventType      string         `json:"eventType"`
	Source         string         `json:"source"`
	EventTimestamp time.Time      `json:"eventTimestamp"`
	Data           map[string]any `json:"data"`
}

func (h *EventHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	var req IngestEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	if req.EventTimestamp.IsZero() {
		req.EventTimestamp = time.Now()
	}

	event, err := h.eventService.Ingest(r.Context(), types.Event{
		EventType:      req.EventType,
		Source:         req.Source,
		EventTimestamp: req.EventTimestamp,
		OrganizationID: actor.OrganizationID,
		Data:           req.Data,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidEvent) {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid event")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to ingest event")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}
