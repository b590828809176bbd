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
	"golang.org/x/crypto/bcrypt"
)

// UserHandler provides user and executive management endpoints.
type UserHandler struct {
	userService  *services.UserService
	auditService *services.AuditService
}

func NewUserHandler(userService *services.UserService, auditService *services.AuditService) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// UserRouter registers user management routes. super_admin manages every
// account; org_admin manages accounts inside its own organization.
func (h *UserHandler) UserRouter(r chi.Router) {
	r.Use(RequireRole(types.RoleSuperAdmin, types.RoleOrgAdmin))
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{userID}", h.Get)
	r.Patch("/{userID}", h.Update)
	r.Patch("/{userID}/password", h.SetPassword)
	r.Delete("/{userID}", h.Delete)
}

// ExecutiveRouter registers executive (org_admin account) management routes.
// Only super_admin appoints executives.
func (h *UserHandler) ExecutiveRouter(r chi.Router) {
	r.Use(RequireRole(types.RoleSuperAdmin))
	r.Get("/", h.ListExecutives)
	r.Post("/", h.CreateExecutive)
	r.Patch("/{userID}", h.UpdateExecutive)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	users, err := h.userService.List(r.Context(), orgScope(actor))
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	user, ok := h.loadManagedUser(w, r, actor)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type CreateUserRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	OrganizationID *int   `json:"organizationId"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "missing required fields")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "password too short")
		return
	}

	role, err := types.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid role")
		return
	}
	if !role.In(types.AssignableBy(actor.Role)) {
		writeError(w, http.StatusForbidden, CodeForbidden, "role not assignable")
		return
	}

	organizationID := req.OrganizationID
	if actor.Role == types.RoleOrgAdmin {
		// org_admin always creates inside its own organization.
		organizationID = actor.OrganizationID
	}
	if organizationID == nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "organization is required")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to create user")
		return
	}

	user, err := h.userService.Create(r.Context(), types.User{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           role,
		IsActive:       true,
		OrganizationID: organizationID,
		PasswordHash:   string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, CodeDuplicateAccount, "account already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to create user")
		return
	}

	h.audit(r, actor, types.AuditCreate, user.ID, nil)
	writeJSON(w, http.StatusCreated, user)
}

type UpdateUserRequest struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	Role           *string `json:"role"`
	IsActive       *bool   `json:"isActive"`
	OrganizationID *int    `json:"organizationId"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	user, ok := h.loadManagedUser(w, r, actor)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	changed := map[string]any{}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
		changed["firstName"] = user.FirstName
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
		changed["lastName"] = user.LastName
	}
	if req.Role != nil {
		role, err := types.ParseRole(*req.Role)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid role")
			return
		}
		if !role.In(types.AssignableBy(actor.Role)) {
			writeError(w, http.StatusForbidden, CodeForbidden, "role not assignable")
			return
		}
		user.Role = role
		changed["role"] = role
	}
	if req.IsActive != nil {
		if user.ID == actor.ID && !*req.IsActive {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "cannot deactivate own account")
			return
		}
		user.IsActive = *req.IsActive
		changed["isActive"] = user.IsActive
	}
	if req.OrganizationID != nil {
		// Moving an account across organizations is a platform operation.
		if actor.Role != types.RoleSuperAdmin {
			writeError(w, http.StatusForbidden, CodeForbidden, "organization change not allowed")
			return
		}
		user.OrganizationID = req.OrganizationID
		changed["organizationId"] = *req.OrganizationID
	}

	updated, err := h.userService.Update(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to update user")
		return
	}

	h.audit(r, actor, types.AuditUpdate, updated.ID, changed)
	writeJSON(w, http.StatusOK, updated)
}

type SetPasswordRequest struct {
	Password string `json:"password"`
}

func (h *UserHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	user, ok := h.loadManagedUser(w, r, actor)
	if !ok {
		return
	}

	var req SetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "password too short")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to set password")
		return
	}

	user.PasswordHash = string(hashed)
	if _, err := h.userService.Update(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to set password")
		return
	}

	h.audit(r, actor, types.AuditUpdate, user.ID, map[string]any{"password": "changed"})
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	user, ok := h.loadManagedUser(w, r, actor)
	if !ok {
		return
	}
	if user.ID == actor.ID {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "cannot delete own account")
		return
	}

	if err := h.userService.Delete(r.Context(), user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to delete user")
		return
	}

	h.audit(r, actor, types.AuditDelete, user.ID, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) ListExecutives(w http.ResponseWriter, r *http.Request) {
	executives, err := h.userService.ListExecutives(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to list executives")
		return
	}
	writeJSON(w, http.StatusOK, executives)
}

type CreateExecutiveRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	OrganizationID int    `json:"organizationId"`
}

// CreateExecutive creates an org_admin account bound to an organization.
func (h *UserHandler) CreateExecutive(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	var req CreateExecutiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "missing required fields")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "password too short")
		return
	}
	if req.OrganizationID < 1 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "organization is required")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to create executive")
		return
	}

	user, err := h.userService.Create(r.Context(), types.User{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           types.RoleOrgAdmin,
		IsActive:       true,
		OrganizationID: &req.OrganizationID,
		PasswordHash:   string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, CodeDuplicateAccount, "account already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to create executive")
		return
	}

	h.audit(r, actor, types.AuditCreate, user.ID, map[string]any{"executive": true})
	writeJSON(w, http.StatusCreated, user)
}

type UpdateExecutiveRequest struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	IsActive       *bool   `json:"isActive"`
	OrganizationID *int    `json:"organizationId"`
}

// UpdateExecutive edits an org_admin account. The role itself is fixed;
// demoting an executive goes through the regular user endpoints.
func (h *UserHandler) UpdateExecutive(w http.ResponseWriter, r *http.Request) {
	actor, _ := currentUser(r.Context())

	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid executive id")
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "executive not found")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to get executive")
		return
	}
	if user.Role != types.RoleOrgAdmin {
		writeError(w, http.StatusNotFound, CodeNotFound, "executive not found")
		return
	}

	var req UpdateExecutiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	changed := map[string]any{}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
		changed["firstName"] = user.FirstName
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
		changed["lastName"] = user.LastName
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
		changed["isActive"] = user.IsActive
	}
	if req.OrganizationID != nil {
		user.OrganizationID = req.OrganizationID
		changed["organizationId"] = *req.OrganizationID
	}

	updated, err := h.userService.Update(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to update executive")
		return
	}

	h.audit(r, actor, types.AuditUpdate, updated.ID, changed)
	writeJSON(w, http.StatusOK, updated)
}

// loadManagedUser resolves the {userID} path param and enforces management
// scope: org_admin may only touch accounts in its own organization and never
// a super_admin account. Out-of-scope targets read as not found so the
// response does not leak account existence across tenants.
func (h *UserHandler) loadManagedUser(w http.ResponseWriter, r *http.Request, actor types.User) (types.User, bool) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid user id")
		return types.User{}, false
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "user not found")
			return types.User{}, false
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to get user")
		return types.User{}, false
	}

	if actor.Role == types.RoleOrgAdmin {
		if user.Role == types.RoleSuperAdmin ||
			user.OrganizationID == nil || actor.OrganizationID == nil ||
			*user.OrganizationID != *actor.OrganizationID {
			writeError(w, http.StatusNotFound, CodeNotFound, "user not found")
			return types.User{}, false
		}
	}

	return user, true
}

func (h *UserHandler) audit(r *http.Request, actor types.User, action types.AuditAction, userID int, details map[string]any) {
	h.auditService.Record(r.Context(), types.AuditRecord{
		UserID:         &actor.ID,
		OrganizationID: actor.OrganizationID,
		Action:         action,
		Entity:         "user",
		EntityID:       &userID,
		Details:        details,
	})
}
