package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/watchdesk/console/internal/ratelimit"
	"github.com/watchdesk/console/internal/services"
	"github.com/watchdesk/console/internal/store"
	"github.com/watchdesk/console/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL   = 24 * time.Hour
	minPasswordLength = 8
)

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	userService  *services.UserService
	auditService *services.AuditService
	limiter      *ratelimit.LoginLimiter
	secret       []byte
	tokenTTL     time.Duration
	securityCode string
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(
	userService *services.UserService,
	auditService *services.AuditService,
	limiter *ratelimit.LoginLimiter,
	jwtSecret string,
	securityCode string,
) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		auditService: auditService,
		limiter:      limiter,
		secret:       []byte(jwtSecret),
		tokenTTL:     defaultTokenTTL,
		securityCode: securityCode,
	}
}

// AuthRouter registers auth routes on the given router.
func (h *AuthHandler) AuthRouter(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.With(h.RequireAuth).Get("/me", h.Me)
}

// RequireAuth enforces JWT authentication and injects the subject into context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return requireAuth(h.secret)(next)
}

// RequireAuth constructs auth middleware for other routers.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return requireAuth([]byte(jwtSecret))
}

func requireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
				return
			}

			subject, err := parseTokenSubject(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser loads the authenticated user into context. Unknown or
// deactivated accounts are rejected even when their token is still valid.
func RequireUser(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := userIDFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
				return
			}

			user, err := userService.GetByID(r.Context(), userID)
			if err != nil || !user.IsActive {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route on a role allow-list. Must run after RequireUser.
func RequireRole(allowed ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := currentUser(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
				return
			}
			if !user.Role.In(allowed) {
				writeError(w, http.StatusForbidden, CodeForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Register creates the bootstrap super_admin account and returns a JWT.
// It is gated by the configured security code; this is how the first (and
// any further) platform operator gets onto a fresh deployment.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
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

	if h.securityCode == "" || req.SecurityCode != h.securityCode {
		writeError(w, http.StatusBadRequest, CodeInvalidSecurityCode, "Invalid security code.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to create user")
		return
	}

	user, err := h.userService.Create(r.Context(), types.User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         types.RoleSuperAdmin,
		IsActive:     true,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, CodeDuplicateAccount, "account already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to create user")
		return
	}

	token, err := issueToken(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to create token")
		return
	}

	h.auditService.Record(r.Context(), types.AuditRecord{
		UserID:   &user.ID,
		Action:   types.AuditCreate,
		Entity:   "user",
		EntityID: &user.ID,
		Details:  map[string]any{"bootstrap": true},
	})

	writeJSON(w, http.StatusCreated, AuthResponse{AccessToken: token, User: user})
}

// Login verifies credentials and returns a JWT. Bad email and bad password
// are indistinguishable in the response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "missing credentials")
		return
	}

	if h.limiter.Blocked(r.Context(), req.Email) {
		writeError(w, http.StatusTooManyRequests, CodeRateLimited, "too many failed attempts")
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.rejectLogin(w, r, req.Email)
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to authenticate")
		return
	}

	if !user.IsActive {
		h.rejectLogin(w, r, req.Email)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.rejectLogin(w, r, req.Email)
		return
	}

	token, err := issueToken(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to create token")
		return
	}

	h.limiter.Reset(r.Context(), req.Email)
	_ = h.userService.RecordLogin(r.Context(), user.ID)

	h.auditService.Record(r.Context(), types.AuditRecord{
		UserID:         &user.ID,
		OrganizationID: user.OrganizationID,
		Action:         types.AuditLogin,
		Entity:         "user",
		EntityID:       &user.ID,
	})

	writeJSON(w, http.StatusOK, AuthResponse{AccessToken: token, User: user})
}

func (h *AuthHandler) rejectLogin(w http.ResponseWriter, r *http.Request, email string) {
	h.limiter.RecordFailure(r.Context(), email)
	writeError(w, http.StatusUnauthorized, CodeInvalidCredentials, "invalid credentials")
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil || !user.IsActive {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type RegisterRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	SecurityCode string `json:"securityCode"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the payload for successful login and registration.
type AuthResponse struct {
	AccessToken string     `json:"accessToken"`
	User        types.User `json:"user"`
}

func issueToken(userID int, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
