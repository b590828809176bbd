package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchdesk/console/internal/services"
	"github.com/watchdesk/console/internal/store"
	"github.com/watchdesk/console/types"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]types.User{}, nextID: 1}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, organizationID *int) ([]types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []types.User
	for _, user := range r.users {
		if organizationID != nil {
			if user.OrganizationID == nil || *user.OrganizationID != *organizationID {
				continue
			}
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *fakeUserRepo) ListExecutives(ctx context.Context, organizationID *int) ([]types.Executive, error) {
	users, _ := r.List(ctx, organizationID)
	var executives []types.Executive
	for _, user := range users {
		if user.Role == types.RoleOrgAdmin {
			executives = append(executives, types.Executive{User: user})
		}
	}
	return executives, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) TouchLastLogin(ctx context.Context, id int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.LastLoginAt = &at
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	records []types.AuditRecord
}

func (r *fakeAuditRepo) List(ctx context.Context, filter types.AuditFilter) ([]types.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.AuditRecord
	for _, record := range r.records {
		if filter.OrganizationID != nil {
			if record.OrganizationID == nil || *record.OrganizationID != *filter.OrganizationID {
				continue
			}
		}
		out = append(out, record)
	}
	return out, nil
}

func (r *fakeAuditRepo) ListBefore(ctx context.Context, cutoff time.Time) ([]types.AuditRecord, error) {
	return nil, nil
}

func (r *fakeAuditRepo) Get(ctx context.Context, id int) (types.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.ID == id {
			return record, nil
		}
	}
	return types.AuditRecord{}, store.ErrNotFound
}

func (r *fakeAuditRepo) Create(ctx context.Context, record types.AuditRecord) (types.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = len(r.records) + 1
	record.CreatedAt = time.Now()
	r.records = append(r.records, record)
	return record, nil
}

func (r *fakeAuditRepo) actions() []types.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var actions []types.AuditAction
	for _, record := range r.records {
		actions = append(actions, record.Action)
	}
	return actions
}

type authTestEnv struct {
	router    *chi.Mux
	userRepo  *fakeUserRepo
	auditRepo *fakeAuditRepo
	users     *services.UserService
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()

	userRepo := newFakeUserRepo()
	auditRepo := &fakeAuditRepo{}
	userService := services.NewUserService(userRepo)
	auditService := services.NewAuditService(auditRepo, nil, nil)
	authHandler := NewAuthHandler(userService, auditService, nil, testSecret, "let-me-in")

	router := chi.NewRouter()
	router.Route("/api/auth", authHandler.AuthRouter)
	router.Group(func(r chi.Router) {
		r.Use(authHandler.RequireAuth, RequireUser(userService))
		r.With(RequireRole(types.RoleSuperAdmin)).Get("/api/admin-only", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return &authTestEnv{router: router, userRepo: userRepo, auditRepo: auditRepo, users: userService}
}

func (env *authTestEnv) seedUser(t *testing.T, email, password string, role types.Role, active bool) types.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := env.userRepo.Create(context.Background(), types.User{
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     active,
		PasswordHash: string(hashed),
	})
	require.NoError(t, err)
	return user
}

func (env *authTestEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterRejectsBadSecurityCode(t *testing.T) {
	env := newAuthTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName":    "Root",
		"lastName":     "Admin",
		"email":        "root@example.com",
		"password":     "password123",
		"securityCode": "wrong",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, CodeInvalidSecurityCode, body.Code)
	assert.Equal(t, "Invalid security code.", body.Error)
}

func TestRegisterCreatesSuperAdmin(t *testing.T) {
	env := newAuthTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName":    "Root",
		"lastName":     "Admin",
		"email":        "root@example.com",
		"password":     "password123",
		"securityCode": "let-me-in",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var parsed AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	assert.NotEmpty(t, parsed.AccessToken)
	assert.Equal(t, types.RoleSuperAdmin, parsed.User.Role)
	assert.True(t, parsed.User.IsActive)
	assert.Contains(t, env.auditRepo.actions(), types.AuditCreate)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	env := newAuthTestEnv(t)
	env.seedUser(t, "root@example.com", "password123", types.RoleSuperAdmin, true)

	rec := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName":    "Root",
		"lastName":     "Admin",
		"email":        "root@example.com",
		"password":     "password123",
		"securityCode": "let-me-in",
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeDuplicateAccount, decodeError(t, rec).Code)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newAuthTestEnv(t)
	env.seedUser(t, "user@example.com", "password123", types.RoleObserver, true)
	env.seedUser(t, "inactive@example.com", "password123", types.RoleObserver, false)

	cases := []struct {
		name  string
		email string
		pass  string
	}{
		{"unknown email", "nobody@example.com", "password123"},
		{"wrong password", "user@example.com", "wrong"},
		{"inactive account", "inactive@example.com", "password123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
				"email":    tc.email,
				"password": tc.pass,
			})
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, CodeInvalidCredentials, body.Code)
			assert.Equal(t, "invalid credentials", body.Error)
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	env := newAuthTestEnv(t)
	seeded := env.seedUser(t, "user@example.com", "password123", types.RoleObserver, true)

	rec := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "password123",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var parsed AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	assert.NotEmpty(t, parsed.AccessToken)
	assert.Equal(t, seeded.ID, parsed.User.ID)

	stored, err := env.users.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
	assert.Contains(t, env.auditRepo.actions(), types.AuditLogin)
}

func TestMeRoundTrip(t *testing.T) {
	env := newAuthTestEnv(t)
	seeded := env.seedUser(t, "user@example.com", "password123", types.RoleAuthorityUser, true)

	token, err := issueToken(seeded.ID, []byte(testSecret), time.Hour)
	require.NoError(t, err)

	rec := env.request(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user types.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, seeded.ID, user.ID)
	assert.Equal(t, types.RoleAuthorityUser, user.Role)
	assert.NotContains(t, rec.Body.String(), "passwordHash")
}

func TestMeRejectsBadTokens(t *testing.T) {
	env := newAuthTestEnv(t)
	seeded := env.seedUser(t, "user@example.com", "password123", types.RoleObserver, true)

	expired, err := issueToken(seeded.ID, []byte(testSecret), -time.Hour)
	require.NoError(t, err)
	wrongKey, err := issueToken(seeded.ID, []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"missing":   "",
		"garbage":   "not-a-jwt",
		"expired":   expired,
		"wrong key": wrongKey,
	} {
		t.Run(name, func(t *testing.T) {
			rec := env.request(t, http.MethodGet, "/api/auth/me", token, nil)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, CodeUnauthorized, decodeError(t, rec).Code)
		})
	}
}

func TestMeRejectsDeactivatedUser(t *testing.T) {
	env := newAuthTestEnv(t)
	seeded := env.seedUser(t, "user@example.com", "password123", types.RoleObserver, false)

	token, err := issueToken(seeded.ID, []byte(testSecret), time.Hour)
	require.NoError(t, err)

	rec := env.request(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleForbidsOutsiders(t *testing.T) {
	env := newAuthTestEnv(t)
	observer := env.seedUser(t, "obs@example.com", "password123", types.RoleObserver, true)
	admin := env.seedUser(t, "root@example.com", "password123", types.RoleSuperAdmin, true)

	observerToken, err := issueToken(observer.ID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	adminToken, err := issueToken(admin.ID, []byte(testSecret), time.Hour)
	require.NoError(t, err)

	rec := env.request(t, http.MethodGet, "/api/admin-only", observerToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeForbidden, decodeError(t, rec).Code)

	rec = env.request(t, http.MethodGet, "/api/admin-only", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
