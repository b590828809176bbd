package console

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchdesk/console/internal/console/api"
	"github.com/watchdesk/console/internal/console/session"
	"github.com/watchdesk/console/types"
)

func newViewsTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-valid" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized", "code": "unauthorized"})
			return
		}
		_ = json.NewEncoder(w).Encode(types.User{
			ID: 3, FirstName: "Olive", LastName: "Ops",
			Email: "olive@example.com", Role: types.RoleObserver, IsActive: true,
		})
	})
	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]types.Alert{
			{ID: 1, Title: "port scan", Severity: types.SeverityHigh, Status: types.AlertNew},
			{ID: 2, Title: "old incident", Severity: types.SeverityLow, Status: types.AlertResolved},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newViewsTestConsole(t *testing.T, serverURL string) (*session.Store, *api.Client, *session.MemoryStorage) {
	t.Helper()

	storage := session.NewMemoryStorage()
	client := api.NewClient(serverURL, api.WithTokenSource(func() (string, bool) {
		token, ok, err := storage.Load()
		if err != nil {
			return "", false
		}
		return token, ok
	}))
	return session.NewStore(storage, client), client, storage
}

func TestOpenAnonymousPrivateViewRedirectsToLogin(t *testing.T) {
	server := newViewsTestServer(t)
	store, client, _ := newViewsTestConsole(t, server.URL)

	var out bytes.Buffer
	err := Open(t.Context(), store, client, "alerts", &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "redirecting to login")
	assert.Contains(t, out.String(), "console login")
	assert.NotContains(t, out.String(), "port scan", "the denied view must not render")
}

func TestOpenAuthenticatedPublicViewRedirectsToDashboard(t *testing.T) {
	server := newViewsTestServer(t)
	store, client, storage := newViewsTestConsole(t, server.URL)
	require.NoError(t, storage.Save("tok-valid"))

	var out bytes.Buffer
	err := Open(t.Context(), store, client, "login", &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "redirecting to dashboard")
	assert.Contains(t, out.String(), "signed in as Olive Ops (observer)")
	assert.Contains(t, out.String(), "2 total, 1 open")
}

func TestOpenDeniedRoleRedirectsToDashboard(t *testing.T) {
	server := newViewsTestServer(t)
	store, client, storage := newViewsTestConsole(t, server.URL)
	require.NoError(t, storage.Save("tok-valid"))

	// Observer opening the super_admin-only organizations view.
	var out bytes.Buffer
	err := Open(t.Context(), store, client, "organizations", &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "redirecting to dashboard")
}

func TestOpenAllowedViewRenders(t *testing.T) {
	server := newViewsTestServer(t)
	store, client, storage := newViewsTestConsole(t, server.URL)
	require.NoError(t, storage.Save("tok-valid"))

	var out bytes.Buffer
	err := Open(t.Context(), store, client, "alerts", &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "port scan")
	assert.NotContains(t, out.String(), "redirecting")
}

func TestOpenRejectedTokenBouncesToLogin(t *testing.T) {
	server := newViewsTestServer(t)
	store, client, storage := newViewsTestConsole(t, server.URL)
	require.NoError(t, storage.Save("tok-expired"))

	// Initialize clears the rejected token, so the guard sees a plain
	// anonymous session and redirects instead of blanking the view.
	var out bytes.Buffer
	err := Open(t.Context(), store, client, "alerts", &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "redirecting to login")
}

func TestOpenUnknownView(t *testing.T) {
	server := newViewsTestServer(t)
	store, client, _ := newViewsTestConsole(t, server.URL)

	var out bytes.Buffer
	err := Open(t.Context(), store, client, "nonsense", &out)
	assert.Error(t, err)
}

func TestRegistryAllowLists(t *testing.T) {
	organizations, ok := Lookup("organizations")
	require.True(t, ok)
	assert.Equal(t, []types.Role{types.RoleSuperAdmin}, organizations.AllowedRoles)

	users, ok := Lookup("users")
	require.True(t, ok)
	assert.Equal(t, []types.Role{types.RoleSuperAdmin, types.RoleOrgAdmin}, users.AllowedRoles)

	login, ok := Lookup("login")
	require.True(t, ok)
	assert.True(t, login.Public)

	dashboard, ok := Lookup("dashboard")
	require.True(t, ok)
	assert.Len(t, dashboard.AllowedRoles, 4)
}
