//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/watchdesk/console/config"
	"github.com/watchdesk/console/internal/db"
	"github.com/watchdesk/console/internal/server"
	"github.com/watchdesk/console/types"
)

const (
	serverPort   = 18080
	securityCode = "e2e-bootstrap-code"
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestConsoleLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	adminEmail := fmt.Sprintf("root_%d@example.com", time.Now().UnixNano())
	password := "testpass123!"

	token, err := registerSuperAdmin(t, baseURL, adminEmail, password)
	if err != nil {
		t.Fatalf("register super admin: %v", err)
	}

	org, err := createOrganization(t, baseURL, token, fmt.Sprintf("acme-%d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("create organization: %v", err)
	}
	if org.ID == 0 {
		t.Fatalf("expected organization ID to be set")
	}

	execEmail := fmt.Sprintf("exec_%d@example.com", time.Now().UnixNano())
	if err := createExecutive(t, baseURL, token, execEmail, password, org.ID); err != nil {
		t.Fatalf("create executive: %v", err)
	}

	execToken, err := login(t, baseURL, execEmail, password)
	if err != nil {
		t.Fatalf("login executive: %v", err)
	}

	alert, err := createAlert(t, baseURL, execToken, "suspicious login burst")
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}
	if alert.Severity != types.SeverityHigh {
		t.Fatalf("unexpected alert severity: %q", alert.Severity)
	}

	records, err := listAudit(t, baseURL, execToken)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(records) == 0 {
		t.Fatalf("expected audit records for the executive's organization")
	}
	for _, record := range records {
		if record.OrganizationID == nil || *record.OrganizationID != org.ID {
			t.Fatalf("audit record %d leaked across organizations", record.ID)
		}
	}

	// The executive must not see platform-level management surfaces.
	status, err := getStatus(t, baseURL, execToken, "/api/organizations")
	if err != nil {
		t.Fatalf("probe organizations: %v", err)
	}
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for executive on /api/organizations, got %d", status)
	}
}

type authResponse struct {
	AccessToken string     `json:"accessToken"`
	User        types.User `json:"user"`
}

func registerSuperAdmin(t *testing.T, baseURL, email, password string) (string, error) {
	t.Helper()

	payload := map[string]string{
		"firstName":    "Root",
		"lastName":     "Admin",
		"email":        email,
		"password":     password,
		"securityCode": securityCode,
	}
	var parsed authResponse
	if err := postJSON(baseURL+"/api/auth/register", "", payload, http.StatusCreated, &parsed); err != nil {
		return "", err
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("missing token in register response")
	}
	return parsed.AccessToken, nil
}

func login(t *testing.T, baseURL, email, password string) (string, error) {
	t.Helper()

	payload := map[string]string{"email": email, "password": password}
	var parsed authResponse
	if err := postJSON(baseURL+"/api/auth/login", "", payload, http.StatusOK, &parsed); err != nil {
		return "", err
	}
	return parsed.AccessToken, nil
}

func createOrganization(t *testing.T, baseURL, token, name string) (types.Organization, error) {
	t.Helper()

	payload := map[string]any{"name": name, "domain": name + ".example.com"}
	var org types.Organization
	if err := postJSON(baseURL+"/api/organizations", token, payload, http.StatusCreated, &org); err != nil {
		return types.Organization{}, err
	}
	return org, nil
}

func createExecutive(t *testing.T, baseURL, token, email, password string, orgID int) error {
	t.Helper()

	payload := map[string]any{
		"firstName":      "Exec",
		"lastName":       "User",
		"email":          email,
		"password":       password,
		"organizationId": orgID,
	}
	return postJSON(baseURL+"/api/executives", token, payload, http.StatusCreated, nil)
}

func createAlert(t *testing.T, baseURL, token, title string) (types.Alert, error) {
	t.Helper()

	payload := map[string]any{"title": title, "severity": "high"}
	var alert types.Alert
	if err := postJSON(baseURL+"/api/alerts", token, payload, http.StatusCreated, &alert); err != nil {
		return types.Alert{}, err
	}
	return alert, nil
}

func listAudit(t *testing.T, baseURL, token string) ([]types.AuditRecord, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/audit", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list audit status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var records []types.AuditRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func getStatus(t *testing.T, baseURL, token, path string) (int, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func postJSON(url, token string, payload any, wantStatus int, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("post %s status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.DSN(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, db.DSN(cfg))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("REGISTER_SECURITY_CODE", securityCode)
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "watchdesk")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "watchdesk_db")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("MQ_BACKEND", "memory")

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
