// Package api is the console's HTTP client for the watchdesk server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/watchdesk/console/types"
)

const defaultTimeout = 15 * time.Second

// TokenSource supplies the bearer token for authenticated requests.
// ok is false when no token is available.
type TokenSource func() (token string, ok bool)

// Client talks to the watchdesk REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTokenSource wires bearer-token injection for authenticated calls.
func WithTokenSource(source TokenSource) Option {
	return func(c *Client) {
		c.token = source
	}
}

// NewClient constructs a Client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthResult is the server's response to login and registration.
type AuthResult struct {
	AccessToken string     `json:"accessToken"`
	User        types.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token. Wrong email and wrong password
// both return ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password}, &result)
	return result, err
}

// RegisterParams are the fields for the bootstrap registration.
type RegisterParams struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	SecurityCode string `json:"securityCode"`
}

// Register creates the bootstrap super_admin account.
func (c *Client) Register(ctx context.Context, params RegisterParams) (AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register", params, &result)
	return result, err
}

// Me returns the identity behind the current token.
func (c *Client) Me(ctx context.Context) (types.User, error) {
	var user types.User
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user)
	return user, err
}

// Organizations lists all organizations.
func (c *Client) Organizations(ctx context.Context) ([]types.Organization, error) {
	var orgs []types.Organization
	err := c.do(ctx, http.MethodGet, "/api/organizations", nil, &orgs)
	return orgs, err
}

// Users lists the users visible to the caller.
func (c *Client) Users(ctx context.Context) ([]types.User, error) {
	var users []types.User
	err := c.do(ctx, http.MethodGet, "/api/users", nil, &users)
	return users, err
}

// Executives lists org_admin accounts with their organization names.
func (c *Client) Executives(ctx context.Context) ([]types.Executive, error) {
	var executives []types.Executive
	err := c.do(ctx, http.MethodGet, "/api/executives", nil, &executives)
	return executives, err
}

// Alerts lists the alerts visible to the caller.
func (c *Client) Alerts(ctx context.Context) ([]types.Alert, error) {
	var alerts []types.Alert
	err := c.do(ctx, http.MethodGet, "/api/alerts", nil, &alerts)
	return alerts, err
}

// Events lists the events visible to the caller.
func (c *Client) Events(ctx context.Context) ([]types.Event, error) {
	var events []types.Event
	err := c.do(ctx, http.MethodGet, "/api/events", nil, &events)
	return events, err
}

// AuditRecords lists the audit log visible to the caller.
func (c *Client) AuditRecords(ctx context.Context) ([]types.AuditRecord, error) {
	var records []types.AuditRecord
	err := c.do(ctx, http.MethodGet, "/api/audit", nil, &records)
	return records, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if token, ok := c.token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decoding response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)

	if err := sentinelFor(resp.StatusCode, body); err != nil {
		return err
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       body.Code,
		Message:    body.Error,
	}
}
