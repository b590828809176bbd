package api

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure modes callers branch on. Everything else
// surfaces as an *APIError.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrDuplicateAccount    = errors.New("account already exists")
	ErrInvalidSecurityCode = errors.New("invalid security code")
	ErrNotFound            = errors.New("not found")
	ErrRateLimited         = errors.New("too many attempts")
)

// APIError is a non-2xx response that maps to no sentinel.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("api: request failed (status %d)", e.StatusCode)
}

// errorBody is the server's error payload.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// sentinelFor maps a decoded error onto a sentinel. The code field is
// authoritative; message text and status are fallbacks for servers that
// omit codes.
func sentinelFor(status int, body errorBody) error {
	switch body.Code {
	case "invalid_credentials":
		return ErrInvalidCredentials
	case "unauthorized":
		return ErrUnauthorized
	case "forbidden":
		return ErrForbidden
	case "duplicate_account":
		return ErrDuplicateAccount
	case "invalid_security_code":
		return ErrInvalidSecurityCode
	case "not_found":
		return ErrNotFound
	case "rate_limited":
		return ErrRateLimited
	}

	if strings.EqualFold(strings.TrimSpace(body.Error), "Invalid security code.") {
		return ErrInvalidSecurityCode
	}

	switch status {
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimited
	}
	return nil
}
