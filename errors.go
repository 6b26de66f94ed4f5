package oauth

import (
	"errors"
	"fmt"
	"net/http"
)

// OAuth error codes per RFC 6749 Section 5.2
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeUnauthorizedClient   = "unauthorized_client"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeInvalidScope         = "invalid_scope"
	ErrorCodeAccessDenied         = "access_denied"
	ErrorCodeServerError          = "server_error"
)

// OAuthError represents an OAuth 2.0 error response.
// Descriptions must never contain secret material (tokens, client secrets).
type OAuthError struct {
	Code        string // OAuth error code (e.g., "invalid_request", "invalid_grant")
	Description string // Human-readable error description
	Status      int    // HTTP status code the excluded transport layer should map to
}

// Error implements the error interface
func (e *OAuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewOAuthError creates a new OAuth error
func NewOAuthError(code, description string, status int) *OAuthError {
	return &OAuthError{
		Code:        code,
		Description: description,
		Status:      status,
	}
}

// Common OAuth errors as reusable constructors
var (
	// ErrInvalidRequest indicates the request is malformed or missing required parameters
	ErrInvalidRequest = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeInvalidRequest, desc, http.StatusBadRequest)
	}

	// ErrInvalidClient indicates client authentication failed
	ErrInvalidClient = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeInvalidClient, desc, http.StatusUnauthorized)
	}

	// ErrInvalidGrant indicates the authorization code or token is invalid, expired, or used
	ErrInvalidGrant = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeInvalidGrant, desc, http.StatusBadRequest)
	}

	// ErrUnauthorizedClient indicates the client is not authorized for the requested grant type
	ErrUnauthorizedClient = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeUnauthorizedClient, desc, http.StatusBadRequest)
	}

	// ErrUnsupportedGrantType indicates the grant type is not supported
	ErrUnsupportedGrantType = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeUnsupportedGrantType, desc, http.StatusBadRequest)
	}

	// ErrInvalidScope indicates the requested scope is invalid or unsupported
	ErrInvalidScope = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeInvalidScope, desc, http.StatusBadRequest)
	}

	// ErrAccessDenied indicates the resource owner or authorization server denied the request
	ErrAccessDenied = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeAccessDenied, desc, http.StatusForbidden)
	}

	// ErrServerError indicates an internal server error occurred
	ErrServerError = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeServerError, desc, http.StatusInternalServerError)
	}
)

// WrapServerError wraps an internal failure (persistence I/O, signing) into a
// server_error without leaking the underlying error text to protocol clients.
// The original error remains available via errors.Unwrap for logging.
func WrapServerError(desc string, err error) error {
	return &wrappedServerError{
		oauthErr: ErrServerError(desc),
		cause:    err,
	}
}

type wrappedServerError struct {
	oauthErr *OAuthError
	cause    error
}

func (e *wrappedServerError) Error() string {
	return e.oauthErr.Error()
}

func (e *wrappedServerError) Unwrap() error {
	return e.cause
}

// As lets errors.As surface the embedded *OAuthError from a wrapped server error.
func (e *wrappedServerError) As(target any) bool {
	if t, ok := target.(**OAuthError); ok {
		*t = e.oauthErr
		return true
	}
	return false
}

// AsOAuthError extracts an *OAuthError from an error chain.
// Returns nil if the error is not an OAuth error.
func AsOAuthError(err error) *OAuthError {
	var oe *OAuthError
	if errors.As(err, &oe) {
		return oe
	}
	return nil
}
