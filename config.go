// Package oauth provides the core of an OAuth 2.0 authorization server:
// authorization code issuance and exchange with PKCE binding, JWT-backed
// access and refresh tokens, client registration with constant-time secret
// verification, and an event pipeline for security-relevant state
// transitions. HTTP wiring, session handling, and identity federation are
// intentionally left to the embedding application.
package oauth

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultIssuer identifies this server in token claims when none is configured
	DefaultIssuer = "oauth-core"

	// DefaultAccessTokenLifetime is the access token validity window
	DefaultAccessTokenLifetime = time.Hour

	// DefaultRefreshTokenLifetime is the refresh token validity window (30 days)
	DefaultRefreshTokenLifetime = 30 * 24 * time.Hour

	// MinJWTSecretLength is the minimum signing secret length accepted for
	// production use. Shorter secrets make HS256 brute-forceable.
	MinJWTSecretLength = 32
)

// Config holds the process-wide immutable configuration for the server core.
// It is assembled once at startup and injected into constructors; engines
// never read ambient global state.
type Config struct {
	// Issuer is the issuer identifier placed into token claims (required)
	Issuer string

	// JWTSecret is the HMAC signing secret for access and refresh tokens (required)
	JWTSecret string

	// AccessTokenLifetime overrides the access token validity window.
	// Default: 1 hour.
	AccessTokenLifetime time.Duration

	// RefreshTokenLifetime overrides the refresh token validity window.
	// Default: 30 days.
	RefreshTokenLifetime time.Duration

	// Logger for structured logging (optional, uses slog.Default if not provided)
	Logger *slog.Logger
}

// ApplyDefaults fills unset fields and returns the config for chaining.
func (c *Config) ApplyDefaults() *Config {
	if c.Issuer == "" {
		c.Issuer = DefaultIssuer
	}
	if c.AccessTokenLifetime <= 0 {
		c.AccessTokenLifetime = DefaultAccessTokenLifetime
	}
	if c.RefreshTokenLifetime <= 0 {
		c.RefreshTokenLifetime = DefaultRefreshTokenLifetime
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Validate checks the configuration for production use.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT secret must be at least %d characters (got %d)", MinJWTSecretLength, len(c.JWTSecret))
	}
	if c.RefreshTokenLifetime > 0 && c.AccessTokenLifetime > 0 && c.RefreshTokenLifetime < c.AccessTokenLifetime {
		return fmt.Errorf("refresh token lifetime must not be shorter than access token lifetime")
	}
	return nil
}
