// Package storage defines the persistence gateway contract for clients,
// authorization codes, and tokens, along with the data model shared by all
// backends. It supports in-memory and Valkey implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors returned by all gateway implementations.
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates an insert violated a uniqueness constraint
	ErrDuplicate = errors.New("duplicate record")

	// ErrAlreadyUsed indicates an authorization code was already consumed.
	// MarkAuthorizationCodeUsed returns this to the loser of a concurrent
	// exchange race; at most one caller ever observes success.
	ErrAlreadyUsed = errors.New("authorization code already used")
)

// AuthorizationCodeLifetime is the fixed validity window for authorization codes.
const AuthorizationCodeLifetime = 10 * time.Minute

// ClientStore manages OAuth client registrations.
// All methods accept context.Context for cancellation.
type ClientStore interface {
	// SaveClient inserts a client; fails with ErrDuplicate on a duplicate client id
	SaveClient(ctx context.Context, client *Client) error

	// GetClient retrieves a client by its client id, or ErrNotFound
	GetClient(ctx context.Context, clientID string) (*Client, error)
}

// AuthorizationCodeStore manages single-use authorization codes.
type AuthorizationCodeStore interface {
	// SaveAuthorizationCode inserts a code; fails with ErrDuplicate on a
	// duplicate code value (fail-safe against generator collisions)
	SaveAuthorizationCode(ctx context.Context, code *AuthorizationCode) error

	// GetAuthorizationCode retrieves a code by its opaque value, or ErrNotFound
	GetAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error)

	// MarkAuthorizationCodeUsed atomically flips the used flag. This is the
	// exclusive consumption gate: concurrent calls on the same code must
	// let at most one succeed; the rest receive ErrAlreadyUsed.
	MarkAuthorizationCodeUsed(ctx context.Context, code string) error
}

// TokenStore manages issued tokens.
type TokenStore interface {
	// SaveToken inserts a token; fails with ErrDuplicate on a duplicate
	// access token value
	SaveToken(ctx context.Context, token *Token) error

	// GetTokenByAccessToken retrieves a token by its access token value, or ErrNotFound
	GetTokenByAccessToken(ctx context.Context, accessToken string) (*Token, error)

	// GetTokenByRefreshToken retrieves a token by its refresh token value, or ErrNotFound
	GetTokenByRefreshToken(ctx context.Context, refreshToken string) (*Token, error)

	// RevokeToken sets revoked on the record whose access or refresh token
	// matches the value. Idempotent: unknown values are a silent no-op.
	RevokeToken(ctx context.Context, tokenValue string) error
}

// Store combines all gateway interfaces. Backends implement this; engines
// depend only on the narrow interfaces they use.
type Store interface {
	ClientStore
	AuthorizationCodeStore
	TokenStore
}

// Client is a registered OAuth2 client. The client id is globally unique
// and immutable after creation; the secret is never rotated by this core.
type Client struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	RedirectURIs []string  `json:"redirect_uris"`
	GrantTypes   []string  `json:"grant_types"`
	Scope        string    `json:"scope"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewClient builds a client record with fresh timestamps.
func NewClient(clientID, clientSecret string, redirectURIs, grantTypes []string, scope, name string) *Client {
	now := time.Now().UTC()
	return &Client{
		ID:           uuid.NewString(),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURIs: redirectURIs,
		GrantTypes:   grantTypes,
		Scope:        scope,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SupportsGrantType reports whether the client registered the grant type.
func (c *Client) SupportsGrantType(grantType string) bool {
	for _, gt := range c.GrantTypes {
		if gt == grantType {
			return true
		}
	}
	return false
}

// ValidateRedirectURI reports whether the URI is registered for the client.
func (c *Client) ValidateRedirectURI(redirectURI string) bool {
	for _, uri := range c.RedirectURIs {
		if uri == redirectURI {
			return true
		}
	}
	return false
}

// AuthorizationCode is a single-use grant artifact. A code is valid iff it
// is unused and unexpired; once consumed it is never valid again.
type AuthorizationCode struct {
	ID                  string    `json:"id"`
	Code                string    `json:"code"`
	ClientID            string    `json:"client_id"`
	UserID              string    `json:"user_id"`
	RedirectURI         string    `json:"redirect_uri"`
	Scope               string    `json:"scope"`
	CreatedAt           time.Time `json:"created_at"`
	ExpiresAt           time.Time `json:"expires_at"`
	Used                bool      `json:"used"`
	CodeChallenge       string    `json:"code_challenge,omitempty"`
	CodeChallengeMethod string    `json:"code_challenge_method,omitempty"`
}

// NewAuthorizationCode builds a code record expiring exactly
// AuthorizationCodeLifetime after creation.
func NewAuthorizationCode(code, clientID, userID, redirectURI, scope, codeChallenge, codeChallengeMethod string) *AuthorizationCode {
	now := time.Now().UTC()
	return &AuthorizationCode{
		ID:                  uuid.NewString(),
		Code:                code,
		ClientID:            clientID,
		UserID:              userID,
		RedirectURI:         redirectURI,
		Scope:               scope,
		CreatedAt:           now,
		ExpiresAt:           now.Add(AuthorizationCodeLifetime),
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
	}
}

// IsExpired reports whether the code is past its expiry timestamp.
func (ac *AuthorizationCode) IsExpired() bool {
	return time.Now().After(ac.ExpiresAt)
}

// IsValid reports whether the code may still be exchanged.
func (ac *AuthorizationCode) IsValid() bool {
	return !ac.Used && !ac.IsExpired()
}

// Token is an issued bearer credential. UserID is empty for the
// client-credentials grant, where the client itself is the subject.
type Token struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	Scope        string    `json:"scope"`
	ClientID     string    `json:"client_id"`
	UserID       string    `json:"user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	Revoked      bool      `json:"revoked"`
}

// NewToken builds a token record; expiresIn is the access token lifetime in
// seconds and determines the expiry timestamp.
func NewToken(accessToken, refreshToken, clientID, userID, scope string, expiresIn int) *Token {
	now := time.Now().UTC()
	return &Token{
		ID:           uuid.NewString(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
		Scope:        scope,
		ClientID:     clientID,
		UserID:       userID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Duration(expiresIn) * time.Second),
	}
}

// IsExpired reports whether the token is past its expiry timestamp.
func (t *Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsValid reports whether the token is neither revoked nor expired.
func (t *Token) IsValid() bool {
	return !t.Revoked && !t.IsExpired()
}
