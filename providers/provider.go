// Package providers federates resource owner authentication to upstream
// identity providers (Google, GitHub, Microsoft). The embedding application
// drives the redirect flow with these and then asks the core to issue its
// own authorization code for the authenticated user.
package providers

import (
	"context"

	"golang.org/x/oauth2"
)

// Provider is an upstream identity provider used for social login.
type Provider interface {
	// Name returns the provider name (e.g., "google", "github")
	Name() string

	// AuthorizationURL generates the URL to redirect the user to
	AuthorizationURL(state string) string

	// Exchange trades the provider's authorization code for its tokens
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchUserInfo resolves the authenticated user's identity
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error)
}

// UserInfo is the provider-agnostic identity of an authenticated user.
type UserInfo struct {
	// ID is the provider-scoped unique user identifier
	ID string

	// Email is the user's email address, if the provider shares it
	Email string

	// Name is the user's display name
	Name string
}
