package oauth

// TokenTypeBearer is the only token type this server issues (RFC 6750).
const TokenTypeBearer = "Bearer"

// Supported grant type identifiers
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeClientCredentials = "client_credentials"
	GrantTypePassword          = "password"
	GrantTypeRefreshToken      = "refresh_token"
)

// PKCE code challenge methods (RFC 7636)
const (
	PKCEMethodPlain = "plain"
	PKCEMethodS256  = "S256"
)

// ErrorResponse represents an OAuth error response body
type ErrorResponse struct {
	// Error is the error code
	Error string `json:"error"`

	// ErrorDescription provides additional information
	ErrorDescription string `json:"error_description,omitempty"`

	// ErrorURI points to error documentation
	ErrorURI string `json:"error_uri,omitempty"`
}

// TokenResponse is the token endpoint success body (RFC 6749 Section 5.1)
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

// IntrospectionResponse is the token introspection body (RFC 7662)
type IntrospectionResponse struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	Sub       string `json:"sub,omitempty"`
}

// AuthorizationResponse carries the issued code back through the redirect
type AuthorizationResponse struct {
	Code  string `json:"code"`
	State string `json:"state,omitempty"`
}

// ClientRegistrationRequest is the input to client registration
type ClientRegistrationRequest struct {
	// ClientName is the human-readable name of the client
	ClientName string `json:"client_name"`

	// RedirectURIs is the array of redirection URIs for redirect-based flows
	RedirectURIs []string `json:"redirect_uris"`

	// GrantTypes is the array of OAuth 2.0 grant types the client will use
	GrantTypes []string `json:"grant_types"`

	// Scope is the space-separated default scope for the client
	Scope string `json:"scope"`
}

// ClientCredentials carries the generated credentials back to the caller.
// The secret is returned exactly once at registration and is not
// recoverable afterwards.
type ClientCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// AuthorizationServerMetadata represents OAuth 2.0 Authorization Server Metadata (RFC 8414)
type AuthorizationServerMetadata struct {
	// Issuer is the authorization server's issuer identifier URL
	Issuer string `json:"issuer"`

	// AuthorizationEndpoint is the URL of the authorization endpoint
	AuthorizationEndpoint string `json:"authorization_endpoint"`

	// TokenEndpoint is the URL of the token endpoint
	TokenEndpoint string `json:"token_endpoint"`

	// RegistrationEndpoint is the URL of the dynamic client registration endpoint (RFC 7591)
	RegistrationEndpoint string `json:"registration_endpoint,omitempty"`

	// ScopesSupported lists the OAuth scopes supported
	ScopesSupported []string `json:"scopes_supported,omitempty"`

	// ResponseTypesSupported lists the OAuth response types supported
	ResponseTypesSupported []string `json:"response_types_supported"`

	// GrantTypesSupported lists the OAuth grant types supported
	GrantTypesSupported []string `json:"grant_types_supported,omitempty"`

	// TokenEndpointAuthMethodsSupported lists the client authentication methods supported
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported,omitempty"`

	// CodeChallengeMethodsSupported lists the PKCE code challenge methods supported
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`

	// RevocationEndpoint is the URL of the token revocation endpoint (RFC 7009)
	RevocationEndpoint string `json:"revocation_endpoint,omitempty"`

	// IntrospectionEndpoint is the URL of the token introspection endpoint (RFC 7662)
	IntrospectionEndpoint string `json:"introspection_endpoint,omitempty"`
}

// NewAuthorizationServerMetadata builds the metadata document for this server.
// The endpoint paths mirror the ones the transport layer is expected to mount.
func NewAuthorizationServerMetadata(issuer string) *AuthorizationServerMetadata {
	return &AuthorizationServerMetadata{
		Issuer:                 issuer,
		AuthorizationEndpoint:  issuer + "/oauth/authorize",
		TokenEndpoint:          issuer + "/oauth/token",
		RegistrationEndpoint:   issuer + "/oauth/register",
		ResponseTypesSupported: []string{"code"},
		GrantTypesSupported: []string{
			GrantTypeAuthorizationCode,
			GrantTypeClientCredentials,
			GrantTypePassword,
			GrantTypeRefreshToken,
		},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_basic", "client_secret_post"},
		CodeChallengeMethodsSupported:     []string{PKCEMethodS256, PKCEMethodPlain},
		RevocationEndpoint:                issuer + "/oauth/revoke",
		IntrospectionEndpoint:             issuer + "/oauth/introspect",
	}
}
