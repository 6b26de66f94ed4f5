package server

import (
	"context"
	"errors"

	oauth "github.com/authgrid/oauth-core"
	"github.com/authgrid/oauth-core/events"
	"github.com/authgrid/oauth-core/storage"
)

// PasswordVerifier authenticates a resource owner for the password grant and
// returns the user id to mint tokens for. Implementations own the credential
// store and hashing; the error is reported to clients as invalid_grant
// without its text.
type PasswordVerifier func(ctx context.Context, username, password string) (string, error)

// TokenRequest is the parsed body of a token endpoint request. Which fields
// matter depends on GrantType; the rest are ignored.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string

	// authorization_code grant
	Code         string
	RedirectURI  string
	CodeVerifier string

	// password grant
	Username string
	Password string

	// refresh_token grant
	RefreshToken string

	// client_credentials and password grants
	Scope string
}

// Exchange dispatches a token request to the engine for its grant type.
// Every grant authenticates the client with its secret before anything else.
func (s *Server) Exchange(ctx context.Context, req *TokenRequest) (*oauth.TokenResponse, error) {
	if req == nil {
		return nil, oauth.ErrInvalidRequest("token request is required")
	}
	if req.GrantType == "" {
		return nil, oauth.ErrInvalidRequest("grant_type is required")
	}
	s.metrics.RecordGrantRequest(ctx, req.GrantType)

	switch req.GrantType {
	case oauth.GrantTypeAuthorizationCode:
		return s.exchangeAuthorizationCode(ctx, req)
	case oauth.GrantTypeClientCredentials:
		return s.exchangeClientCredentials(ctx, req)
	case oauth.GrantTypePassword:
		return s.exchangePassword(ctx, req)
	case oauth.GrantTypeRefreshToken:
		return s.exchangeRefreshToken(ctx, req)
	default:
		return nil, oauth.ErrUnsupportedGrantType("unsupported grant type: " + req.GrantType)
	}
}

func (s *Server) exchangeAuthorizationCode(ctx context.Context, req *TokenRequest) (*oauth.TokenResponse, error) {
	client, err := s.ValidateClientSecret(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}
	if !client.SupportsGrantType(oauth.GrantTypeAuthorizationCode) {
		return nil, oauth.ErrUnauthorizedClient("client is not authorized for the authorization_code grant")
	}

	code, err := s.ValidateAuthorizationCode(ctx, req.Code, req.ClientID, req.RedirectURI, req.CodeVerifier)
	if err != nil {
		return nil, err
	}

	resp, err := s.CreateToken(ctx, client.ClientID, code.UserID, code.Scope, true)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTokenIssued(ctx, oauth.GrantTypeAuthorizationCode)
	return resp, nil
}

func (s *Server) exchangeClientCredentials(ctx context.Context, req *TokenRequest) (*oauth.TokenResponse, error) {
	client, err := s.ValidateClientSecret(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}
	if !client.SupportsGrantType(oauth.GrantTypeClientCredentials) {
		return nil, oauth.ErrUnauthorizedClient("client is not authorized for the client_credentials grant")
	}

	scope := req.Scope
	if scope == "" {
		scope = client.Scope
	}

	// No refresh token: the client can always authenticate again directly.
	resp, err := s.CreateToken(ctx, client.ClientID, "", scope, false)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTokenIssued(ctx, oauth.GrantTypeClientCredentials)
	return resp, nil
}

func (s *Server) exchangePassword(ctx context.Context, req *TokenRequest) (*oauth.TokenResponse, error) {
	if s.verifier == nil {
		return nil, oauth.ErrInvalidRequest("password grant is not enabled")
	}

	client, err := s.ValidateClientSecret(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}
	if !client.SupportsGrantType(oauth.GrantTypePassword) {
		return nil, oauth.ErrUnauthorizedClient("client is not authorized for the password grant")
	}
	if req.Username == "" || req.Password == "" {
		return nil, oauth.ErrInvalidRequest("username and password are required")
	}

	userID, err := s.verifier(ctx, req.Username, req.Password)
	if err != nil {
		s.logger.Warn("Resource owner authentication failed",
			"client_id", client.ClientID,
			"username", req.Username)
		s.emit(events.New(events.EventUserAuthenticationFailed, events.SeverityWarning, req.Username, client.ClientID).
			WithError("invalid resource owner credentials"))
		return nil, oauth.ErrInvalidGrant("invalid resource owner credentials")
	}
	s.emit(events.New(events.EventUserAuthenticated, events.SeverityInfo, userID, client.ClientID))

	scope := req.Scope
	if scope == "" {
		scope = client.Scope
	}

	resp, err := s.CreateToken(ctx, client.ClientID, userID, scope, true)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTokenIssued(ctx, oauth.GrantTypePassword)
	return resp, nil
}

func (s *Server) exchangeRefreshToken(ctx context.Context, req *TokenRequest) (*oauth.TokenResponse, error) {
	client, err := s.ValidateClientSecret(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}
	if !client.SupportsGrantType(oauth.GrantTypeRefreshToken) {
		return nil, oauth.ErrUnauthorizedClient("client is not authorized for the refresh_token grant")
	}
	if req.RefreshToken == "" {
		return nil, oauth.ErrInvalidRequest("refresh_token is required")
	}

	record, err := s.store.GetTokenByRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, oauth.ErrInvalidGrant("token not found")
		}
		return nil, oauth.WrapServerError("failed to load token", err)
	}
	if record.Revoked {
		return nil, oauth.ErrInvalidGrant("token expired or revoked")
	}
	if record.ClientID != client.ClientID {
		return nil, oauth.ErrInvalidGrant("refresh token client mismatch")
	}
	// The refresh token's own validity window outlives the access token's;
	// only the signed refresh claims carry it.
	if _, err := s.codec.Decode(req.RefreshToken); err != nil {
		return nil, oauth.ErrInvalidGrant("token expired or revoked")
	}

	// Rotation: the old pair dies with the exchange, so a leaked refresh
	// token stops working the moment its holder or the owner uses it.
	if err := s.store.RevokeToken(ctx, req.RefreshToken); err != nil {
		return nil, oauth.WrapServerError("failed to rotate token", err)
	}
	s.emit(events.New(events.EventTokenRevoked, events.SeverityInfo, record.UserID, record.ClientID).
		WithMetadata("reason", "refresh_rotation"))

	resp, err := s.CreateToken(ctx, client.ClientID, record.UserID, record.Scope, true)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTokenIssued(ctx, oauth.GrantTypeRefreshToken)
	return resp, nil
}
