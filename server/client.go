package server

import (
	"context"
	"errors"

	"github.com/google/uuid"

	oauth "github.com/authgrid/oauth-core"
	"github.com/authgrid/oauth-core/events"
	"github.com/authgrid/oauth-core/security"
	"github.com/authgrid/oauth-core/storage"
)

// RegisterClient creates a client registration and returns the stored record
// together with its generated credentials. The plaintext secret is returned
// exactly once; it is not recoverable from the store afterwards by any API
// this core exposes.
func (s *Server) RegisterClient(ctx context.Context, req *oauth.ClientRegistrationRequest) (*storage.Client, *oauth.ClientCredentials, error) {
	if req == nil {
		return nil, nil, oauth.ErrInvalidRequest("registration request is required")
	}
	if req.ClientName == "" {
		return nil, nil, oauth.ErrInvalidRequest("client_name is required")
	}

	if s.limiter != nil && !s.limiter.Allow() {
		s.metrics.RecordRateLimitExceeded(ctx)
		return nil, nil, oauth.ErrInvalidRequest("registration rate limit exceeded")
	}

	grantTypes := req.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = []string{oauth.GrantTypeAuthorizationCode}
	}
	for _, gt := range grantTypes {
		if !isSupportedGrantType(gt) {
			return nil, nil, oauth.ErrInvalidRequest("unsupported grant type: " + gt)
		}
	}
	// Redirect-based flows need at least one registered URI to validate
	// against at authorization time.
	if len(req.RedirectURIs) == 0 && containsGrantType(grantTypes, oauth.GrantTypeAuthorizationCode) {
		return nil, nil, oauth.ErrInvalidRequest("redirect_uris is required for the authorization_code grant")
	}

	clientID := uuid.NewString()
	clientSecret, err := security.GenerateSecret()
	if err != nil {
		return nil, nil, oauth.WrapServerError("failed to generate client secret", err)
	}

	client := storage.NewClient(clientID, clientSecret, req.RedirectURIs, grantTypes, req.Scope, req.ClientName)
	if err := s.store.SaveClient(ctx, client); err != nil {
		return nil, nil, oauth.WrapServerError("failed to save client", err)
	}

	s.logger.Info("Client registered",
		"client_id", clientID,
		"client_name", req.ClientName,
		"grant_types", grantTypes)
	s.metrics.RecordClientRegistered(ctx)
	s.emit(events.New(events.EventClientRegistered, events.SeverityInfo, "", clientID).
		WithMetadata("client_name", req.ClientName))

	return client, &oauth.ClientCredentials{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, nil
}

// GetClient retrieves a client registration by client id.
func (s *Server) GetClient(ctx context.Context, clientID string) (*storage.Client, error) {
	if clientID == "" {
		return nil, oauth.ErrInvalidRequest("client_id is required")
	}
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, oauth.ErrInvalidClient("client not found")
		}
		return nil, oauth.WrapServerError("failed to load client", err)
	}
	return client, nil
}

// ValidateClientSecret authenticates a client by id and secret. The secret
// comparison is constant-time; the returned error does not distinguish an
// unknown client from a wrong secret beyond the required lookup failure.
func (s *Server) ValidateClientSecret(ctx context.Context, clientID, clientSecret string) (*storage.Client, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		s.metrics.RecordClientValidationFailed(ctx)
		return nil, err
	}

	if !security.ConstantTimeEquals(client.ClientSecret, clientSecret) {
		s.logger.Warn("Client authentication failed", "client_id", clientID)
		s.metrics.RecordClientValidationFailed(ctx)
		s.emit(events.New(events.EventClientValidated, events.SeverityWarning, "", clientID).
			WithMetadata("success", "false"))
		return nil, oauth.ErrInvalidClient("invalid client credentials")
	}

	s.emit(events.New(events.EventClientValidated, events.SeverityInfo, "", clientID).
		WithMetadata("success", "true"))
	return client, nil
}

func isSupportedGrantType(grantType string) bool {
	switch grantType {
	case oauth.GrantTypeAuthorizationCode,
		oauth.GrantTypeClientCredentials,
		oauth.GrantTypePassword,
		oauth.GrantTypeRefreshToken:
		return true
	default:
		return false
	}
}

func containsGrantType(grantTypes []string, grantType string) bool {
	for _, gt := range grantTypes {
		if gt == grantType {
			return true
		}
	}
	return false
}
