package server

import (
	"context"
	"errors"

	oauth "github.com/authgrid/oauth-core"
	"github.com/authgrid/oauth-core/events"
	"github.com/authgrid/oauth-core/security"
	"github.com/authgrid/oauth-core/storage"
)

// CreateAuthorizationCode issues a single-use code binding the client, user,
// redirect URI, scope, and optional PKCE challenge. The code expires ten
// minutes after issuance.
func (s *Server) CreateAuthorizationCode(ctx context.Context, clientID, userID, redirectURI, scope, codeChallenge, codeChallengeMethod string) (*oauth.AuthorizationResponse, error) {
	if userID == "" {
		return nil, oauth.ErrInvalidRequest("user_id is required")
	}
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !client.SupportsGrantType(oauth.GrantTypeAuthorizationCode) {
		return nil, oauth.ErrUnauthorizedClient("client is not authorized for the authorization_code grant")
	}
	if redirectURI == "" || !client.ValidateRedirectURI(redirectURI) {
		return nil, oauth.ErrInvalidRequest("redirect_uri is not registered for this client")
	}
	if codeChallenge != "" {
		switch codeChallengeMethod {
		case "", oauth.PKCEMethodPlain:
			codeChallengeMethod = oauth.PKCEMethodPlain
		case oauth.PKCEMethodS256:
		default:
			return nil, oauth.ErrInvalidRequest("unsupported code_challenge_method")
		}
	}

	code, err := security.GenerateAuthorizationCode()
	if err != nil {
		return nil, oauth.WrapServerError("failed to generate authorization code", err)
	}

	record := storage.NewAuthorizationCode(code, clientID, userID, redirectURI, scope, codeChallenge, codeChallengeMethod)
	if err := s.store.SaveAuthorizationCode(ctx, record); err != nil {
		return nil, oauth.WrapServerError("failed to save authorization code", err)
	}

	s.logger.Info("Authorization code issued",
		"client_id", clientID,
		"user_id", userID,
		"pkce", codeChallenge != "")
	s.metrics.RecordCodeIssued(ctx)
	s.emit(events.New(events.EventAuthorizationCodeCreated, events.SeverityInfo, userID, clientID).
		WithMetadata("scope", scope).
		WithMetadata("redirect_uri", redirectURI))

	return &oauth.AuthorizationResponse{Code: code}, nil
}

// ValidateAuthorizationCode checks every binding on the code and consumes it
// atomically. At most one concurrent caller per code ever gets a non-nil
// record back; all others fail as if the code were already used.
func (s *Server) ValidateAuthorizationCode(ctx context.Context, code, clientID, redirectURI, codeVerifier string) (*storage.AuthorizationCode, error) {
	if code == "" {
		return nil, oauth.ErrInvalidRequest("code is required")
	}

	record, err := s.store.GetAuthorizationCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, oauth.ErrInvalidGrant("authorization code not found")
		}
		return nil, oauth.WrapServerError("failed to load authorization code", err)
	}

	if !record.IsValid() {
		if record.Used {
			s.logger.Warn("Authorization code replay detected",
				"client_id", record.ClientID,
				"user_id", record.UserID)
			s.metrics.RecordCodeReuse(ctx)
		}
		s.emit(events.New(events.EventAuthorizationCodeExpired, events.SeverityWarning, record.UserID, record.ClientID))
		return nil, oauth.ErrInvalidGrant("authorization code expired or used")
	}
	if record.ClientID != clientID {
		return nil, oauth.ErrInvalidGrant("authorization code client mismatch")
	}
	if record.RedirectURI != redirectURI {
		return nil, oauth.ErrInvalidGrant("authorization code redirect mismatch")
	}

	if record.CodeChallenge != "" {
		if codeVerifier == "" {
			return nil, oauth.ErrInvalidGrant("code verifier required")
		}
		method := record.CodeChallengeMethod
		if method == "" {
			method = oauth.PKCEMethodPlain
		}
		if !security.VerifyPKCE(record.CodeChallenge, codeVerifier, method) {
			s.metrics.RecordPKCEFailure(ctx)
			return nil, oauth.ErrInvalidGrant("invalid code verifier")
		}
	}

	// The store call is the linearization point for single use: concurrent
	// exchanges of the same code race here and exactly one wins.
	if err := s.store.MarkAuthorizationCodeUsed(ctx, code); err != nil {
		if errors.Is(err, storage.ErrAlreadyUsed) {
			s.metrics.RecordCodeReuse(ctx)
			return nil, oauth.ErrInvalidGrant("authorization code expired or used")
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, oauth.ErrInvalidGrant("authorization code not found")
		}
		return nil, oauth.WrapServerError("failed to consume authorization code", err)
	}
	record.Used = true

	s.metrics.RecordCodeExchanged(ctx)
	s.emit(events.New(events.EventAuthorizationCodeValidated, events.SeverityInfo, record.UserID, record.ClientID))

	return record, nil
}
