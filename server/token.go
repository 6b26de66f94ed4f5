package server

import (
	"context"
	"errors"
	"strconv"
	"strings"

	oauth "github.com/authgrid/oauth-core"
	"github.com/authgrid/oauth-core/events"
	"github.com/authgrid/oauth-core/storage"
)

// CreateToken issues an access token, and a refresh token when asked, for
// the subject. For the client-credentials grant userID is empty and the
// client itself is the subject of the signed claims.
func (s *Server) CreateToken(ctx context.Context, clientID, userID, scope string, includeRefresh bool) (*oauth.TokenResponse, error) {
	if clientID == "" {
		return nil, oauth.ErrInvalidRequest("client_id is required")
	}

	subject := userID
	if subject == "" {
		subject = clientID
	}

	accessClaims := s.codec.NewClaims(subject, clientID, scope, s.config.AccessTokenLifetime)
	accessToken, err := s.codec.Encode(accessClaims)
	if err != nil {
		return nil, oauth.WrapServerError("failed to sign access token", err)
	}

	var refreshToken string
	if includeRefresh {
		refreshClaims := s.codec.NewClaims(subject, clientID, scope, s.config.RefreshTokenLifetime)
		refreshToken, err = s.codec.Encode(refreshClaims)
		if err != nil {
			return nil, oauth.WrapServerError("failed to sign refresh token", err)
		}
	}

	expiresIn := int(s.config.AccessTokenLifetime.Seconds())
	record := storage.NewToken(accessToken, refreshToken, clientID, userID, scope, expiresIn)
	if err := s.store.SaveToken(ctx, record); err != nil {
		return nil, oauth.WrapServerError("failed to save token", err)
	}

	s.logger.Info("Token issued",
		"client_id", clientID,
		"user_id", userID,
		"expires_in", expiresIn,
		"refresh", includeRefresh)
	s.emit(events.New(events.EventTokenCreated, events.SeverityInfo, userID, clientID).
		WithMetadata("scope", scope).
		WithMetadata("refresh", strconv.FormatBool(includeRefresh)))

	return &oauth.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    oauth.TokenTypeBearer,
		ExpiresIn:    expiresIn,
		Scope:        scope,
	}, nil
}

// ValidateToken checks an access token's record and signature and returns
// the stored record. The input may carry a "Bearer " prefix in any casing,
// as pulled straight from an Authorization header.
func (s *Server) ValidateToken(ctx context.Context, tokenValue string) (*storage.Token, error) {
	tokenValue = NormalizeBearerToken(tokenValue)
	if tokenValue == "" {
		return nil, oauth.ErrInvalidRequest("token is required")
	}

	record, err := s.store.GetTokenByAccessToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.metrics.RecordTokenValidation(ctx, false)
			return nil, oauth.ErrInvalidGrant("token not found")
		}
		return nil, oauth.WrapServerError("failed to load token", err)
	}

	if !record.IsValid() {
		s.metrics.RecordTokenValidation(ctx, false)
		s.emit(events.New(events.EventTokenExpired, events.SeverityWarning, record.UserID, record.ClientID))
		return nil, oauth.ErrInvalidGrant("token expired or revoked")
	}

	// The record is live; the signature check catches a store entry that
	// was written with a different signing secret. The client-facing error
	// stays indistinguishable from expiry, but the log names the real cause.
	if _, err := s.codec.Decode(tokenValue); err != nil {
		s.logger.Warn("Token signature rejected",
			"client_id", record.ClientID,
			"user_id", record.UserID,
			"error", err)
		s.metrics.RecordTokenValidation(ctx, false)
		return nil, oauth.ErrInvalidGrant("token expired or revoked")
	}

	s.metrics.RecordTokenValidation(ctx, true)
	s.emit(events.New(events.EventTokenValidated, events.SeverityInfo, record.UserID, record.ClientID))
	return record, nil
}

// RevokeToken revokes the token pair whose access or refresh token matches
// the value. Idempotent per RFC 7009: revoking an unknown or already revoked
// token succeeds silently.
func (s *Server) RevokeToken(ctx context.Context, tokenValue string) error {
	tokenValue = NormalizeBearerToken(tokenValue)
	if tokenValue == "" {
		return oauth.ErrInvalidRequest("token is required")
	}

	record, err := s.lookupToken(ctx, tokenValue)
	if err != nil {
		return err
	}
	if record == nil || record.Revoked {
		return nil
	}

	if err := s.store.RevokeToken(ctx, tokenValue); err != nil {
		return oauth.WrapServerError("failed to revoke token", err)
	}

	s.logger.Info("Token revoked",
		"client_id", record.ClientID,
		"user_id", record.UserID)
	s.metrics.RecordTokenRevoked(ctx)
	s.emit(events.New(events.EventTokenRevoked, events.SeverityInfo, record.UserID, record.ClientID))
	return nil
}

// Introspect reports token state per RFC 7662. Unknown, expired, and revoked
// tokens all yield active=false rather than an error; only backend failures
// surface as errors.
func (s *Server) Introspect(ctx context.Context, tokenValue string) (*oauth.IntrospectionResponse, error) {
	tokenValue = NormalizeBearerToken(tokenValue)
	if tokenValue == "" {
		return &oauth.IntrospectionResponse{Active: false}, nil
	}

	record, err := s.lookupToken(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	if record == nil || !record.IsValid() {
		s.metrics.RecordIntrospection(ctx, false)
		return &oauth.IntrospectionResponse{Active: false}, nil
	}

	resp := &oauth.IntrospectionResponse{
		Active:    true,
		Scope:     record.Scope,
		ClientID:  record.ClientID,
		Username:  record.UserID,
		TokenType: oauth.TokenTypeBearer,
		Exp:       record.ExpiresAt.Unix(),
		Iat:       record.CreatedAt.Unix(),
		Sub:       record.UserID,
	}
	// Claims refine the record when the value decodes; opaque lookups by
	// refresh token degrade to record-only data.
	if claims, err := s.codec.Decode(tokenValue); err == nil {
		resp.Exp = claims.ExpiresAt
		resp.Iat = claims.IssuedAt
		resp.Sub = claims.Subject
	}

	s.metrics.RecordIntrospection(ctx, true)
	return resp, nil
}

// lookupToken finds the record by access token first, then refresh token.
// Returns (nil, nil) when neither matches.
func (s *Server) lookupToken(ctx context.Context, tokenValue string) (*storage.Token, error) {
	record, err := s.store.GetTokenByAccessToken(ctx, tokenValue)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, oauth.WrapServerError("failed to load token", err)
	}

	record, err = s.store.GetTokenByRefreshToken(ctx, tokenValue)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, oauth.WrapServerError("failed to load token", err)
	}
	return nil, nil
}

// NormalizeBearerToken strips surrounding whitespace and a leading bearer
// scheme marker in any casing, so callers can pass an Authorization header
// value as-is.
func NormalizeBearerToken(tokenValue string) string {
	tokenValue = strings.TrimSpace(tokenValue)
	if len(tokenValue) > len(oauth.TokenTypeBearer) &&
		strings.EqualFold(tokenValue[:len(oauth.TokenTypeBearer)], oauth.TokenTypeBearer) &&
		tokenValue[len(oauth.TokenTypeBearer)] == ' ' {
		tokenValue = strings.TrimSpace(tokenValue[len(oauth.TokenTypeBearer)+1:])
	}
	return tokenValue
}
