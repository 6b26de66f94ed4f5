package valkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	valkeygo "github.com/valkey-io/valkey-go"

	"github.com/authgrid/oauth-core/storage"
)

// SaveToken inserts a token record keyed by its access token value, plus a
// refresh-token mapping when present. Token records carry no TTL: tokens
// are never deleted by this core, only flagged revoked.
func (s *Store) SaveToken(ctx context.Context, token *storage.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	resp := s.client.Do(ctx, s.client.B().Set().Key(s.tokenKey(token.AccessToken)).Value(string(data)).Nx().Build())
	if err := resp.Error(); err != nil {
		if valkeygo.IsValkeyNil(err) {
			return fmt.Errorf("token: %w", storage.ErrDuplicate)
		}
		return fmt.Errorf("failed to save token: %w", err)
	}

	if token.RefreshToken != "" {
		refResp := s.client.Do(ctx, s.client.B().Set().Key(s.refreshKey(token.RefreshToken)).Value(token.AccessToken).Build())
		if err := refResp.Error(); err != nil {
			return fmt.Errorf("failed to save refresh token mapping: %w", err)
		}
	}
	return nil
}

// GetTokenByAccessToken retrieves a token by its access token value.
func (s *Store) GetTokenByAccessToken(ctx context.Context, accessToken string) (*storage.Token, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(s.tokenKey(accessToken)).Build()).ToString()
	if err != nil {
		if valkeygo.IsValkeyNil(err) {
			return nil, fmt.Errorf("token: %w", storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	var token storage.Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

// GetTokenByRefreshToken retrieves a token by its refresh token value.
func (s *Store) GetTokenByRefreshToken(ctx context.Context, refreshToken string) (*storage.Token, error) {
	accessToken, err := s.client.Do(ctx, s.client.B().Get().Key(s.refreshKey(refreshToken)).Build()).ToString()
	if err != nil {
		if valkeygo.IsValkeyNil(err) {
			return nil, fmt.Errorf("token: %w", storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve refresh token: %w", err)
	}
	return s.GetTokenByAccessToken(ctx, accessToken)
}

// RevokeToken sets revoked on the record matching either token value.
// Unknown values are a silent no-op per RFC 7009.
func (s *Store) RevokeToken(ctx context.Context, tokenValue string) error {
	accessToken := tokenValue
	mapped, err := s.client.Do(ctx, s.client.B().Get().Key(s.refreshKey(tokenValue)).Build()).ToString()
	if err == nil {
		accessToken = mapped
	} else if !valkeygo.IsValkeyNil(err) {
		return fmt.Errorf("failed to resolve token for revocation: %w", err)
	}

	token, err := s.GetTokenByAccessToken(ctx, accessToken)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}

	token.Revoked = true
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := s.client.Do(ctx, s.client.B().Set().Key(s.tokenKey(accessToken)).Value(string(data)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
