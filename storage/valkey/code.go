package valkey

import (
	"context"
	"encoding/json"
	"fmt"

	valkeygo "github.com/valkey-io/valkey-go"

	"github.com/authgrid/oauth-core/storage"
)

// SaveAuthorizationCode inserts a code record. The SET NX enforces the
// unique constraint on the code value as a fail-safe against generator
// collisions.
func (s *Store) SaveAuthorizationCode(ctx context.Context, code *storage.AuthorizationCode) error {
	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal authorization code: %w", err)
	}

	resp := s.client.Do(ctx, s.client.B().Set().Key(s.codeKey(code.Code)).Value(string(data)).Nx().Ex(codeRetention).Build())
	if err := resp.Error(); err != nil {
		if valkeygo.IsValkeyNil(err) {
			return fmt.Errorf("authorization code: %w", storage.ErrDuplicate)
		}
		return fmt.Errorf("failed to save authorization code: %w", err)
	}
	return nil
}

// GetAuthorizationCode retrieves a code by its opaque value. The used flag
// reflects the consumption guard key so readers observe consumption
// performed by MarkAuthorizationCodeUsed.
func (s *Store) GetAuthorizationCode(ctx context.Context, code string) (*storage.AuthorizationCode, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(s.codeKey(code)).Build()).ToString()
	if err != nil {
		if valkeygo.IsValkeyNil(err) {
			return nil, fmt.Errorf("authorization code: %w", storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	var ac storage.AuthorizationCode
	if err := json.Unmarshal([]byte(data), &ac); err != nil {
		return nil, fmt.Errorf("failed to unmarshal authorization code: %w", err)
	}

	if !ac.Used {
		used, err := s.client.Do(ctx, s.client.B().Exists().Key(s.codeUsedKey(code)).Build()).AsInt64()
		if err != nil {
			return nil, fmt.Errorf("failed to check authorization code state: %w", err)
		}
		ac.Used = used > 0
	}
	return &ac, nil
}

// MarkAuthorizationCodeUsed consumes the code. The SET NX on the guard key
// is the linearization point: of any number of concurrent callers exactly
// one wins the NX write and the rest receive ErrAlreadyUsed.
func (s *Store) MarkAuthorizationCodeUsed(ctx context.Context, code string) error {
	exists, err := s.client.Do(ctx, s.client.B().Exists().Key(s.codeKey(code)).Build()).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to check authorization code: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("authorization code: %w", storage.ErrNotFound)
	}

	resp := s.client.Do(ctx, s.client.B().Set().Key(s.codeUsedKey(code)).Value("1").Nx().Ex(codeRetention).Build())
	if err := resp.Error(); err != nil {
		if valkeygo.IsValkeyNil(err) {
			return storage.ErrAlreadyUsed
		}
		return fmt.Errorf("failed to mark authorization code used: %w", err)
	}
	return nil
}
