package valkey

import (
	"context"
	"encoding/json"
	"fmt"

	valkeygo "github.com/valkey-io/valkey-go"

	"github.com/authgrid/oauth-core/storage"
)

// SaveClient inserts a client record. The SET NX enforces the unique
// constraint on the client id.
func (s *Store) SaveClient(ctx context.Context, client *storage.Client) error {
	data, err := json.Marshal(client)
	if err != nil {
		return fmt.Errorf("failed to marshal client: %w", err)
	}

	resp := s.client.Do(ctx, s.client.B().Set().Key(s.clientKey(client.ClientID)).Value(string(data)).Nx().Build())
	if err := resp.Error(); err != nil {
		if valkeygo.IsValkeyNil(err) {
			return fmt.Errorf("client %s: %w", client.ClientID, storage.ErrDuplicate)
		}
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

// GetClient retrieves a client by client id.
func (s *Store) GetClient(ctx context.Context, clientID string) (*storage.Client, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(s.clientKey(clientID)).Build()).ToString()
	if err != nil {
		if valkeygo.IsValkeyNil(err) {
			return nil, fmt.Errorf("client %s: %w", clientID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	var client storage.Client
	if err := json.Unmarshal([]byte(data), &client); err != nil {
		return nil, fmt.Errorf("failed to unmarshal client: %w", err)
	}
	return &client, nil
}
