// Package memory provides an in-memory implementation of the persistence
// gateway. It is suitable for development, testing, and single-instance
// deployments.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/authgrid/oauth-core/storage"
)

// DefaultCleanupInterval is how often expired authorization codes are purged.
const DefaultCleanupInterval = time.Minute

// Store is an in-memory implementation of all gateway interfaces.
type Store struct {
	mu sync.RWMutex

	clients map[string]*storage.Client            // client_id -> client
	codes   map[string]*storage.AuthorizationCode // code value -> code
	tokens  map[string]*storage.Token             // access token -> token
	refresh map[string]string                     // refresh token -> access token

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	logger          *slog.Logger
}

// Compile-time interface check
var _ storage.Store = (*Store)(nil)

// New creates a new in-memory store with the default cleanup interval.
func New() *Store {
	return NewWithInterval(DefaultCleanupInterval)
}

// NewWithInterval creates a new in-memory store with a custom cleanup
// interval. If cleanupInterval is zero or negative, the default is used.
func NewWithInterval(cleanupInterval time.Duration) *Store {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	s := &Store{
		clients:         make(map[string]*storage.Client),
		codes:           make(map[string]*storage.AuthorizationCode),
		tokens:          make(map[string]*storage.Token),
		refresh:         make(map[string]string),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
		logger:          slog.Default(),
	}

	go s.cleanupLoop()
	return s
}

// SetLogger replaces the store's logger. Call before concurrent use.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Close stops the background cleanup goroutine.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		close(s.stopCleanup)
	})
}

// ==================== ClientStore ====================

// SaveClient inserts a client, rejecting duplicate client ids.
func (s *Store) SaveClient(_ context.Context, client *storage.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[client.ClientID]; exists {
		return fmt.Errorf("client %s: %w", client.ClientID, storage.ErrDuplicate)
	}

	cp := *client
	s.clients[client.ClientID] = &cp
	return nil
}

// GetClient retrieves a client by client id.
func (s *Store) GetClient(_ context.Context, clientID string) (*storage.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client %s: %w", clientID, storage.ErrNotFound)
	}

	cp := *client
	return &cp, nil
}

// ==================== AuthorizationCodeStore ====================

// SaveAuthorizationCode inserts a code, rejecting duplicate code values.
func (s *Store) SaveAuthorizationCode(_ context.Context, code *storage.AuthorizationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[code.Code]; exists {
		return fmt.Errorf("authorization code: %w", storage.ErrDuplicate)
	}

	cp := *code
	s.codes[code.Code] = &cp
	return nil
}

// GetAuthorizationCode retrieves a code by its opaque value.
func (s *Store) GetAuthorizationCode(_ context.Context, code string) (*storage.AuthorizationCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ac, ok := s.codes[code]
	if !ok {
		return nil, fmt.Errorf("authorization code: %w", storage.ErrNotFound)
	}

	cp := *ac
	return &cp, nil
}

// MarkAuthorizationCodeUsed flips the used flag under the store lock.
// The check-and-set is the exclusive consumption gate: of two concurrent
// callers, exactly one observes the code unused.
func (s *Store) MarkAuthorizationCodeUsed(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ac, ok := s.codes[code]
	if !ok {
		return fmt.Errorf("authorization code: %w", storage.ErrNotFound)
	}
	if ac.Used {
		return storage.ErrAlreadyUsed
	}

	ac.Used = true
	return nil
}

// ==================== TokenStore ====================

// SaveToken inserts a token, rejecting duplicate access token values.
func (s *Store) SaveToken(_ context.Context, token *storage.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[token.AccessToken]; exists {
		return fmt.Errorf("token: %w", storage.ErrDuplicate)
	}

	cp := *token
	s.tokens[token.AccessToken] = &cp
	if token.RefreshToken != "" {
		s.refresh[token.RefreshToken] = token.AccessToken
	}
	return nil
}

// GetTokenByAccessToken retrieves a token by its access token value.
func (s *Store) GetTokenByAccessToken(_ context.Context, accessToken string) (*storage.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[accessToken]
	if !ok {
		return nil, fmt.Errorf("token: %w", storage.ErrNotFound)
	}

	cp := *token
	return &cp, nil
}

// GetTokenByRefreshToken retrieves a token by its refresh token value.
func (s *Store) GetTokenByRefreshToken(_ context.Context, refreshToken string) (*storage.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accessToken, ok := s.refresh[refreshToken]
	if !ok {
		return nil, fmt.Errorf("token: %w", storage.ErrNotFound)
	}
	token, ok := s.tokens[accessToken]
	if !ok {
		return nil, fmt.Errorf("token: %w", storage.ErrNotFound)
	}

	cp := *token
	return &cp, nil
}

// RevokeToken sets revoked on the record matching either token value.
// Revoking by refresh token revokes the whole record, access token included.
// Unknown values are a silent no-op per RFC 7009.
func (s *Store) RevokeToken(_ context.Context, tokenValue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accessToken := tokenValue
	if mapped, ok := s.refresh[tokenValue]; ok {
		accessToken = mapped
	}

	if token, ok := s.tokens[accessToken]; ok {
		token.Revoked = true
	}
	return nil
}

// ==================== Cleanup ====================

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupExpiredCodes()
		case <-s.stopCleanup:
			return
		}
	}
}

// cleanupExpiredCodes removes authorization codes past their expiry.
// Tokens are never deleted, only flagged, so they are left alone.
func (s *Store) cleanupExpiredCodes() {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for code, ac := range s.codes {
		if ac.IsExpired() {
			delete(s.codes, code)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("Cleaned up expired authorization codes", "removed", removed)
	}
}
