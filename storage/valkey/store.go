// Package valkey provides a Valkey-backed implementation of the persistence
// gateway for production deployments where state must survive restarts and
// be shared across instances.
package valkey

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	valkeygo "github.com/valkey-io/valkey-go"

	"github.com/authgrid/oauth-core/storage"
)

const (
	// DefaultKeyPrefix is the default prefix for all Valkey keys
	DefaultKeyPrefix = "oauth:"

	// connectionVerifyTimeout is the timeout for initial connection verification
	connectionVerifyTimeout = 5 * time.Second

	// codeRetention is how long authorization code records are kept. It
	// exceeds the 10-minute code lifetime so that a recently expired code
	// still resolves to an "expired or used" error instead of "not found".
	codeRetention = 24 * time.Hour
)

// Config holds configuration for the Valkey storage backend.
type Config struct {
	// Address is the Valkey server address (required), e.g. "localhost:6379"
	Address string

	// Password is the optional password for authentication
	Password string

	// DB is the optional database number (default 0)
	DB int

	// KeyPrefix is the prefix for all keys (default "oauth:")
	KeyPrefix string

	// TLS is the optional TLS configuration for encrypted connections
	TLS *tls.Config

	// Logger is the optional structured logger (default: slog.Default())
	Logger *slog.Logger
}

// Store is a Valkey-backed implementation of all gateway interfaces.
type Store struct {
	client valkeygo.Client
	prefix string
	logger *slog.Logger
}

// Compile-time interface check
var _ storage.Store = (*Store)(nil)

// New creates a Valkey-backed store and verifies connectivity.
func New(cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("valkey address is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := valkeygo.NewClient(valkeygo.ClientOption{
		InitAddress: []string{cfg.Address},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
		TLSConfig:   cfg.TLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionVerifyTimeout)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", cfg.Address, err)
	}

	cfg.Logger.Info("Connected to valkey storage backend", "address", cfg.Address, "prefix", cfg.KeyPrefix)

	return &Store{
		client: client,
		prefix: cfg.KeyPrefix,
		logger: cfg.Logger,
	}, nil
}

// Close releases the underlying Valkey connection.
func (s *Store) Close() {
	s.client.Close()
}

func (s *Store) clientKey(clientID string) string {
	return s.prefix + "client:" + clientID
}

func (s *Store) codeKey(code string) string {
	return s.prefix + "code:" + code
}

func (s *Store) codeUsedKey(code string) string {
	return s.prefix + "code:used:" + code
}

func (s *Store) tokenKey(accessToken string) string {
	return s.prefix + "token:" + accessToken
}

func (s *Store) refreshKey(refreshToken string) string {
	return s.prefix + "refresh:" + refreshToken
}
