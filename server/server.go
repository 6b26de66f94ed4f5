// Package server implements the authorization server engines: client
// registration and authentication, authorization code issuance and exchange,
// and token lifecycle. Engines are stateless service objects; all state lives
// behind the storage gateway, so any number of Server instances can share one
// backend.
package server

import (
	"fmt"
	"log/slog"

	oauth "github.com/authgrid/oauth-core"
	"github.com/authgrid/oauth-core/events"
	"github.com/authgrid/oauth-core/instrumentation"
	"github.com/authgrid/oauth-core/jwt"
	"github.com/authgrid/oauth-core/security"
	"github.com/authgrid/oauth-core/storage"
)

// Server coordinates the OAuth engines over a storage backend. The zero
// value is not usable; construct with New.
type Server struct {
	store      storage.Store
	config     *oauth.Config
	codec      *jwt.Codec
	dispatcher *events.Dispatcher
	limiter    *security.RegistrationLimiter
	metrics    *instrumentation.Metrics
	verifier   PasswordVerifier
	logger     *slog.Logger
}

// New creates a server over the given store. The config is validated and
// defaulted; the dispatcher is optional (nil disables event emission).
func New(store storage.Store, config *oauth.Config, dispatcher *events.Dispatcher) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Server{
		store:      store,
		config:     config,
		codec:      jwt.New([]byte(config.JWTSecret), config.Issuer),
		dispatcher: dispatcher,
		logger:     config.Logger,
	}, nil
}

// SetRegistrationLimiter installs a throttle on RegisterClient. A nil
// limiter (the default) disables throttling.
func (s *Server) SetRegistrationLimiter(limiter *security.RegistrationLimiter) {
	s.limiter = limiter
}

// SetPasswordVerifier installs the resource owner credential check used by
// the password grant. With no verifier installed the password grant is
// rejected.
func (s *Server) SetPasswordVerifier(verifier PasswordVerifier) {
	s.verifier = verifier
}

// SetInstrumentation installs metric recording. A nil argument (the
// default) records nothing.
func (s *Server) SetInstrumentation(inst *instrumentation.Instrumentation) {
	if inst == nil {
		s.metrics = nil
		return
	}
	s.metrics = inst.Metrics()
}

// Metadata returns the RFC 8414 discovery document for this server.
func (s *Server) Metadata() *oauth.AuthorizationServerMetadata {
	return oauth.NewAuthorizationServerMetadata(s.config.Issuer)
}

// emit forwards an event to the dispatcher if one is installed.
func (s *Server) emit(event *events.AuthEvent) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Emit(event)
}
