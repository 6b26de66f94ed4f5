// Package events implements the distribution pipeline for security-relevant
// state transitions: immutable AuthEvent records, include/exclude filtering,
// and concurrent fan-out to pluggable sinks. Emission is fire-and-forget;
// sink failures never reach the engine that triggered the event.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType is the closed enumeration of emitted event types.
type EventType string

const (
	// Authorization code events

	EventAuthorizationCodeCreated   EventType = "authorization_code_created"
	EventAuthorizationCodeValidated EventType = "authorization_code_validated"
	EventAuthorizationCodeExpired   EventType = "authorization_code_expired"

	// Token events

	EventTokenCreated   EventType = "token_created"
	EventTokenValidated EventType = "token_validated"
	EventTokenRevoked   EventType = "token_revoked"
	EventTokenExpired   EventType = "token_expired"

	// Client events

	EventClientRegistered EventType = "client_registered"
	EventClientValidated  EventType = "client_validated"
	EventClientDeleted    EventType = "client_deleted"

	// User events

	EventUserAuthenticated        EventType = "user_authenticated"
	EventUserAuthenticationFailed EventType = "user_authentication_failed"
	EventUserLogout               EventType = "user_logout"
)

// Severity classifies an event's operational weight.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// AuthEvent is an immutable notification record. It is created once per
// state transition and never mutated; sinks may retain their own copies.
type AuthEvent struct {
	// ID is the unique event id
	ID string `json:"id"`

	// Type is the event type
	Type EventType `json:"event_type"`

	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`

	// Severity is the event severity
	Severity Severity `json:"severity"`

	// UserID is the associated resource owner, if any
	UserID string `json:"user_id,omitempty"`

	// ClientID is the associated client, if any
	ClientID string `json:"client_id,omitempty"`

	// Metadata carries additional string-keyed context
	Metadata map[string]string `json:"metadata,omitempty"`

	// Error is an optional error message
	Error string `json:"error,omitempty"`
}

// New creates an event with a fresh id and timestamp.
func New(eventType EventType, severity Severity, userID, clientID string) *AuthEvent {
	return &AuthEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Severity:  severity,
		UserID:    userID,
		ClientID:  clientID,
	}
}

// WithMetadata adds a metadata entry and returns the event for chaining.
func (e *AuthEvent) WithMetadata(key, value string) *AuthEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// WithError attaches an error message and returns the event for chaining.
func (e *AuthEvent) WithError(msg string) *AuthEvent {
	e.Error = msg
	return e
}

// JSON serializes the event for sinks that ship it off-process.
func (e *AuthEvent) JSON() ([]byte, error) {
	return json.Marshal(e)
}
