package storage

import (
	"testing"
	"time"
)

func TestNewAuthorizationCode_ExpiryWindow(t *testing.T) {
	before := time.Now().UTC()
	ac := NewAuthorizationCode("code-1", "client-1", "user-1", "https://app/cb", "read", "", "")
	after := time.Now().UTC()

	window := ac.ExpiresAt.Sub(ac.CreatedAt)
	if window != AuthorizationCodeLifetime {
		t.Errorf("expiry window = %v, want %v", window, AuthorizationCodeLifetime)
	}
	if ac.CreatedAt.Before(before) || ac.CreatedAt.After(after) {
		t.Errorf("CreatedAt = %v outside [%v, %v]", ac.CreatedAt, before, after)
	}
	if ac.Used {
		t.Error("new code must start unused")
	}
	if ac.ID == "" {
		t.Error("new code must get an id")
	}
}

func TestAuthorizationCode_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		used      bool
		expiresAt time.Time
		want      bool
	}{
		{"fresh", false, time.Now().Add(time.Minute), true},
		{"used", true, time.Now().Add(time.Minute), false},
		{"expired", false, time.Now().Add(-time.Minute), false},
		{"used and expired", true, time.Now().Add(-time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac := &AuthorizationCode{Used: tt.used, ExpiresAt: tt.expiresAt}
			if got := ac.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToken_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		revoked   bool
		expiresAt time.Time
		want      bool
	}{
		{"live", false, time.Now().Add(time.Hour), true},
		{"revoked", true, time.Now().Add(time.Hour), false},
		{"expired", false, time.Now().Add(-time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := &Token{Revoked: tt.revoked, ExpiresAt: tt.expiresAt}
			if got := tok.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewToken_ExpiryFromSeconds(t *testing.T) {
	tok := NewToken("at", "rt", "client-1", "user-1", "read", 3600)

	if tok.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", tok.TokenType)
	}
	if got := tok.ExpiresAt.Sub(tok.CreatedAt); got != time.Hour {
		t.Errorf("expiry window = %v, want 1h", got)
	}
	if tok.Revoked {
		t.Error("new token must start unrevoked")
	}
}

func TestClient_SupportsGrantType(t *testing.T) {
	c := NewClient("client-1", "secret", nil, []string{"authorization_code", "refresh_token"}, "", "app")

	if !c.SupportsGrantType("authorization_code") {
		t.Error("SupportsGrantType(authorization_code) = false")
	}
	if c.SupportsGrantType("client_credentials") {
		t.Error("SupportsGrantType(client_credentials) = true, want false")
	}
}

func TestClient_ValidateRedirectURI(t *testing.T) {
	c := NewClient("client-1", "secret", []string{"https://app/cb", "https://app/alt"}, nil, "", "app")

	if !c.ValidateRedirectURI("https://app/cb") {
		t.Error("registered URI rejected")
	}
	if c.ValidateRedirectURI("https://evil/cb") {
		t.Error("unregistered URI accepted")
	}
	if c.ValidateRedirectURI("https://app/cb/extra") {
		t.Error("prefix match accepted, want exact match only")
	}
}
