package jwt

import (
	"strings"
	"testing"
	"time"
)

var testSecret = []byte(strings.Repeat("k", 32))

func TestCodec_Roundtrip(t *testing.T) {
	codec := New(testSecret, "https://auth.example.com")

	claims := codec.NewClaims("user-1", "client-1", "read write", time.Hour)
	signed, err := codec.Encode(claims)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := codec.Decode(signed)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if got.Subject != "user-1" {
		t.Errorf("Subject = %q, want %q", got.Subject, "user-1")
	}
	if got.Issuer != "https://auth.example.com" {
		t.Errorf("Issuer = %q, want issuer", got.Issuer)
	}
	if got.Audience != "client-1" {
		t.Errorf("Audience = %q, want %q", got.Audience, "client-1")
	}
	if got.ClientID != "client-1" {
		t.Errorf("ClientID = %q, want %q", got.ClientID, "client-1")
	}
	if got.Scope != "read write" {
		t.Errorf("Scope = %q, want %q", got.Scope, "read write")
	}
	if got.ID == "" {
		t.Error("jti is empty")
	}
	if got.ExpiresAt-got.IssuedAt != int64(time.Hour.Seconds()) {
		t.Errorf("exp-iat = %d, want 3600", got.ExpiresAt-got.IssuedAt)
	}
}

func TestCodec_Decode_WrongSecret(t *testing.T) {
	codec := New(testSecret, "iss")
	other := New([]byte(strings.Repeat("x", 32)), "iss")

	signed, err := codec.Encode(codec.NewClaims("user-1", "client-1", "", time.Hour))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if _, err := other.Decode(signed); err == nil {
		t.Error("Decode() with wrong secret succeeded")
	}
}

func TestCodec_Decode_Expired(t *testing.T) {
	codec := New(testSecret, "iss")

	signed, err := codec.Encode(codec.NewClaims("user-1", "client-1", "", -time.Minute))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if _, err := codec.Decode(signed); err == nil {
		t.Error("Decode() of expired token succeeded")
	}
}

func TestCodec_Decode_Garbage(t *testing.T) {
	codec := New(testSecret, "iss")

	if _, err := codec.Decode("not-a-jwt"); err == nil {
		t.Error("Decode() of garbage succeeded")
	}
}

func TestCodec_NewClaims_DistinctIDs(t *testing.T) {
	codec := New(testSecret, "iss")

	a := codec.NewClaims("user-1", "client-1", "", time.Hour)
	b := codec.NewClaims("user-1", "client-1", "", time.Hour)
	if a.ID == b.ID {
		t.Error("two claim sets share a jti")
	}
}
