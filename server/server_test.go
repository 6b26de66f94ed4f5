package server

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oauth "github.com/authgrid/oauth-core"
	"github.com/authgrid/oauth-core/events"
	"github.com/authgrid/oauth-core/storage/memory"
)

const (
	testRedirectURI = "https://app.example.com/callback"
	testSecret      = "test-signing-secret-32-characters!!!"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer builds a server over a fresh in-memory store with an
// in-memory event sink.
func newTestServer(t *testing.T) (*Server, *memory.Store, *events.MemorySink) {
	t.Helper()

	store := memory.New()
	t.Cleanup(store.Close)

	sink := events.NewMemorySink(1000)
	dispatcher := events.NewDispatcher(nil, []events.Sink{sink}, testLogger())
	t.Cleanup(dispatcher.Close)

	srv, err := New(store, &oauth.Config{
		Issuer:    "https://auth.example.com",
		JWTSecret: testSecret,
		Logger:    testLogger(),
	}, dispatcher)
	require.NoError(t, err)

	return srv, store, sink
}

// registerTestClient registers a client for the given grant types.
func registerTestClient(t *testing.T, srv *Server, grantTypes ...string) *oauth.ClientCredentials {
	t.Helper()

	_, creds, err := srv.RegisterClient(context.Background(), &oauth.ClientRegistrationRequest{
		ClientName:   "test-app",
		RedirectURIs: []string{testRedirectURI},
		GrantTypes:   grantTypes,
		Scope:        "read write",
	})
	require.NoError(t, err)
	return creds
}

// flushEvents closes the dispatcher, draining every queued event to the
// sinks. Emission is asynchronous; without the flush a sink read can run
// ahead of delivery. Close is idempotent, so the cleanup close stays safe.
func flushEvents(srv *Server) {
	if srv.dispatcher != nil {
		srv.dispatcher.Close()
	}
}

func requireOAuthCode(t *testing.T, err error, wantCode string) *oauth.OAuthError {
	t.Helper()

	require.Error(t, err)
	oe := oauth.AsOAuthError(err)
	require.NotNil(t, oe, "error %v is not an OAuth error", err)
	require.Equal(t, wantCode, oe.Code, "description: %s", oe.Description)
	return oe
}

func TestNew_Validation(t *testing.T) {
	store := memory.New()
	defer store.Close()

	_, err := New(nil, &oauth.Config{JWTSecret: testSecret}, nil)
	assert.Error(t, err, "nil store accepted")

	_, err = New(store, nil, nil)
	assert.Error(t, err, "nil config accepted")

	_, err = New(store, &oauth.Config{JWTSecret: "short"}, nil)
	assert.Error(t, err, "short JWT secret accepted")

	srv, err := New(store, &oauth.Config{JWTSecret: testSecret, Logger: testLogger()}, nil)
	require.NoError(t, err)
	assert.NotNil(t, srv)
}

func TestServer_Metadata(t *testing.T) {
	srv, _, _ := newTestServer(t)

	md := srv.Metadata()
	assert.Equal(t, "https://auth.example.com", md.Issuer)
	assert.Equal(t, "https://auth.example.com/oauth/token", md.TokenEndpoint)
}

func TestServer_NilDispatcherIsQuiet(t *testing.T) {
	store := memory.New()
	defer store.Close()

	srv, err := New(store, &oauth.Config{JWTSecret: testSecret, Logger: testLogger()}, nil)
	require.NoError(t, err)

	// Operations run without a dispatcher; emission is a no-op.
	_, creds, err := srv.RegisterClient(context.Background(), &oauth.ClientRegistrationRequest{
		ClientName:   "quiet-app",
		RedirectURIs: []string{testRedirectURI},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, creds.ClientID)
}

func TestNormalizeBearerToken(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"raw token", "abc.def.ghi", "abc.def.ghi"},
		{"canonical prefix", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase prefix", "bearer abc.def.ghi", "abc.def.ghi"},
		{"uppercase prefix", "BEARER abc.def.ghi", "abc.def.ghi"},
		{"surrounding whitespace", "  Bearer abc.def.ghi  ", "abc.def.ghi"},
		{"bearer-like token value", "Bearerabc", "Bearerabc"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBearerToken(tt.input))
		})
	}
}

// End to end: register, authorize with PKCE, exchange, validate, refresh,
// revoke.
func TestServer_FullFlow(t *testing.T) {
	srv, _, sink := newTestServer(t)
	ctx := context.Background()

	creds := registerTestClient(t, srv,
		oauth.GrantTypeAuthorizationCode, oauth.GrantTypeRefreshToken)

	authz, err := srv.CreateAuthorizationCode(ctx, creds.ClientID, "user-1", testRedirectURI, "read", "", "")
	require.NoError(t, err)
	require.NotEmpty(t, authz.Code)

	tokens, err := srv.Exchange(ctx, &TokenRequest{
		GrantType:    oauth.GrantTypeAuthorizationCode,
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Code:         authz.Code,
		RedirectURI:  testRedirectURI,
	})
	require.NoError(t, err)
	assert.Equal(t, oauth.TokenTypeBearer, tokens.TokenType)
	assert.Equal(t, 3600, tokens.ExpiresIn)
	assert.NotEmpty(t, tokens.RefreshToken)

	record, err := srv.ValidateToken(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", record.UserID)
	assert.Equal(t, "read", record.Scope)

	refreshed, err := srv.Exchange(ctx, &TokenRequest{
		GrantType:    oauth.GrantTypeRefreshToken,
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RefreshToken: tokens.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, tokens.AccessToken, refreshed.AccessToken)

	// Rotation killed the old pair.
	_, err = srv.ValidateToken(ctx, tokens.AccessToken)
	requireOAuthCode(t, err, oauth.ErrorCodeInvalidGrant)

	require.NoError(t, srv.RevokeToken(ctx, refreshed.RefreshToken))
	_, err = srv.ValidateToken(ctx, refreshed.AccessToken)
	requireOAuthCode(t, err, oauth.ErrorCodeInvalidGrant)

	// The flow left a trail of events.
	flushEvents(srv)
	types := make(map[events.EventType]int)
	for _, e := range sink.Events() {
		types[e.Type]++
	}
	assert.Positive(t, types[events.EventClientRegistered])
	assert.Positive(t, types[events.EventAuthorizationCodeCreated])
	assert.Positive(t, types[events.EventAuthorizationCodeValidated])
	assert.Positive(t, types[events.EventTokenCreated])
	assert.Positive(t, types[events.EventTokenRevoked])
}

func TestServer_SecretAlphabet(t *testing.T) {
	srv, _, _ := newTestServer(t)

	creds := registerTestClient(t, srv, oauth.GrantTypeClientCredentials)
	require.Len(t, creds.ClientSecret, 32)
	for _, r := range creds.ClientSecret {
		assert.True(t, strings.ContainsRune(
			"abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", r),
			"secret contains %q", r)
	}
}
