package valkey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgrid/oauth-core/storage"
)

func TestNew_RequiresAddress(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address is required")
}

func TestStore_KeyNamespacing(t *testing.T) {
	s := &Store{prefix: DefaultKeyPrefix}

	assert.Equal(t, "oauth:client:abc", s.clientKey("abc"))
	assert.Equal(t, "oauth:code:xyz", s.codeKey("xyz"))
	assert.Equal(t, "oauth:code:used:xyz", s.codeUsedKey("xyz"))
	assert.Equal(t, "oauth:token:at", s.tokenKey("at"))
	assert.Equal(t, "oauth:refresh:rt", s.refreshKey("rt"))
}

func TestStore_KeyNamespacing_CustomPrefix(t *testing.T) {
	s := &Store{prefix: "tenant-a:"}

	assert.Equal(t, "tenant-a:client:abc", s.clientKey("abc"))
	assert.Equal(t, "tenant-a:code:used:xyz", s.codeUsedKey("xyz"))
}

func TestCodeRetentionExceedsLifetime(t *testing.T) {
	// A code record must outlive its validity window so a late exchange
	// attempt reads "expired or used" rather than "not found".
	assert.Greater(t, codeRetention, storage.AuthorizationCodeLifetime)
	assert.Equal(t, 10*time.Minute, storage.AuthorizationCodeLifetime)
}
