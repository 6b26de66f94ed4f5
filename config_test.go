package oauth

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	c := (&Config{}).ApplyDefaults()

	if c.Issuer != DefaultIssuer {
		t.Errorf("Issuer = %q, want %q", c.Issuer, DefaultIssuer)
	}
	if c.AccessTokenLifetime != DefaultAccessTokenLifetime {
		t.Errorf("AccessTokenLifetime = %v, want %v", c.AccessTokenLifetime, DefaultAccessTokenLifetime)
	}
	if c.RefreshTokenLifetime != DefaultRefreshTokenLifetime {
		t.Errorf("RefreshTokenLifetime = %v, want %v", c.RefreshTokenLifetime, DefaultRefreshTokenLifetime)
	}
	if c.Logger == nil {
		t.Error("Logger = nil, want default logger")
	}
}

func TestConfig_ApplyDefaults_PreservesExplicitValues(t *testing.T) {
	c := (&Config{
		Issuer:              "https://auth.example.com",
		AccessTokenLifetime: 5 * time.Minute,
	}).ApplyDefaults()

	if c.Issuer != "https://auth.example.com" {
		t.Errorf("Issuer = %q, want explicit value", c.Issuer)
	}
	if c.AccessTokenLifetime != 5*time.Minute {
		t.Errorf("AccessTokenLifetime = %v, want 5m", c.AccessTokenLifetime)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid",
			config:  Config{JWTSecret: strings.Repeat("s", 32)},
			wantErr: false,
		},
		{
			name:    "missing secret",
			config:  Config{},
			wantErr: true,
		},
		{
			name:    "short secret",
			config:  Config{JWTSecret: strings.Repeat("s", 31)},
			wantErr: true,
		},
		{
			name: "refresh shorter than access",
			config: Config{
				JWTSecret:            strings.Repeat("s", 32),
				AccessTokenLifetime:  time.Hour,
				RefreshTokenLifetime: time.Minute,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
