// Package jwt encodes and decodes the signed claim sets embedded in access
// and refresh tokens. Tokens are HMAC-signed (HS256) with the process-wide
// secret configured at startup.
package jwt

import (
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the signed JWT payload. All fields are required on the wire
// except client_id.
type Claims struct {
	Subject   string `json:"sub"`
	Issuer    string `json:"iss"`
	Audience  string `json:"aud"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
	Scope     string `json:"scope"`
	ID        string `json:"jti"`
	ClientID  string `json:"client_id,omitempty"`
}

// The jwtv5.Claims interface feeds the library's validator; supplying exp
// and iat here is what enforces expiry on decode.

func (c *Claims) GetExpirationTime() (*jwtv5.NumericDate, error) {
	return jwtv5.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

func (c *Claims) GetIssuedAt() (*jwtv5.NumericDate, error) {
	return jwtv5.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

func (c *Claims) GetNotBefore() (*jwtv5.NumericDate, error) {
	return nil, nil
}

func (c *Claims) GetIssuer() (string, error) {
	return c.Issuer, nil
}

func (c *Claims) GetSubject() (string, error) {
	return c.Subject, nil
}

func (c *Claims) GetAudience() (jwtv5.ClaimStrings, error) {
	return jwtv5.ClaimStrings{c.Audience}, nil
}

var _ jwtv5.Claims = (*Claims)(nil)

// Codec signs and verifies claim sets with a shared HMAC secret.
type Codec struct {
	secret []byte
	issuer string
}

// New creates a codec for the given signing secret and issuer identifier.
func New(secret []byte, issuer string) *Codec {
	return &Codec{secret: secret, issuer: issuer}
}

// NewClaims builds a claim set for the subject, valid for the given
// lifetime from now. The audience is the client id; jti is unique per call.
func (c *Codec) NewClaims(subject, clientID, scope string, lifetime time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		Subject:   subject,
		Issuer:    c.issuer,
		Audience:  clientID,
		ExpiresAt: now.Add(lifetime).Unix(),
		IssuedAt:  now.Unix(),
		Scope:     scope,
		ID:        uuid.NewString(),
		ClientID:  clientID,
	}
}

// Encode serializes and signs the claims with HS256.
func (c *Codec) Encode(claims *Claims) (string, error) {
	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and standard constraints (expiry) and
// returns the embedded claims. Callers treat any error as "claims
// unavailable": introspection degrades to token-record-only data.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtv5.ParseWithClaims(tokenString, claims, func(t *jwtv5.Token) (any, error) {
		return c.secret, nil
	}, jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return claims, nil
}
