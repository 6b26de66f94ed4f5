package security

import (
	"crypto/sha256"
	"encoding/base64"
)

// PKCE code challenge methods (RFC 7636)
const (
	PKCEMethodPlain = "plain"
	PKCEMethodS256  = "S256"
)

// VerifyPKCE checks a presented code verifier against the stored challenge
// per RFC 7636. It is a pure function: deterministic, no side effects, safe
// for concurrent use.
//
//   - "plain": the verifier must equal the challenge byte for byte.
//   - "S256": base64url(SHA-256(verifier)) without padding must equal the
//     challenge.
//   - any other method: always false.
//
// Comparisons are constant-time to avoid leaking matching prefixes.
func VerifyPKCE(challenge, verifier, method string) bool {
	switch method {
	case PKCEMethodPlain:
		return ConstantTimeEquals(challenge, verifier)
	case PKCEMethodS256:
		hash := sha256.Sum256([]byte(verifier))
		computed := base64.RawURLEncoding.EncodeToString(hash[:])
		return ConstantTimeEquals(challenge, computed)
	default:
		return false
	}
}
