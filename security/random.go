// Package security provides the cryptographic primitives the engines rely
// on: random credential generation, constant-time comparison, PKCE
// verification, and registration rate limiting.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
)

const (
	// CredentialLength is the length of generated client secrets and
	// authorization codes.
	CredentialLength = 32

	// credentialCharset is the alphabet credentials are drawn from.
	credentialCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateSecret produces a 32-character client secret drawn from
// [a-zA-Z0-9] using the platform CSPRNG.
func GenerateSecret() (string, error) {
	return randomString(CredentialLength)
}

// GenerateAuthorizationCode produces a 32-character opaque code from the
// same alphabet as client secrets.
func GenerateAuthorizationCode() (string, error) {
	return randomString(CredentialLength)
}

// randomString draws length characters from credentialCharset. Bytes are
// rejection-sampled so every character is equally likely; a plain modulo
// over 256 values would bias toward the start of the alphabet.
func randomString(length int) (string, error) {
	// Largest multiple of len(charset) below 256.
	maxAccepted := byte(256 - 256%len(credentialCharset))

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= maxAccepted {
				continue
			}
			out = append(out, credentialCharset[int(b)%len(credentialCharset)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// ConstantTimeEquals compares two strings in time independent of how many
// leading bytes match, preventing timing side-channel enumeration of
// secrets. Strings of different length compare unequal.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
