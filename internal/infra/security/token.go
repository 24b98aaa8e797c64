package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// resetTokenBytes is the entropy of a reset token: 32 random bytes rendered as
// a 64-character lowercase hexadecimal string.
const resetTokenBytes = 32

// GenerateResetToken returns a new opaque password-reset token drawn from a
// cryptographically secure source. Collisions are treated as negligible and
// are not checked against existing tokens.
func GenerateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateSessionToken returns a URL-safe opaque session credential.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken calculates the SHA-256 hash of the provided value. Tokens are
// stored hashed so a leaked table row cannot be replayed.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
