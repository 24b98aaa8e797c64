package security

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// minBcryptCost is the floor for the adaptive hash cost factor.
const minBcryptCost = 12

var (
	activeBcryptCost = minBcryptCost
	bcryptCostMu     sync.RWMutex
)

// ConfigureBcryptCost sets the active cost factor. Values below the security
// floor are rejected.
func ConfigureBcryptCost(cost int) error {
	if cost < minBcryptCost {
		return fmt.Errorf("bcrypt cost must be at least %d", minBcryptCost)
	}
	if cost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must not exceed %d", bcrypt.MaxCost)
	}
	bcryptCostMu.Lock()
	activeBcryptCost = cost
	bcryptCostMu.Unlock()
	return nil
}

// CurrentBcryptCost returns the currently active cost factor.
func CurrentBcryptCost() int {
	bcryptCostMu.RLock()
	defer bcryptCostMu.RUnlock()
	return activeBcryptCost
}

// HashPassword generates a bcrypt hash for the provided password using the
// active cost factor.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), CurrentBcryptCost())
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// VerifyPassword compares the provided password against a stored bcrypt hash.
// The comparison is constant-time with respect to the digest.
func VerifyPassword(password, encoded string) (bool, error) {
	if password == "" || encoded == "" {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("verify password: %w", err)
}
