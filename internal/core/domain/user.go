package domain

import "time"

// User mirrors the persisted representation in the guests/users table. The
// credential core reads and writes it only through the persistence port; the
// rest of the hotel platform owns registration, profile data, and OAuth linking.
type User struct {
	ID                 string
	Email              string
	PasswordHash       string
	GoogleID           *string
	IsActive           bool
	EmailVerified      bool
	RegisteredAt       time.Time
	LastPasswordChange *time.Time
}

// HasPassword reports whether the account carries a local password credential.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

// IsGoogleOnly reports whether the account authenticates exclusively through
// the linked Google identity and therefore has no password to reset.
func (u User) IsGoogleOnly() bool {
	return !u.HasPassword() && u.GoogleID != nil && *u.GoogleID != ""
}

// PasswordHistoryEntry tracks a historical password hash for reuse prevention.
type PasswordHistoryEntry struct {
	ID           string
	UserID       string
	PasswordHash string
	SetAt        time.Time
}
