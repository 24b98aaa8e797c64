package domain

import "time"

// ResetToken represents one outstanding password-reset grant. The raw token is
// never persisted; only its SHA-256 hash is stored.
type ResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	Email     string
	IP        *string
	UserAgent *string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
	RevokedAt *time.Time
}

// IsExpired reports whether the token has elapsed its validity window.
// The boundary is inclusive: a token is expired at exactly ExpiresAt.
func (t ResetToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// IsValid reports whether the token can still be redeemed at the given instant.
func (t ResetToken) IsValid(at time.Time) bool {
	return t.UsedAt == nil && t.RevokedAt == nil && !t.IsExpired(at)
}

// TimeRemaining returns the whole seconds left before expiry, clamped to zero.
func (t ResetToken) TimeRemaining(at time.Time) int64 {
	remaining := t.ExpiresAt.Sub(at)
	if remaining <= 0 {
		return 0
	}
	return int64(remaining.Seconds())
}

// Consume marks the token as used. Returns true when the token transitions
// from unused to used.
func (t *ResetToken) Consume(at time.Time) bool {
	if t.UsedAt != nil {
		return false
	}
	timeCopy := at
	t.UsedAt = &timeCopy
	return true
}

// Revoke marks the token as superseded by a newer issuance.
func (t *ResetToken) Revoke(at time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	timeCopy := at
	t.RevokedAt = &timeCopy
	return true
}

// ResetTokenStats aggregates token counts over a reporting window.
type ResetTokenStats struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Issued      int
	Used        int
	Expired     int
	Active      int
}
