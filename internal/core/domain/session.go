package domain

import "time"

// Session is a server-side login session identified by an opaque token hash.
type Session struct {
	ID           string
	UserID       string
	TokenHash    string
	IP           *string
	UserAgent    *string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	RevokedAt    *time.Time
	RevokeReason *string
}

// IsActive reports whether the session can still authenticate requests.
func (s Session) IsActive(at time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	return s.ExpiresAt.After(at)
}

// Revoke terminates the session. Returns true if the state changed.
func (s *Session) Revoke(at time.Time, reason string) bool {
	if s.RevokedAt != nil {
		return false
	}
	timeCopy := at
	s.RevokedAt = &timeCopy
	if reason != "" {
		s.RevokeReason = &reason
	}
	return true
}
