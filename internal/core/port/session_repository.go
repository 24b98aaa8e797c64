package port

import (
	"context"
	"time"

	"github.com/aurelhotels/credential-service/internal/core/domain"
)

// SessionRepository persists server-side login sessions.
type SessionRepository interface {
	GetByTokenHash(ctx context.Context, hash string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Session, error)
	// RevokeAllForUser terminates every active session for the user and
	// returns how many were revoked.
	RevokeAllForUser(ctx context.Context, userID string, reason string, at time.Time) (int, error)
}
