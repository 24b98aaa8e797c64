package port

import (
	"context"
	"time"

	"github.com/aurelhotels/credential-service/internal/core/domain"
)

// TokenRepository manages password reset token records.
type TokenRepository interface {
	Create(ctx context.Context, token domain.ResetToken) error
	GetByHash(ctx context.Context, hash string) (*domain.ResetToken, error)
	// Consume atomically marks the token as used when it is still unused,
	// unrevoked, and unexpired at the given instant. It returns true when the
	// claim matched, guaranteeing at-most-once consumption under concurrent
	// completion attempts.
	Consume(ctx context.Context, id string, at time.Time) (bool, error)
	// RevokeAllForUser supersedes every live token belonging to the user so at
	// most one valid token exists per account.
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int, error)
	// PurgeExpired deletes tokens that are expired or already used.
	PurgeExpired(ctx context.Context, before time.Time) (int, error)
	Stats(ctx context.Context, from, to time.Time) (*domain.ResetTokenStats, error)
}
