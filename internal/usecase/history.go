package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aurelhotels/credential-service/internal/core/domain"
	"github.com/aurelhotels/credential-service/internal/core/port"
	"github.com/aurelhotels/credential-service/internal/infra/security"
)

// PasswordHistoryLedger tracks recent password hashes per user and prevents
// reuse of the most recent ones. The ledger is advisory: storage failures
// never block a password change, they only weaken the reuse check.
type PasswordHistoryLedger struct {
	users  port.UserRepository
	logger *zap.Logger
	limit  int
}

// NewPasswordHistoryLedger constructs a ledger capped at limit entries per user.
func NewPasswordHistoryLedger(users port.UserRepository, limit int, log *zap.Logger) *PasswordHistoryLedger {
	if log == nil {
		log = zap.NewNop()
	}
	if limit <= 0 {
		limit = 5
	}
	return &PasswordHistoryLedger{
		users:  users,
		logger: log,
		limit:  limit,
	}
}

// WasRecentlyUsed reports whether the candidate password matches any of the
// user's most recent password hashes. Fails open: on storage errors it logs
// and reports false so the reset can proceed.
func (l *PasswordHistoryLedger) WasRecentlyUsed(ctx context.Context, userID, candidate string) bool {
	entries, err := l.users.ListPasswordHistory(ctx, userID, l.limit)
	if err != nil {
		l.logger.Warn("password history lookup failed, skipping reuse check",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return false
	}

	for _, entry := range entries {
		match, err := security.VerifyPassword(candidate, entry.PasswordHash)
		if err != nil {
			l.logger.Warn("password history comparison failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		if match {
			return true
		}
	}
	return false
}

// Record appends a hash to the user's history and trims the ledger back to its
// cap, discarding oldest entries first. Failures are logged and swallowed; a
// completed password change is never rolled back over bookkeeping.
func (l *PasswordHistoryLedger) Record(ctx context.Context, userID, passwordHash string, at time.Time) {
	entry := domain.PasswordHistoryEntry{
		ID:           uuid.NewString(),
		UserID:       userID,
		PasswordHash: passwordHash,
		SetAt:        at.UTC(),
	}
	if err := l.users.AddPasswordHistory(ctx, entry); err != nil {
		l.logger.Warn("password history insert failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return
	}
	if err := l.users.TrimPasswordHistory(ctx, userID, l.limit); err != nil {
		l.logger.Warn("password history trim failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// Limit returns the ledger's per-user cap.
func (l *PasswordHistoryLedger) Limit() int {
	return l.limit
}
