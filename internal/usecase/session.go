package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aurelhotels/credential-service/internal/core/domain"
	"github.com/aurelhotels/credential-service/internal/core/port"
	"github.com/aurelhotels/credential-service/internal/infra/security"
	"github.com/aurelhotels/credential-service/internal/repository"
)

// RevokeReasonPasswordReset marks sessions terminated because the account's
// password was replaced through the reset flow.
const RevokeReasonPasswordReset = "password_reset"

// SessionService terminates and validates server-side login sessions.
type SessionService struct {
	sessions port.SessionRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionService constructs the session service.
func NewSessionService(sessions port.SessionRepository, log *zap.Logger) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionService{
		sessions: sessions,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock overrides the service's time source for tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	if now != nil {
		s.now = now
	}
	return s
}

// RevokeAllSessions terminates every active session for the user and returns
// how many were revoked. Zero active sessions is a successful no-op.
func (s *SessionService) RevokeAllSessions(ctx context.Context, userID, reason string) (int, error) {
	revoked, err := s.sessions.RevokeAllForUser(ctx, userID, reason, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("revoke sessions for user %s: %w", userID, err)
	}

	s.logger.Info("sessions revoked",
		zap.String("user_id", userID),
		zap.String("reason", reason),
		zap.Int("count", revoked),
	)
	return revoked, nil
}

// ValidateSessionToken resolves a raw session token to its active session.
// Unknown, expired, and revoked sessions all map to ErrSessionInvalid.
func (s *SessionService) ValidateSessionToken(ctx context.Context, rawToken string) (*domain.Session, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrSessionInvalid
	}

	session, err := s.sessions.GetByTokenHash(ctx, security.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if !session.IsActive(s.now().UTC()) {
		return nil, ErrSessionInvalid
	}
	return session, nil
}
