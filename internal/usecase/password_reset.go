package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aurelhotels/credential-service/internal/core/domain"
	"github.com/aurelhotels/credential-service/internal/core/port"
	"github.com/aurelhotels/credential-service/internal/infra/logger"
	"github.com/aurelhotels/credential-service/internal/infra/security"
	"github.com/aurelhotels/credential-service/internal/infra/telemetry"
	"github.com/aurelhotels/credential-service/internal/repository"
)

const (
	defaultResetTokenTTL = time.Hour

	resetEmailTemplate   = "password_reset"
	changedEmailTemplate = "password_changed"
)

// RequestContext carries caller metadata recorded alongside issued tokens.
type RequestContext struct {
	IP        string
	UserAgent string
}

// InitiateResult is the enumeration-safe outcome of a reset request. The
// shape is identical whether or not the account exists; only AccountType
// varies, and only for accounts the caller already controls. RequestID is a
// fresh random identifier on every request, so its presence carries no signal;
// when a token is issued it doubles as the token record id for correlation.
type InitiateResult struct {
	Code             string
	Message          string
	CanResetPassword bool
	AccountType      string
	RequestID        string
}

// ValidateResult describes a live reset token without exposing the account.
type ValidateResult struct {
	MaskedEmail      string
	ExpiresAt        time.Time
	SecondsRemaining int64
}

// CompleteResult reports a successful password reset.
type CompleteResult struct {
	UserID          string
	ChangedAt       time.Time
	SessionsRevoked int
}

// PasswordResetService orchestrates the reset lifecycle: request a token,
// validate it, and redeem it for a new password.
type PasswordResetService struct {
	users     port.UserRepository
	tokens    port.TokenRepository
	limiter   *ResetRateLimiter
	history   *PasswordHistoryLedger
	sessions  *SessionService
	mailer    port.Mailer
	events    port.EventPublisher
	validator *security.PasswordValidator
	metrics   *telemetry.Metrics
	logger    *zap.Logger
	now       func() time.Time
	tokenTTL  time.Duration
}

// NewPasswordResetService wires the orchestrator. The mailer, event publisher,
// and metrics are optional; missing ones degrade to no-ops.
func NewPasswordResetService(
	users port.UserRepository,
	tokens port.TokenRepository,
	limiter *ResetRateLimiter,
	history *PasswordHistoryLedger,
	sessions *SessionService,
	mailer port.Mailer,
	events port.EventPublisher,
	validator *security.PasswordValidator,
	log *zap.Logger,
) *PasswordResetService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PasswordResetService{
		users:     users,
		tokens:    tokens,
		limiter:   limiter,
		history:   history,
		sessions:  sessions,
		mailer:    mailer,
		events:    events,
		validator: validator,
		logger:    log,
		now:       time.Now,
		tokenTTL:  defaultResetTokenTTL,
	}
}

// WithClock overrides the service's time source for tests.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	if now != nil {
		s.now = now
	}
	return s
}

// WithTTL overrides the token validity window.
func (s *PasswordResetService) WithTTL(ttl time.Duration) *PasswordResetService {
	if ttl > 0 {
		s.tokenTTL = ttl
	}
	return s
}

// WithMetrics attaches prometheus collectors.
func (s *PasswordResetService) WithMetrics(m *telemetry.Metrics) *PasswordResetService {
	s.metrics = m
	return s
}

// InitiateReset handles a "forgot password" request. The returned envelope is
// indistinguishable between existing and unknown accounts; a token is issued
// and mailed only when the account exists, is active, and holds a password.
func (s *PasswordResetService) InitiateReset(ctx context.Context, email string, reqCtx RequestContext) (*InitiateResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	// Minted before any account lookup so every envelope carries one.
	requestID := uuid.NewString()

	decision := s.limiter.Check(ctx, email)
	if !decision.Allowed {
		s.countInitiate("rate_limited")
		return nil, &RateLimitExceededError{
			WaitMinutes:   decision.WaitMinutes,
			AttemptsToday: decision.AttemptsToday,
			RetryAfter:    time.Duration(decision.WaitMinutes) * time.Minute,
		}
	}
	s.limiter.Record(ctx, email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("reset requested for unknown email",
				zap.String("email", logger.MaskEmail(email)),
			)
			s.countInitiate("unknown_account")
			return genericInitiateResult(requestID), nil
		}
		s.countInitiate("error")
		return nil, fmt.Errorf("look up account: %w", err)
	}

	if !user.IsActive {
		s.logger.Info("reset requested for deactivated account",
			zap.String("user_id", user.ID),
		)
		s.countInitiate("inactive_account")
		return genericInitiateResult(requestID), nil
	}

	if user.IsGoogleOnly() {
		s.countInitiate("google_only")
		return &InitiateResult{
			Code:             CodeResetRequested,
			Message:          "This account signs in with Google and has no password to reset.",
			CanResetPassword: false,
			AccountType:      AccountTypeGoogleOnly,
			RequestID:        requestID,
		}, nil
	}

	if !user.HasPassword() {
		// Passwordless without a linked identity: nothing to reset, but the
		// response must stay indistinguishable.
		s.logger.Warn("reset requested for passwordless account without linked identity",
			zap.String("user_id", user.ID),
		)
		s.countInitiate("no_credential")
		return genericInitiateResult(requestID), nil
	}

	token, err := s.issueToken(ctx, user, reqCtx, requestID)
	if err != nil {
		s.countInitiate("error")
		return nil, err
	}

	s.deliverResetEmail(ctx, user, token)
	s.countInitiate("issued")

	return genericInitiateResult(requestID), nil
}

// ValidateToken checks a raw reset token without consuming it. Unknown,
// expired, used, and revoked tokens all return ErrResetTokenInvalid.
func (s *PasswordResetService) ValidateToken(ctx context.Context, rawToken string) (*ValidateResult, error) {
	token, user, err := s.lookupLiveToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	return &ValidateResult{
		MaskedEmail:      logger.MaskEmail(user.Email),
		ExpiresAt:        token.ExpiresAt,
		SecondsRemaining: token.TimeRemaining(at),
	}, nil
}

// CompleteReset redeems a token for a new password. The token is claimed
// atomically before the password write so concurrent completions succeed at
// most once; everything after the write is best-effort.
func (s *PasswordResetService) CompleteReset(ctx context.Context, rawToken, newPassword, confirmPassword string) (*CompleteResult, error) {
	if newPassword != confirmPassword {
		s.countComplete("mismatch")
		return nil, ErrPasswordMismatch
	}

	if result := s.validator.Validate(newPassword); !result.Valid {
		s.countComplete("weak_password")
		return nil, &PasswordTooWeakError{Result: result}
	}

	token, user, err := s.lookupLiveToken(ctx, rawToken)
	if err != nil {
		s.countComplete("invalid_token")
		return nil, err
	}

	if s.history.WasRecentlyUsed(ctx, user.ID, newPassword) {
		s.countComplete("reused")
		return nil, ErrPasswordReused
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		s.countComplete("error")
		return nil, fmt.Errorf("hash new password: %w", err)
	}

	at := s.now().UTC()
	claimed, err := s.tokens.Consume(ctx, token.ID, at)
	if err != nil {
		s.countComplete("error")
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	if !claimed {
		// Lost the race to a concurrent completion, or expired in between.
		s.countComplete("invalid_token")
		return nil, ErrResetTokenInvalid
	}

	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash, at); err != nil {
		// The token is already burned; the user must initiate again.
		s.logger.Error("password update failed after token consumption",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		s.countComplete("error")
		return nil, fmt.Errorf("update password: %w", err)
	}

	s.history.Record(ctx, user.ID, passwordHash, at)

	sessionsRevoked := 0
	if s.sessions != nil {
		revoked, err := s.sessions.RevokeAllSessions(ctx, user.ID, RevokeReasonPasswordReset)
		if err != nil {
			s.logger.Warn("session revocation failed after password reset",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		} else {
			sessionsRevoked = revoked
			s.countSessionsRevoked(revoked)
		}
	}

	s.deliverChangedEmail(ctx, user, at)
	s.publishPasswordChanged(ctx, user.ID, at, sessionsRevoked)

	s.logger.Info("password reset completed",
		zap.String("user_id", user.ID),
		zap.Int("sessions_revoked", sessionsRevoked),
	)
	s.countComplete("completed")

	return &CompleteResult{
		UserID:          user.ID,
		ChangedAt:       at,
		SessionsRevoked: sessionsRevoked,
	}, nil
}

// lookupLiveToken resolves a raw token to its record and owning account,
// collapsing every failure mode except deactivation into ErrResetTokenInvalid.
func (s *PasswordResetService) lookupLiveToken(ctx context.Context, rawToken string) (*domain.ResetToken, *domain.User, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, nil, ErrResetTokenInvalid
	}

	token, err := s.tokens.GetByHash(ctx, security.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrResetTokenInvalid
		}
		return nil, nil, fmt.Errorf("load reset token: %w", err)
	}

	if !token.IsValid(s.now().UTC()) {
		return nil, nil, ErrResetTokenInvalid
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrResetTokenInvalid
		}
		return nil, nil, fmt.Errorf("load token owner: %w", err)
	}
	if !user.IsActive {
		return nil, nil, ErrAccountDeactivated
	}

	return token, user, nil
}

type issuedToken struct {
	raw    string
	record domain.ResetToken
}

// issueToken supersedes any live token for the user and persists a fresh one
// under the caller's request id.
func (s *PasswordResetService) issueToken(ctx context.Context, user *domain.User, reqCtx RequestContext, requestID string) (*issuedToken, error) {
	at := s.now().UTC()

	if _, err := s.tokens.RevokeAllForUser(ctx, user.ID, at); err != nil {
		return nil, fmt.Errorf("revoke previous tokens: %w", err)
	}

	raw, err := security.GenerateResetToken()
	if err != nil {
		return nil, err
	}

	record := domain.ResetToken{
		ID:        requestID,
		UserID:    user.ID,
		TokenHash: security.HashToken(raw),
		Email:     user.Email,
		CreatedAt: at,
		ExpiresAt: at.Add(s.tokenTTL),
	}
	if reqCtx.IP != "" {
		ip := reqCtx.IP
		record.IP = &ip
	}
	if reqCtx.UserAgent != "" {
		ua := reqCtx.UserAgent
		record.UserAgent = &ua
	}

	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store reset token: %w", err)
	}

	s.logger.Info("reset token issued",
		zap.String("user_id", user.ID),
		zap.String("request_id", record.ID),
		zap.Time("expires_at", record.ExpiresAt),
	)

	return &issuedToken{raw: raw, record: record}, nil
}

// deliverResetEmail mails the reset link and publishes the requested event.
// Both are best-effort; the token is already persisted.
func (s *PasswordResetService) deliverResetEmail(ctx context.Context, user *domain.User, token *issuedToken) {
	if s.events != nil {
		event := domain.PasswordResetRequestedEvent{
			EventID:     uuid.NewString(),
			UserID:      user.ID,
			RequestID:   token.record.ID,
			RequestedAt: token.record.CreatedAt,
			Email:       user.Email,
			MaskedEmail: logger.MaskEmail(user.Email),
			ExpiresAt:   token.record.ExpiresAt,
			IPAddress:   token.record.IP,
		}
		if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
			s.logger.Warn("reset requested event publish failed",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		}
	}

	if s.mailer == nil {
		return
	}
	variables := map[string]string{
		"reset_token":     token.raw,
		"expires_at":      token.record.ExpiresAt.Format(time.RFC3339),
		"expires_minutes": fmt.Sprintf("%d", int(s.tokenTTL.Minutes())),
	}
	if err := s.mailer.Send(ctx, user.Email, "Reset your password", resetEmailTemplate, variables); err != nil {
		s.logger.Warn("reset email delivery failed",
			zap.String("user_id", user.ID),
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err),
		)
	}
}

func (s *PasswordResetService) deliverChangedEmail(ctx context.Context, user *domain.User, at time.Time) {
	if s.mailer == nil {
		return
	}
	variables := map[string]string{
		"changed_at": at.Format(time.RFC3339),
	}
	if err := s.mailer.Send(ctx, user.Email, "Your password was changed", changedEmailTemplate, variables); err != nil {
		s.logger.Warn("password changed email delivery failed",
			zap.String("user_id", user.ID),
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err),
		)
	}
}

func (s *PasswordResetService) publishPasswordChanged(ctx context.Context, userID string, at time.Time, sessionsRevoked int) {
	if s.events == nil {
		return
	}
	event := domain.PasswordChangedEvent{
		EventID:         uuid.NewString(),
		UserID:          userID,
		ChangedAt:       at,
		Reason:          RevokeReasonPasswordReset,
		SessionsRevoked: sessionsRevoked,
	}
	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.logger.Warn("password changed event publish failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

func genericInitiateResult(requestID string) *InitiateResult {
	return &InitiateResult{
		Code:             CodeResetRequested,
		Message:          "If an account exists for that address, a reset link has been sent.",
		CanResetPassword: true,
		RequestID:        requestID,
	}
}

func (s *PasswordResetService) countInitiate(outcome string) {
	if s.metrics != nil {
		s.metrics.ResetInitiations.WithLabelValues(outcome).Inc()
	}
}

func (s *PasswordResetService) countComplete(outcome string) {
	if s.metrics != nil {
		s.metrics.ResetCompletions.WithLabelValues(outcome).Inc()
	}
}

func (s *PasswordResetService) countSessionsRevoked(n int) {
	if s.metrics != nil && n > 0 {
		s.metrics.SessionsRevoked.Add(float64(n))
	}
}
