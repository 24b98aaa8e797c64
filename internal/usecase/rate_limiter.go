package usecase

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aurelhotels/credential-service/internal/core/port"
	"github.com/aurelhotels/credential-service/internal/infra/config"
	"github.com/aurelhotels/credential-service/internal/infra/logger"
)

const rateLimitKeyPrefix = "password_reset:"

// RateLimitDecision is the outcome of a limiter check. When Allowed is false,
// either WaitMinutes (cooldown between consecutive requests) or AttemptsToday
// (daily cap reached) explains why.
type RateLimitDecision struct {
	Allowed       bool
	AttemptsToday int
	WaitMinutes   int
}

// ResetRateLimiter enforces the per-email reset request policy: at most
// maxAttempts requests inside a sliding window, with a cooldown between
// consecutive requests. Checking and recording are separate so that denied
// requests never consume quota.
type ResetRateLimiter struct {
	store       port.RateLimitStore
	logger      *zap.Logger
	now         func() time.Time
	window      time.Duration
	maxAttempts int
	cooldown    time.Duration
}

// NewResetRateLimiter constructs the limiter from configuration.
func NewResetRateLimiter(store port.RateLimitStore, cfg config.RateLimitSettings, log *zap.Logger) *ResetRateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResetRateLimiter{
		store:       store,
		logger:      log,
		now:         time.Now,
		window:      cfg.WindowDuration,
		maxAttempts: cfg.MaxAttempts,
		cooldown:    cfg.Cooldown,
	}
}

// WithClock overrides the limiter's time source for tests.
func (l *ResetRateLimiter) WithClock(now func() time.Time) *ResetRateLimiter {
	if now != nil {
		l.now = now
	}
	return l
}

// Check evaluates the policy for the given email without consuming quota.
// Storage failures fail open: an unavailable limiter must not block all
// password resets, so the attempt is allowed and the error logged.
func (l *ResetRateLimiter) Check(ctx context.Context, email string) RateLimitDecision {
	key := rateLimitKey(email)
	reference := l.now().UTC()

	if err := l.store.TrimWindow(ctx, key, l.window, reference); err != nil {
		l.logger.Warn("rate limit trim failed, allowing request",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return RateLimitDecision{Allowed: true}
	}

	count, err := l.store.CountAttempts(ctx, key, l.window, reference)
	if err != nil {
		l.logger.Warn("rate limit count failed, allowing request",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return RateLimitDecision{Allowed: true}
	}

	if count >= l.maxAttempts {
		return RateLimitDecision{Allowed: false, AttemptsToday: count}
	}

	latest, found, err := l.store.LatestAttempt(ctx, key, l.window, reference)
	if err != nil {
		l.logger.Warn("rate limit latest-attempt lookup failed, allowing request",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return RateLimitDecision{Allowed: true, AttemptsToday: count}
	}
	if found {
		elapsed := reference.Sub(latest)
		if elapsed < l.cooldown {
			remaining := l.cooldown - elapsed
			return RateLimitDecision{
				Allowed:       false,
				AttemptsToday: count,
				WaitMinutes:   waitMinutes(remaining),
			}
		}
	}

	return RateLimitDecision{Allowed: true, AttemptsToday: count}
}

// Record consumes one unit of quota for the email. Failures are logged but
// not returned; a lost record must never fail the reset request itself.
func (l *ResetRateLimiter) Record(ctx context.Context, email string) {
	if err := l.store.RecordAttempt(ctx, rateLimitKey(email), l.now().UTC()); err != nil {
		l.logger.Warn("rate limit record failed",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
	}
}

func rateLimitKey(email string) string {
	return rateLimitKeyPrefix + NormalizeEmail(email)
}

// NormalizeEmail canonicalizes an address for lookups and limiter keys.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// waitMinutes converts the remaining cooldown to whole minutes, rounding up so
// the caller never retries too early.
func waitMinutes(remaining time.Duration) int {
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Minutes()))
}
