package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aurelhotels/credential-service/internal/infra/security"
)

// Machine-readable result codes carried on the success/failure envelopes.
// The invalid-token code deliberately covers not-found, expired, and used so
// callers cannot probe token state.
const (
	CodeResetRequested     = "RESET_REQUESTED"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeInvalidResetToken  = "INVALID_RESET_TOKEN"
	CodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
	CodePasswordMismatch   = "PASSWORD_MISMATCH"
	CodePasswordTooWeak    = "PASSWORD_TOO_WEAK"
	CodePasswordReused     = "PASSWORD_REUSED"
	CodeResetCompleted     = "RESET_COMPLETED"
	CodeResetFailed        = "RESET_FAILED"

	// AccountTypeGoogleOnly signals a passwordless account with a linked
	// Google identity on an otherwise successful initiate envelope.
	AccountTypeGoogleOnly = "GOOGLE_ONLY"
)

var (
	// ErrResetUnavailable indicates the service is not properly configured.
	ErrResetUnavailable = errors.New("password reset service unavailable")
	// ErrResetTokenInvalid is the uniform signal for unknown, expired, and
	// already-used tokens.
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
	// ErrAccountDeactivated indicates the token's owner can no longer sign in.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrPasswordMismatch indicates the confirmation did not match.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrPasswordReused indicates the candidate matches a recent password.
	ErrPasswordReused = errors.New("password was used recently")
	// ErrSessionInvalid is the uniform signal for unknown, expired, and
	// revoked sessions.
	ErrSessionInvalid = errors.New("session invalid or expired")
)

// PasswordTooWeakError carries the full violation list from the strength
// validator; every violated rule is reported, not just the first.
type PasswordTooWeakError struct {
	Result security.PasswordValidationResult
}

// Error implements error.
func (e *PasswordTooWeakError) Error() string {
	messages := make([]string, 0, len(e.Result.Violations))
	for _, v := range e.Result.Violations {
		messages = append(messages, v.Message)
	}
	return fmt.Sprintf("password too weak: %s", strings.Join(messages, "; "))
}

// RateLimitExceededError reports why a reset request was throttled. Exactly
// one of WaitMinutes or AttemptsToday is meaningful: WaitMinutes for the
// cooldown between consecutive attempts, AttemptsToday for the daily cap.
type RateLimitExceededError struct {
	WaitMinutes   int
	AttemptsToday int
	RetryAfter    time.Duration
}

// Error implements error.
func (e *RateLimitExceededError) Error() string {
	if e.WaitMinutes > 0 {
		return fmt.Sprintf("rate limit exceeded: retry in %d minutes", e.WaitMinutes)
	}
	return fmt.Sprintf("rate limit exceeded: %d attempts in the current window", e.AttemptsToday)
}
