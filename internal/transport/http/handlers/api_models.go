package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// ForgotPasswordRequest starts the reset flow for an email address.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ForgotPasswordResponse is deliberately identical for known and unknown
// accounts; only the Google-only branch varies, and that is the caller's own
// account state. RequestID is always present and always random, so neither
// its presence nor its shape distinguishes the branches.
type ForgotPasswordResponse struct {
	Success          bool   `json:"success"`
	Code             string `json:"code"`
	Message          string `json:"message"`
	CanResetPassword bool   `json:"can_reset_password"`
	AccountType      string `json:"account_type,omitempty"`
	RequestID        string `json:"request_id"`
}

// ValidateResetTokenRequest carries the raw token to check.
type ValidateResetTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ValidateResetTokenResponse describes a live token without revealing the account.
type ValidateResetTokenResponse struct {
	Valid            bool      `json:"valid"`
	MaskedEmail      string    `json:"masked_email"`
	ExpiresAt        time.Time `json:"expires_at"`
	SecondsRemaining int64     `json:"seconds_remaining"`
}

// ResetPasswordRequest redeems a token for a new password.
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ResetPasswordResponse confirms a completed reset.
type ResetPasswordResponse struct {
	Success         bool      `json:"success"`
	Code            string    `json:"code"`
	Message         string    `json:"message"`
	ChangedAt       time.Time `json:"changed_at"`
	SessionsRevoked int       `json:"sessions_revoked"`
}

// PasswordViolationPayload reports one violated strength rule.
type PasswordViolationPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WeakPasswordResponse reports every violated strength rule plus the advisory score.
type WeakPasswordResponse struct {
	Error      string                     `json:"error"`
	Code       string                     `json:"code"`
	Violations []PasswordViolationPayload `json:"violations"`
	Score      int                        `json:"score"`
	TraceID    string                     `json:"trace_id,omitempty"`
}

// RateLimitedResponse explains a throttled reset request.
type RateLimitedResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	WaitMinutes   int    `json:"wait_minutes,omitempty"`
	AttemptsToday int    `json:"attempts_today,omitempty"`
	TraceID       string `json:"trace_id,omitempty"`
}

// TokenStatsResponse reports token issuance aggregates over a window.
type TokenStatsResponse struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Issued      int       `json:"issued"`
	Used        int       `json:"used"`
	Expired     int       `json:"expired"`
	Active      int       `json:"active"`
}

// CleanupResponse reports how many dead tokens were removed.
type CleanupResponse struct {
	Purged int `json:"purged"`
}

// HealthResponse reports liveness status.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports dependency health.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
