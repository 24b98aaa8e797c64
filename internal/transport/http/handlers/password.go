package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aurelhotels/credential-service/internal/transport/http/middleware"
	"github.com/aurelhotels/credential-service/internal/usecase"
)

// PasswordHandler exposes the password reset endpoints.
type PasswordHandler struct {
	reset *usecase.PasswordResetService
}

// NewPasswordHandler builds the handler.
func NewPasswordHandler(reset *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{reset: reset}
}

// ForgotPassword starts the reset flow. The response never reveals whether the
// address belongs to an account.
func (h *PasswordHandler) ForgotPassword(c *gin.Context) {
	if h.reset == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "password reset unavailable"))
		return
	}

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "a valid email address is required"))
		return
	}

	reqCtx := middleware.GetRequestContext(c)
	result, err := h.reset.InitiateReset(c.Request.Context(), req.Email, usecase.RequestContext{
		IP:        reqCtx.IP,
		UserAgent: reqCtx.UserAgent,
	})
	if err != nil {
		var rateLimited *usecase.RateLimitExceededError
		if errors.As(err, &rateLimited) {
			h.respondRateLimited(c, rateLimited)
			return
		}
		resp := NewErrorResponse(c, "unable to process the reset request")
		resp.Code = usecase.CodeResetFailed
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	c.JSON(http.StatusAccepted, ForgotPasswordResponse{
		Success:          true,
		Code:             result.Code,
		Message:          result.Message,
		CanResetPassword: result.CanResetPassword,
		AccountType:      result.AccountType,
		RequestID:        result.RequestID,
	})
}

// ValidateResetToken checks a token without consuming it.
func (h *PasswordHandler) ValidateResetToken(c *gin.Context) {
	if h.reset == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "password reset unavailable"))
		return
	}

	var req ValidateResetTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "a reset token is required"))
		return
	}

	result, err := h.reset.ValidateToken(c.Request.Context(), req.Token)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrResetTokenInvalid, Status: http.StatusBadRequest, Code: usecase.CodeInvalidResetToken, Message: "reset token is invalid or expired"},
			{Err: usecase.ErrAccountDeactivated, Status: http.StatusForbidden, Code: usecase.CodeAccountDeactivated, Message: "account is deactivated"},
		}, http.StatusInternalServerError, usecase.CodeResetFailed, "unable to validate the reset token")
		return
	}

	c.JSON(http.StatusOK, ValidateResetTokenResponse{
		Valid:            true,
		MaskedEmail:      result.MaskedEmail,
		ExpiresAt:        result.ExpiresAt,
		SecondsRemaining: result.SecondsRemaining,
	})
}

// ResetPassword redeems a token for a new password.
func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	if h.reset == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "password reset unavailable"))
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "token, new password, and confirmation are required"))
		return
	}

	result, err := h.reset.CompleteReset(c.Request.Context(), req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		var weak *usecase.PasswordTooWeakError
		if errors.As(err, &weak) {
			h.respondWeakPassword(c, weak)
			return
		}
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPasswordMismatch, Status: http.StatusBadRequest, Code: usecase.CodePasswordMismatch, Message: "passwords do not match"},
			{Err: usecase.ErrPasswordReused, Status: http.StatusBadRequest, Code: usecase.CodePasswordReused, Message: "password was used recently, choose a different one"},
			{Err: usecase.ErrResetTokenInvalid, Status: http.StatusBadRequest, Code: usecase.CodeInvalidResetToken, Message: "reset token is invalid or expired"},
			{Err: usecase.ErrAccountDeactivated, Status: http.StatusForbidden, Code: usecase.CodeAccountDeactivated, Message: "account is deactivated"},
		}, http.StatusInternalServerError, usecase.CodeResetFailed, "unable to reset the password")
		return
	}

	c.JSON(http.StatusOK, ResetPasswordResponse{
		Success:         true,
		Code:            usecase.CodeResetCompleted,
		Message:         "Password has been reset. Please sign in with your new password.",
		ChangedAt:       result.ChangedAt,
		SessionsRevoked: result.SessionsRevoked,
	})
}

func (h *PasswordHandler) respondRateLimited(c *gin.Context, err *usecase.RateLimitExceededError) {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	c.JSON(http.StatusTooManyRequests, RateLimitedResponse{
		Error:         "too many password reset requests",
		Code:          usecase.CodeRateLimitExceeded,
		WaitMinutes:   err.WaitMinutes,
		AttemptsToday: err.AttemptsToday,
		TraceID:       traceIDStr,
	})
}

func (h *PasswordHandler) respondWeakPassword(c *gin.Context, err *usecase.PasswordTooWeakError) {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	violations := make([]PasswordViolationPayload, 0, len(err.Result.Violations))
	for _, v := range err.Result.Violations {
		violations = append(violations, PasswordViolationPayload{Code: v.Code, Message: v.Message})
	}

	c.JSON(http.StatusBadRequest, WeakPasswordResponse{
		Error:      "password does not meet the strength requirements",
		Code:       usecase.CodePasswordTooWeak,
		Violations: violations,
		Score:      err.Result.Score,
		TraceID:    traceIDStr,
	})
}
