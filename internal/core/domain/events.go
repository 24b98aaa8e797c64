package domain

import "time"

// PasswordResetRequestedEvent is published when a reset token has been issued
// so the notification service can deliver the reset email.
type PasswordResetRequestedEvent struct {
	EventID     string         `json:"event_id"`
	UserID      string         `json:"user_id"`
	RequestID   string         `json:"request_id"`
	RequestedAt time.Time      `json:"requested_at"`
	Email       string         `json:"email"`
	MaskedEmail string         `json:"masked_email"`
	ExpiresAt   time.Time      `json:"expires_at"`
	IPAddress   *string        `json:"ip_address,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// PasswordChangedEvent is published after a password has been successfully
// replaced, whether by reset or by an authenticated change.
type PasswordChangedEvent struct {
	EventID         string         `json:"event_id"`
	UserID          string         `json:"user_id"`
	ChangedAt       time.Time      `json:"changed_at"`
	Reason          string         `json:"reason"`
	SessionsRevoked int            `json:"sessions_revoked"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// EmailRequestedEvent asks the downstream notification service to deliver a
// templated email. The credential core never talks SMTP itself.
type EmailRequestedEvent struct {
	EventID   string            `json:"event_id"`
	To        string            `json:"to"`
	Subject   string            `json:"subject"`
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
