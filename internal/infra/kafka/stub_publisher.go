package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aurelhotels/credential-service/internal/core/domain"
	"github.com/aurelhotels/credential-service/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishPasswordResetRequested logs credentials.password.reset_requested events.
func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := map[string]any{
		"user_id":      event.UserID,
		"request_id":   event.RequestID,
		"masked_email": event.MaskedEmail,
		"expires_at":   event.ExpiresAt,
		"metadata":     event.Metadata,
	}
	p.logEvent("credentials.password.reset_requested", event.UserID, event.RequestedAt, payload)
	return nil
}

// PublishPasswordChanged logs credentials.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"user_id":          event.UserID,
		"changed_at":       event.ChangedAt,
		"reason":           event.Reason,
		"sessions_revoked": event.SessionsRevoked,
		"metadata":         event.Metadata,
	}
	p.logEvent("credentials.password.changed", event.UserID, event.ChangedAt, payload)
	return nil
}

// PublishEmailRequested logs notifications.email.requested events.
func (p *StubPublisher) PublishEmailRequested(_ context.Context, event domain.EmailRequestedEvent) error {
	payload := map[string]any{
		"to":       event.To,
		"subject":  event.Subject,
		"template": event.Template,
	}
	p.logEvent("notifications.email.requested", "", event.CreatedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
