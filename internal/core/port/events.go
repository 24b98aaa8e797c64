package port

import (
	"context"

	"github.com/aurelhotels/credential-service/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishEmailRequested(ctx context.Context, event domain.EmailRequestedEvent) error
}
