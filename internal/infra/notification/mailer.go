package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aurelhotels/credential-service/internal/core/domain"
	"github.com/aurelhotels/credential-service/internal/core/port"
	"github.com/aurelhotels/credential-service/internal/infra/logger"
)

// EventMailer implements port.Mailer by publishing delivery requests to the
// message bus. The platform's notification service owns templates and SMTP;
// this core only asks for a send.
type EventMailer struct {
	events port.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewEventMailer constructs a mailer backed by the event publisher.
func NewEventMailer(events port.EventPublisher, log *zap.Logger) *EventMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventMailer{
		events: events,
		logger: log,
		now:    time.Now,
	}
}

// Send publishes an email delivery request event.
func (m *EventMailer) Send(ctx context.Context, to, subject, template string, variables map[string]string) error {
	if m.events == nil {
		return fmt.Errorf("event publisher not configured")
	}

	event := domain.EmailRequestedEvent{
		EventID:   uuid.NewString(),
		To:        to,
		Subject:   subject,
		Template:  template,
		Variables: variables,
		CreatedAt: m.now().UTC(),
	}

	if err := m.events.PublishEmailRequested(ctx, event); err != nil {
		return fmt.Errorf("publish email request: %w", err)
	}

	m.logger.Debug("email delivery requested",
		zap.String("to", logger.MaskEmail(to)),
		zap.String("template", template),
	)

	return nil
}

var _ port.Mailer = (*EventMailer)(nil)
