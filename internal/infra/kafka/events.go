package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aurelhotels/credential-service/internal/core/domain"
	"github.com/aurelhotels/credential-service/internal/core/port"
	"github.com/aurelhotels/credential-service/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishPasswordResetRequested publishes credentials.password.reset_requested events.
func (p *EventPublisher) PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := struct {
		UserID      string         `json:"user_id"`
		RequestID   string         `json:"request_id"`
		RequestedAt time.Time      `json:"requested_at"`
		Email       string         `json:"email"`
		MaskedEmail string         `json:"masked_email"`
		IPAddress   *string        `json:"ip_address,omitempty"`
		ExpiresAt   time.Time      `json:"expires_at"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		UserID:      event.UserID,
		RequestID:   event.RequestID,
		RequestedAt: event.RequestedAt.UTC(),
		Email:       event.Email,
		MaskedEmail: event.MaskedEmail,
		IPAddress:   event.IPAddress,
		ExpiresAt:   event.ExpiresAt.UTC(),
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "credentials.password.reset_requested", event.UserID, event.RequestedAt, payload)
}

// PublishPasswordChanged publishes credentials.password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		UserID          string         `json:"user_id"`
		ChangedAt       time.Time      `json:"changed_at"`
		Reason          string         `json:"reason"`
		SessionsRevoked int            `json:"sessions_revoked"`
		Metadata        map[string]any `json:"metadata,omitempty"`
	}{
		UserID:          event.UserID,
		ChangedAt:       event.ChangedAt.UTC(),
		Reason:          event.Reason,
		SessionsRevoked: event.SessionsRevoked,
		Metadata:        event.Metadata,
	}

	return p.publish(ctx, event.EventID, "credentials.password.changed", event.UserID, event.ChangedAt, payload)
}

// PublishEmailRequested publishes notifications.email.requested events for
// the downstream delivery service.
func (p *EventPublisher) PublishEmailRequested(ctx context.Context, event domain.EmailRequestedEvent) error {
	payload := struct {
		To        string            `json:"to"`
		Subject   string            `json:"subject"`
		Template  string            `json:"template"`
		Variables map[string]string `json:"variables,omitempty"`
		CreatedAt time.Time         `json:"created_at"`
	}{
		To:        event.To,
		Subject:   event.Subject,
		Template:  event.Template,
		Variables: event.Variables,
		CreatedAt: event.CreatedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "notifications.email.requested", "", event.CreatedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
