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

	"github.com/campuswell/wellness-api/internal/core/domain"
	"github.com/campuswell/wellness-api/internal/core/port"
	"github.com/campuswell/wellness-api/internal/infra/config"
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

// PublishVerificationResent publishes campus.verification.resent events.
func (p *EventPublisher) PublishVerificationResent(ctx context.Context, event domain.VerificationResentEvent) error {
	payload := struct {
		UserID      string         `json:"user_id"`
		MaskedEmail string         `json:"masked_email"`
		ResentAt    time.Time      `json:"resent_at"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		UserID:      event.UserID,
		MaskedEmail: event.MaskedEmail,
		ResentAt:    event.ResentAt.UTC(),
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "campus.verification.resent", event.UserID, event.ResentAt, payload)
}

// PublishEmailVerified publishes campus.email.verified events.
func (p *EventPublisher) PublishEmailVerified(ctx context.Context, event domain.EmailVerifiedEvent) error {
	payload := struct {
		UserID      string         `json:"user_id"`
		MaskedEmail string         `json:"masked_email"`
		VerifiedAt  time.Time      `json:"verified_at"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		UserID:      event.UserID,
		MaskedEmail: event.MaskedEmail,
		VerifiedAt:  event.VerifiedAt.UTC(),
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "campus.email.verified", event.UserID, event.VerifiedAt, payload)
}

// PublishMoodLogged publishes campus.wellness.mood.logged events.
func (p *EventPublisher) PublishMoodLogged(ctx context.Context, event domain.MoodLoggedEvent) error {
	payload := struct {
		UserID       string         `json:"user_id"`
		EntryID      string         `json:"entry_id"`
		Score        int            `json:"score"`
		QualityScore int            `json:"quality_score"`
		LoggedAt     time.Time      `json:"logged_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		UserID:       event.UserID,
		EntryID:      event.EntryID,
		Score:        event.Score,
		QualityScore: event.QualityScore,
		LoggedAt:     event.LoggedAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, "campus.wellness.mood.logged", event.UserID, event.LoggedAt, payload)
}

// PublishGoalCreated publishes campus.wellness.goal.created events.
func (p *EventPublisher) PublishGoalCreated(ctx context.Context, event domain.GoalCreatedEvent) error {
	payload := struct {
		UserID    string         `json:"user_id"`
		GoalID    string         `json:"goal_id"`
		Category  string         `json:"category"`
		Target    int            `json:"target"`
		CreatedAt time.Time      `json:"created_at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		UserID:    event.UserID,
		GoalID:    event.GoalID,
		Category:  event.Category,
		Target:    event.Target,
		CreatedAt: event.CreatedAt.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "campus.wellness.goal.created", event.UserID, event.CreatedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
