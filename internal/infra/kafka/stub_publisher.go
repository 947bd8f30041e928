package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campuswell/wellness-api/internal/core/domain"
	"github.com/campuswell/wellness-api/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
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

// PublishVerificationResent logs campus.verification.resent events.
func (p *StubPublisher) PublishVerificationResent(_ context.Context, event domain.VerificationResentEvent) error {
	payload := map[string]any{
		"user_id":      event.UserID,
		"masked_email": event.MaskedEmail,
		"resent_at":    event.ResentAt,
		"metadata":     event.Metadata,
	}
	p.logEvent("campus.verification.resent", event.UserID, event.ResentAt, payload)
	return nil
}

// PublishEmailVerified logs campus.email.verified events.
func (p *StubPublisher) PublishEmailVerified(_ context.Context, event domain.EmailVerifiedEvent) error {
	payload := map[string]any{
		"user_id":      event.UserID,
		"masked_email": event.MaskedEmail,
		"verified_at":  event.VerifiedAt,
		"metadata":     event.Metadata,
	}
	p.logEvent("campus.email.verified", event.UserID, event.VerifiedAt, payload)
	return nil
}

// PublishMoodLogged logs campus.wellness.mood.logged events.
func (p *StubPublisher) PublishMoodLogged(_ context.Context, event domain.MoodLoggedEvent) error {
	payload := map[string]any{
		"user_id":       event.UserID,
		"entry_id":      event.EntryID,
		"score":         event.Score,
		"quality_score": event.QualityScore,
		"logged_at":     event.LoggedAt,
		"metadata":      event.Metadata,
	}
	p.logEvent("campus.wellness.mood.logged", event.UserID, event.LoggedAt, payload)
	return nil
}

// PublishGoalCreated logs campus.wellness.goal.created events.
func (p *StubPublisher) PublishGoalCreated(_ context.Context, event domain.GoalCreatedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"goal_id":    event.GoalID,
		"category":   event.Category,
		"target":     event.Target,
		"created_at": event.CreatedAt,
		"metadata":   event.Metadata,
	}
	p.logEvent("campus.wellness.goal.created", event.UserID, event.CreatedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
