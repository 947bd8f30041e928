package port

import (
	"context"

	"github.com/campuswell/wellness-api/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishVerificationResent(ctx context.Context, event domain.VerificationResentEvent) error
	PublishEmailVerified(ctx context.Context, event domain.EmailVerifiedEvent) error
	PublishMoodLogged(ctx context.Context, event domain.MoodLoggedEvent) error
	PublishGoalCreated(ctx context.Context, event domain.GoalCreatedEvent) error
}
