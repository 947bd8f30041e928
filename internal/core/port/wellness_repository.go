package port

import (
	"context"

	"github.com/campuswell/wellness-api/internal/core/domain"
)

// MoodEntryRepository persists logged mood samples.
type MoodEntryRepository interface {
	Insert(ctx context.Context, entry domain.MoodEntry) error
	// ListByUser returns entries for the user ordered oldest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.MoodEntry, error)
}

// GoalRepository persists wellness goals.
type GoalRepository interface {
	Insert(ctx context.Context, goal domain.WellnessGoal) error
	ListByUser(ctx context.Context, userID string) ([]domain.WellnessGoal, error)
	UpdateProgress(ctx context.Context, goalID string, current int) error
}
