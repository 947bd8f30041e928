package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/campuswell/wellness-api/internal/core/domain"
	"github.com/campuswell/wellness-api/internal/core/port"
	"github.com/campuswell/wellness-api/internal/repository"
)

// MoodEntryRepository implements port.MoodEntryRepository using PostgreSQL.
type MoodEntryRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewMoodEntryRepository wires a mood entry repository backed by any executor
// that satisfies pgExecutor.
func NewMoodEntryRepository(exec pgExecutor) *MoodEntryRepository {
	return &MoodEntryRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert stores a sanitized mood entry.
func (r *MoodEntryRepository) Insert(ctx context.Context, entry domain.MoodEntry) error {
	stmt, args, err := r.builder.
		Insert("campus.mood_entries").
		Columns("id", "user_id", "score", "energy", "stress", "notes", "tags", "created_at").
		Values(entry.ID, entry.UserID, entry.Score, entry.Energy, entry.Stress, entry.Notes, entry.Tags, entry.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert mood entry sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert mood entry: %w", err)
	}

	return nil
}

// ListByUser returns the user's entries ordered oldest first, which is the
// order the trend estimator expects.
func (r *MoodEntryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.MoodEntry, error) {
	query := r.builder.
		Select("id", "user_id", "score", "energy", "stress", "notes", "tags", "created_at").
		From("campus.mood_entries").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at ASC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select mood entries sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select mood entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.MoodEntry
	for rows.Next() {
		var entry domain.MoodEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Score, &entry.Energy, &entry.Stress, &entry.Notes, &entry.Tags, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mood entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mood entries: %w", err)
	}

	return entries, nil
}

// GoalRepository implements port.GoalRepository using PostgreSQL.
type GoalRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewGoalRepository wires a goal repository backed by any executor that
// satisfies pgExecutor.
func NewGoalRepository(exec pgExecutor) *GoalRepository {
	return &GoalRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert stores a new wellness goal.
func (r *GoalRepository) Insert(ctx context.Context, goal domain.WellnessGoal) error {
	stmt, args, err := r.builder.
		Insert("campus.wellness_goals").
		Columns("id", "user_id", "name", "target", "current", "unit", "category", "created_at", "updated_at").
		Values(goal.ID, goal.UserID, goal.Name, goal.Target, goal.Current, goal.Unit, goal.Category, goal.CreatedAt, goal.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert goal sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	return nil
}

// ListByUser returns the user's goals, newest first.
func (r *GoalRepository) ListByUser(ctx context.Context, userID string) ([]domain.WellnessGoal, error) {
	stmt, args, err := r.builder.
		Select("id", "user_id", "name", "target", "current", "unit", "category", "created_at", "updated_at").
		From("campus.wellness_goals").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select goals sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select goals: %w", err)
	}
	defer rows.Close()

	var goals []domain.WellnessGoal
	for rows.Next() {
		var goal domain.WellnessGoal
		if err := rows.Scan(&goal.ID, &goal.UserID, &goal.Name, &goal.Target, &goal.Current, &goal.Unit, &goal.Category, &goal.CreatedAt, &goal.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}

	return goals, nil
}

// UpdateProgress sets the goal's current progress.
func (r *GoalRepository) UpdateProgress(ctx context.Context, goalID string, current int) error {
	stmt, args, err := r.builder.
		Update("campus.wellness_goals").
		Set("current", current).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": goalID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update goal sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update goal progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var (
	_ port.MoodEntryRepository = (*MoodEntryRepository)(nil)
	_ port.GoalRepository      = (*GoalRepository)(nil)
)
