package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/campuswell/wellness-api/internal/core/domain"
	"github.com/campuswell/wellness-api/internal/repository"
)

func TestMoodEntryRepositoryInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewMoodEntryRepository(mock)

	energy := 3
	entry := domain.MoodEntry{
		ID:        "entry-1",
		UserID:    "user-1",
		Score:     4,
		Energy:    &energy,
		Notes:     "Morning walk",
		Tags:      []string{"exercise"},
		CreatedAt: time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`INSERT INTO campus\.mood_entries`).
		WithArgs(entry.ID, entry.UserID, entry.Score, entry.Energy, entry.Stress, entry.Notes, entry.Tags, entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Insert(context.Background(), entry); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMoodEntryRepositoryListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewMoodEntryRepository(mock)

	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "user_id", "score", "energy", "stress", "notes", "tags", "created_at"}).
		AddRow("entry-1", "user-1", 3, nil, nil, "", []string{}, base).
		AddRow("entry-2", "user-1", 4, nil, nil, "better", []string{"sleep"}, base.AddDate(0, 0, 1))

	mock.ExpectQuery(`SELECT id, user_id, score, energy, stress, notes, tags, created_at FROM campus\.mood_entries`).
		WithArgs("user-1").
		WillReturnRows(rows)

	entries, err := repo.ListByUser(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "entry-1" || entries[1].ID != "entry-2" {
		t.Fatalf("unexpected order %+v", entries)
	}
	if entries[0].Energy != nil {
		t.Fatal("expected nil energy")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGoalRepositoryInsertAndList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewGoalRepository(mock)

	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	goal := domain.WellnessGoal{
		ID:        "goal-1",
		UserID:    "user-1",
		Name:      "Meditate",
		Target:    30,
		Current:   0,
		Unit:      "sessions",
		Category:  "meditation",
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO campus\.wellness_goals`).
		WithArgs(goal.ID, goal.UserID, goal.Name, goal.Target, goal.Current, goal.Unit, goal.Category, goal.CreatedAt, goal.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Insert(context.Background(), goal); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	rows := pgxmock.NewRows([]string{"id", "user_id", "name", "target", "current", "unit", "category", "created_at", "updated_at"}).
		AddRow("goal-1", "user-1", "Meditate", 30, 12, "sessions", "meditation", now, now)

	mock.ExpectQuery(`SELECT id, user_id, name, target, current, unit, category, created_at, updated_at FROM campus\.wellness_goals`).
		WithArgs("user-1").
		WillReturnRows(rows)

	goals, err := repo.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(goals) != 1 || goals[0].Current != 12 {
		t.Fatalf("unexpected goals %+v", goals)
	}
	if goals[0].Completed() {
		t.Fatal("expected goal incomplete")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGoalRepositoryUpdateProgress(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewGoalRepository(mock)

	mock.ExpectExec(`UPDATE campus\.wellness_goals SET current = \$1, updated_at = now\(\)`).
		WithArgs(25, "goal-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdateProgress(context.Background(), "goal-1", 25); err != nil {
		t.Fatalf("UpdateProgress returned error: %v", err)
	}

	mock.ExpectExec(`UPDATE campus\.wellness_goals`).
		WithArgs(25, "nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.UpdateProgress(context.Background(), "nope", 25); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
