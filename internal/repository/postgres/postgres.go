package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgExecutor abstracts over a pool, transaction, or mock.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories groups the PostgreSQL-backed repositories.
type Repositories struct {
	Users *UserRepository
	Moods *MoodEntryRepository
	Goals *GoalRepository
}

// NewRepositories wires all repositories on the shared pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users: NewUserRepository(pool),
		Moods: NewMoodEntryRepository(pool),
		Goals: NewGoalRepository(pool),
	}
}
