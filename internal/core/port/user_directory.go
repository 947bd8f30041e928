package port

import (
	"context"
	"time"

	"github.com/campuswell/wellness-api/internal/core/domain"
)

// UserDirectory exposes the account lookups the verification flow needs.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	MarkVerified(ctx context.Context, userID string, at time.Time) error
}
