package port

import (
	"context"
	"time"
)

// RateLimitStore defines the persistence operations required to enforce the
// IP-scoped sliding-window limits applied by the HTTP middleware. This is
// independent of the per-email fixed-window ResendLimitStore.
type RateLimitStore interface {
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}
