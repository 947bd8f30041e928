package port

import (
	"context"
	"time"

	"github.com/campuswell/wellness-api/internal/core/domain"
)

// ResendLimitStore persists the per-email fixed-window resend counters.
//
// Check is a read-only evaluation; Record consumes one attempt and must be
// atomic per key so that concurrent requests for the same email cannot both
// create a fresh window. Record is only invoked after the downstream send
// succeeded, so a failed send never consumes budget.
type ResendLimitStore interface {
	Check(ctx context.Context, email string, now time.Time) (domain.ResendDecision, error)
	Record(ctx context.Context, email string, now time.Time) error
}
