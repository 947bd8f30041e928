package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/campuswell/wellness-api/internal/core/domain"
	"github.com/campuswell/wellness-api/internal/core/port"
)

// ResendLimitStore keeps resend windows in process memory. State is lost on
// restart and is not shared across instances; it serves single-instance
// deployments and tests, with the Redis store as the shared-state option.
type ResendLimitStore struct {
	mu      sync.Mutex
	windows map[string]domain.ResendWindow
	policy  domain.ResendPolicy
}

// NewResendLimitStore constructs an in-memory store enforcing the policy.
func NewResendLimitStore(policy domain.ResendPolicy) *ResendLimitStore {
	return &ResendLimitStore{
		windows: make(map[string]domain.ResendWindow),
		policy:  policy,
	}
}

// Check evaluates the stored window without consuming budget. Expired windows
// are discarded eagerly so the map does not grow with stale keys.
func (s *ResendLimitStore) Check(_ context.Context, email string, now time.Time) (domain.ResendDecision, error) {
	key := normalizeKey(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	window, ok := s.windows[key]
	if !ok {
		return domain.EvaluateResend(nil, now, s.policy), nil
	}

	if window.Expired(now) {
		delete(s.windows, key)
		return domain.EvaluateResend(nil, now, s.policy), nil
	}

	return domain.EvaluateResend(&window, now, s.policy), nil
}

// Record consumes one attempt. The read-modify-write happens under the store
// mutex, so two concurrent recorders for the same email cannot both start a
// fresh window.
func (s *ResendLimitStore) Record(_ context.Context, email string, now time.Time) error {
	key := normalizeKey(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	var current *domain.ResendWindow
	if window, ok := s.windows[key]; ok {
		current = &window
	}

	s.windows[key] = domain.Advance(current, now, s.policy)
	return nil
}

func normalizeKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ port.ResendLimitStore = (*ResendLimitStore)(nil)
