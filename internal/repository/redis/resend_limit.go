package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/campuswell/wellness-api/internal/core/domain"
	"github.com/campuswell/wellness-api/internal/core/port"
)

const (
	defaultResendPrefix = "verify:resend"

	fieldResendCount = "count"
	fieldLastAttempt = "last_attempt"
	fieldResetTime   = "reset_time"
)

// recordScript applies the increment-or-create transition atomically so that
// near-simultaneous recorders for the same email cannot both open a fresh
// window. Timestamps are unix milliseconds.
var recordScript = red.NewScript(`
local reset = tonumber(redis.call('HGET', KEYS[1], 'reset_time') or '0')
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
if reset > 0 and now <= reset then
  redis.call('HINCRBY', KEYS[1], 'count', 1)
  redis.call('HSET', KEYS[1], 'last_attempt', ARGV[1])
  redis.call('PEXPIRE', KEYS[1], reset - now)
else
  redis.call('HSET', KEYS[1], 'count', 1, 'last_attempt', ARGV[1], 'reset_time', now + window)
  redis.call('PEXPIRE', KEYS[1], window)
end
return redis.call('HGET', KEYS[1], 'count')
`)

// ResendLimitStore persists per-email resend windows in Redis hashes, giving
// every instance of the service the same view of the budget.
type ResendLimitStore struct {
	client *red.Client
	prefix string
	policy domain.ResendPolicy
}

// NewResendLimitStore constructs a Redis-backed store enforcing the policy.
func NewResendLimitStore(client *red.Client, keyPrefix string, policy domain.ResendPolicy) *ResendLimitStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultResendPrefix
	}

	return &ResendLimitStore{client: client, prefix: prefix, policy: policy}
}

// Check reads the stored window and evaluates it against the policy. The key
// carries a TTL matching the window, so expired state usually vanishes on its
// own; a lingering hash past its reset time is treated as absent.
func (s *ResendLimitStore) Check(ctx context.Context, email string, now time.Time) (domain.ResendDecision, error) {
	values, err := s.client.HGetAll(ctx, s.key(email)).Result()
	if err != nil {
		return domain.ResendDecision{}, fmt.Errorf("redis hgetall resend window: %w", err)
	}

	if len(values) == 0 {
		return domain.EvaluateResend(nil, now, s.policy), nil
	}

	window, err := parseWindow(values)
	if err != nil {
		return domain.ResendDecision{}, err
	}

	if window.Expired(now) {
		return domain.EvaluateResend(nil, now, s.policy), nil
	}

	return domain.EvaluateResend(window, now, s.policy), nil
}

// Record consumes one attempt via the atomic Lua transition.
func (s *ResendLimitStore) Record(ctx context.Context, email string, now time.Time) error {
	args := []any{
		strconv.FormatInt(now.UnixMilli(), 10),
		strconv.FormatInt(s.policy.Window.Milliseconds(), 10),
	}

	if err := recordScript.Run(ctx, s.client, []string{s.key(email)}, args...).Err(); err != nil {
		return fmt.Errorf("redis record resend attempt: %w", err)
	}

	return nil
}

func (s *ResendLimitStore) key(email string) string {
	return fmt.Sprintf("%s:%s", s.prefix, strings.ToLower(strings.TrimSpace(email)))
}

func parseWindow(values map[string]string) (*domain.ResendWindow, error) {
	count, err := strconv.Atoi(values[fieldResendCount])
	if err != nil {
		return nil, fmt.Errorf("parse resend count: %w", err)
	}

	last, err := parseMilli(values[fieldLastAttempt])
	if err != nil {
		return nil, fmt.Errorf("parse last attempt: %w", err)
	}

	reset, err := parseMilli(values[fieldResetTime])
	if err != nil {
		return nil, fmt.Errorf("parse reset time: %w", err)
	}

	return &domain.ResendWindow{Count: count, LastAttempt: last, ResetTime: reset}, nil
}

func parseMilli(raw string) (time.Time, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(v).UTC(), nil
}

var _ port.ResendLimitStore = (*ResendLimitStore)(nil)
