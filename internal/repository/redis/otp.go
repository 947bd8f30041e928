package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/campuswell/wellness-api/internal/core/port"
	"github.com/campuswell/wellness-api/internal/repository"
)

const (
	defaultOTPPrefix = "otp"

	fieldCode      = "code"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
	fieldAttempts  = "attempts"
)

// OTPStore persists short-lived verification codes in Redis hashes. The TTL
// enforces expiry; the attempts field caps guessing.
type OTPStore struct {
	client *red.Client
	prefix string
	now    func() time.Time
}

// NewOTPStore constructs an OTP store with the provided key prefix.
func NewOTPStore(client *red.Client, keyPrefix string) *OTPStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultOTPPrefix
	}

	return &OTPStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Store persists a code under purpose/identifier with the given TTL,
// replacing any previous code for the same pair.
func (s *OTPStore) Store(ctx context.Context, purpose, identifier, code string, ttl time.Duration) (*port.OTPRecord, error) {
	purpose = strings.TrimSpace(purpose)
	identifier = strings.TrimSpace(identifier)
	code = strings.TrimSpace(code)

	switch {
	case purpose == "":
		return nil, errors.New("purpose is required")
	case identifier == "":
		return nil, errors.New("identifier is required")
	case code == "":
		return nil, errors.New("code is required")
	case ttl <= 0:
		return nil, errors.New("ttl must be positive")
	}

	now := s.now().UTC()
	expiresAt := now.Add(ttl)
	key := s.key(purpose, identifier)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		fieldCode:      code,
		fieldCreatedAt: strconv.FormatInt(now.Unix(), 10),
		fieldExpiresAt: strconv.FormatInt(expiresAt.Unix(), 10),
		fieldAttempts:  "0",
	})
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis store otp: %w", err)
	}

	return &port.OTPRecord{
		Purpose:    purpose,
		Identifier: identifier,
		Code:       code,
		Attempts:   0,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}, nil
}

// Fetch retrieves the code for the provided purpose and identifier.
func (s *OTPStore) Fetch(ctx context.Context, purpose, identifier string) (*port.OTPRecord, error) {
	purpose = strings.TrimSpace(purpose)
	identifier = strings.TrimSpace(identifier)
	if purpose == "" || identifier == "" {
		return nil, errors.New("purpose and identifier are required")
	}

	values, err := s.client.HGetAll(ctx, s.key(purpose, identifier)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall otp: %w", err)
	}
	if len(values) == 0 || strings.TrimSpace(values[fieldCode]) == "" {
		return nil, repository.ErrNotFound
	}

	createdAt, err := parseUnix(values[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	expiresAt, err := parseUnix(values[fieldExpiresAt])
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}

	attempts := 0
	if raw := values[fieldAttempts]; raw != "" {
		if v, convErr := strconv.Atoi(raw); convErr == nil {
			attempts = v
		}
	}

	return &port.OTPRecord{
		Purpose:    purpose,
		Identifier: identifier,
		Code:       strings.TrimSpace(values[fieldCode]),
		Attempts:   attempts,
		CreatedAt:  createdAt,
		ExpiresAt:  expiresAt,
	}, nil
}

// IncrementAttempts bumps the guess counter and returns the new value.
func (s *OTPStore) IncrementAttempts(ctx context.Context, purpose, identifier string) (int, error) {
	if _, err := s.Fetch(ctx, purpose, identifier); err != nil {
		return 0, err
	}

	count, err := s.client.HIncrBy(ctx, s.key(purpose, identifier), fieldAttempts, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis hincrby otp attempts: %w", err)
	}

	return int(count), nil
}

// Delete removes the code, enforcing single-use semantics.
func (s *OTPStore) Delete(ctx context.Context, purpose, identifier string) error {
	purpose = strings.TrimSpace(purpose)
	identifier = strings.TrimSpace(identifier)
	if purpose == "" || identifier == "" {
		return errors.New("purpose and identifier are required")
	}

	deleted, err := s.client.Del(ctx, s.key(purpose, identifier)).Result()
	if err != nil {
		return fmt.Errorf("redis delete otp: %w", err)
	}
	if deleted == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// WithClock overrides the internal clock, used in tests.
func (s *OTPStore) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

func (s *OTPStore) key(purpose, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, purpose, strings.ToLower(identifier))
}

func parseUnix(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(v, 0).UTC(), nil
}

var _ port.OTPStore = (*OTPStore)(nil)
