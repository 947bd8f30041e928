package port

import (
	"context"
	"time"
)

// OTPRecord is a stored one-time verification code.
type OTPRecord struct {
	Purpose    string
	Identifier string
	Code       string
	Attempts   int
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// OTPStore keeps short-lived verification codes with attempt counting.
type OTPStore interface {
	Store(ctx context.Context, purpose, identifier, code string, ttl time.Duration) (*OTPRecord, error)
	Fetch(ctx context.Context, purpose, identifier string) (*OTPRecord, error)
	IncrementAttempts(ctx context.Context, purpose, identifier string) (int, error)
	Delete(ctx context.Context, purpose, identifier string) error
}
