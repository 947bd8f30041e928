package port

import (
	"context"
	"time"
)

// VerificationNotification carries everything needed to deliver a code.
type VerificationNotification struct {
	Email     string
	Name      string
	Code      string
	ExpiresAt time.Time
}

// NotificationDispatcher is the downstream send collaborator. An error from
// SendVerificationCode means the code was not delivered and the caller must
// not consume rate-limit budget for the attempt.
type NotificationDispatcher interface {
	SendVerificationCode(ctx context.Context, payload VerificationNotification) error
}
