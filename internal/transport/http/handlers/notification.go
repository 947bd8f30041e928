package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/campuswell/wellness-api/internal/core/port"
	"github.com/campuswell/wellness-api/internal/infra/logger"
)

type noopDispatcher struct{}

func (noopDispatcher) SendVerificationCode(context.Context, port.VerificationNotification) error {
	return nil
}

// LoggingNotificationDispatcher records verification dispatches for
// observability without delivering them. Production deployments swap in a
// real mail sender; development keeps this one.
type LoggingNotificationDispatcher struct {
	logger *zap.Logger
}

// NewLoggingNotificationDispatcher constructs a notification dispatcher backed by structured logging.
func NewLoggingNotificationDispatcher(log *zap.Logger) port.NotificationDispatcher {
	if log == nil {
		return noopDispatcher{}
	}
	return &LoggingNotificationDispatcher{logger: log}
}

func (d *LoggingNotificationDispatcher) SendVerificationCode(_ context.Context, notification port.VerificationNotification) error {
	if d == nil || d.logger == nil {
		return nil
	}

	d.logger.Info("dispatch verification code",
		zap.String("email", logger.MaskEmail(notification.Email)),
		zap.String("code", logger.MaskString(notification.Code)),
		zap.Time("expires_at", notification.ExpiresAt),
	)
	return nil
}
