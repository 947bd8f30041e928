package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuswell/wellness-api/internal/core/domain"
	"github.com/campuswell/wellness-api/internal/core/port"
	"github.com/campuswell/wellness-api/internal/infra/logger"
	"github.com/campuswell/wellness-api/internal/repository"
)

const (
	otpPurposeEmailVerification = "email_verification"

	defaultSendTimeout    = 10 * time.Second
	defaultOTPTTL         = 10 * time.Minute
	defaultOTPMaxAttempts = 5

	verificationCodeDigits = 6
)

var (
	// ErrEmailRequired indicates the request carried no email address.
	ErrEmailRequired = errors.New("email is required")
	// ErrEmailInvalid indicates the email failed format validation.
	ErrEmailInvalid = errors.New("email format is invalid")
	// ErrUserNotFound covers both unknown addresses and already-verified
	// accounts; the two are indistinguishable to callers on purpose.
	ErrUserNotFound = errors.New("user not found or already verified")
	// ErrCodeRequired indicates the verification payload carried no code.
	ErrCodeRequired = errors.New("verification code is required")
	// ErrCodeInvalid indicates the supplied code does not match.
	ErrCodeInvalid = errors.New("verification code is invalid")
	// ErrCodeExpired indicates the code lapsed or was never requested.
	ErrCodeExpired = errors.New("verification code has expired")
	// ErrTooManyCodeAttempts indicates the guess budget for a code is spent.
	ErrTooManyCodeAttempts = errors.New("too many verification attempts")
)

// emailPattern matches the validation applied at the web tier; kept identical
// so both tiers accept the same addresses.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ResendRateLimitedError reports a limiter rejection together with the wait
// hint the HTTP surface turns into a human-readable message.
type ResendRateLimitedError struct {
	Decision domain.ResendDecision
}

func (e *ResendRateLimitedError) Error() string {
	if e.Decision.Outcome == domain.ResendTooSoon {
		return fmt.Sprintf("resend rate limited: retry in %ds", e.Decision.RetryAfterSeconds())
	}
	return fmt.Sprintf("resend rate limited: retry in %dm", e.Decision.RetryAfterMinutes())
}

// ResendResult describes an accepted resend.
type ResendResult struct {
	Email   string
	Message string
}

// VerifyResult describes a successful email verification.
type VerifyResult struct {
	Email   string
	Message string
}

// VerificationService coordinates resend rate limiting, code issuance, and
// email verification.
type VerificationService struct {
	users          port.UserDirectory
	limits         port.ResendLimitStore
	otps           port.OTPStore
	dispatcher     port.NotificationDispatcher
	events         port.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
	generateCode   func() (string, error)
	sendTimeout    time.Duration
	otpTTL         time.Duration
	otpMaxAttempts int
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(users port.UserDirectory, limits port.ResendLimitStore, otps port.OTPStore, dispatcher port.NotificationDispatcher, events port.EventPublisher, log *zap.Logger) *VerificationService {
	if log == nil {
		log = zap.NewNop()
	}

	return &VerificationService{
		users:          users,
		limits:         limits,
		otps:           otps,
		dispatcher:     dispatcher,
		events:         events,
		logger:         log,
		now:            time.Now,
		generateCode:   randomCode,
		sendTimeout:    defaultSendTimeout,
		otpTTL:         defaultOTPTTL,
		otpMaxAttempts: defaultOTPMaxAttempts,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *VerificationService) WithClock(clock func() time.Time) *VerificationService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// WithSendTimeout bounds the downstream dispatch call.
func (s *VerificationService) WithSendTimeout(timeout time.Duration) *VerificationService {
	if timeout > 0 {
		s.sendTimeout = timeout
	}
	return s
}

// WithOTPTTL adjusts how long issued codes stay valid.
func (s *VerificationService) WithOTPTTL(ttl time.Duration) *VerificationService {
	if ttl > 0 {
		s.otpTTL = ttl
	}
	return s
}

// WithCodeGenerator overrides code generation, used in tests.
func (s *VerificationService) WithCodeGenerator(gen func() (string, error)) *VerificationService {
	if gen != nil {
		s.generateCode = gen
	}
	return s
}

// ResendVerification validates the address, consults the fixed-window
// limiter, and dispatches a fresh code. Rate-limit budget is consumed only
// after the dispatch succeeded, so a failed send can be retried immediately.
func (s *VerificationService) ResendVerification(ctx context.Context, email string) (*ResendResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.Verified {
		return nil, ErrUserNotFound
	}

	now := s.now().UTC()

	decision, err := s.limits.Check(ctx, normalized, now)
	if err != nil {
		return nil, fmt.Errorf("check resend limit: %w", err)
	}
	if !decision.Allowed() {
		return nil, &ResendRateLimitedError{Decision: decision}
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate verification code: %w", err)
	}

	record, err := s.otps.Store(ctx, otpPurposeEmailVerification, normalized, code, s.otpTTL)
	if err != nil {
		return nil, fmt.Errorf("store verification code: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	if err := s.dispatcher.SendVerificationCode(sendCtx, port.VerificationNotification{
		Email:     normalized,
		Name:      user.Name,
		Code:      code,
		ExpiresAt: record.ExpiresAt,
	}); err != nil {
		s.logger.Warn("verification code dispatch failed",
			zap.String("email", logger.MaskEmail(normalized)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("dispatch verification code: %w", err)
	}

	if err := s.limits.Record(ctx, normalized, now); err != nil {
		// The code was already delivered; surfacing an error here would let
		// the caller retry a send that succeeded.
		s.logger.Warn("record resend attempt failed",
			zap.String("email", logger.MaskEmail(normalized)),
			zap.Error(err),
		)
	}

	s.publishResent(ctx, user.ID, normalized, now)

	return &ResendResult{
		Email:   normalized,
		Message: "Verification code sent successfully",
	}, nil
}

// VerifyEmail confirms a code and marks the account verified. Wrong guesses
// are counted; spending the guess budget invalidates the code.
func (s *VerificationService) VerifyEmail(ctx context.Context, email, code string) (*VerifyResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCodeRequired
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.Verified {
		return nil, ErrUserNotFound
	}

	record, err := s.otps.Fetch(ctx, otpPurposeEmailVerification, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCodeExpired
		}
		return nil, fmt.Errorf("fetch verification code: %w", err)
	}

	now := s.now().UTC()
	if now.After(record.ExpiresAt) {
		_ = s.otps.Delete(ctx, otpPurposeEmailVerification, normalized)
		return nil, ErrCodeExpired
	}

	if record.Attempts >= s.otpMaxAttempts {
		return nil, ErrTooManyCodeAttempts
	}

	if record.Code != code {
		attempts, incErr := s.otps.IncrementAttempts(ctx, otpPurposeEmailVerification, normalized)
		if incErr != nil {
			s.logger.Warn("increment code attempts failed", zap.Error(incErr))
		}
		if attempts >= s.otpMaxAttempts {
			_ = s.otps.Delete(ctx, otpPurposeEmailVerification, normalized)
			return nil, ErrTooManyCodeAttempts
		}
		return nil, ErrCodeInvalid
	}

	if err := s.users.MarkVerified(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("mark user verified: %w", err)
	}

	if err := s.otps.Delete(ctx, otpPurposeEmailVerification, normalized); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("delete used verification code failed", zap.Error(err))
	}

	s.publishVerified(ctx, user.ID, normalized, now)

	return &VerifyResult{
		Email:   normalized,
		Message: "Email verified successfully",
	}, nil
}

func (s *VerificationService) publishResent(ctx context.Context, userID, email string, at time.Time) {
	if s.events == nil {
		return
	}

	event := domain.VerificationResentEvent{
		EventID:     uuid.NewString(),
		UserID:      userID,
		MaskedEmail: logger.MaskEmail(email),
		ResentAt:    at,
	}
	if err := s.events.PublishVerificationResent(ctx, event); err != nil {
		s.logger.Warn("publish verification resent event failed", zap.Error(err))
	}
}

func (s *VerificationService) publishVerified(ctx context.Context, userID, email string, at time.Time) {
	if s.events == nil {
		return
	}

	event := domain.EmailVerifiedEvent{
		EventID:     uuid.NewString(),
		UserID:      userID,
		MaskedEmail: logger.MaskEmail(email),
		VerifiedAt:  at,
	}
	if err := s.events.PublishEmailVerified(ctx, event); err != nil {
		s.logger.Warn("publish email verified event failed", zap.Error(err))
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return "", ErrEmailInvalid
	}
	return strings.ToLower(email), nil
}

func randomCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < verificationCodeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}

	return fmt.Sprintf("%0*d", verificationCodeDigits, n), nil
}
