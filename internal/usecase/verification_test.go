package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/campuswell/wellness-api/internal/core/domain"
	"github.com/campuswell/wellness-api/internal/core/port"
	"github.com/campuswell/wellness-api/internal/repository"
)

type fakeUserDirectory struct {
	users    map[string]*domain.User
	verified []string
}

func (f *fakeUserDirectory) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserDirectory) MarkVerified(_ context.Context, userID string, _ time.Time) error {
	f.verified = append(f.verified, userID)
	return nil
}

type fakeLimitStore struct {
	decision  domain.ResendDecision
	checkErr  error
	recordErr error
	checked   []string
	recorded  []string
}

func (f *fakeLimitStore) Check(_ context.Context, email string, _ time.Time) (domain.ResendDecision, error) {
	f.checked = append(f.checked, email)
	return f.decision, f.checkErr
}

func (f *fakeLimitStore) Record(_ context.Context, email string, _ time.Time) error {
	f.recorded = append(f.recorded, email)
	return f.recordErr
}

type fakeOTPStore struct {
	stored   map[string]*port.OTPRecord
	storeErr error
	deleted  []string
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{stored: make(map[string]*port.OTPRecord)}
}

func (f *fakeOTPStore) Store(_ context.Context, purpose, identifier, code string, ttl time.Duration) (*port.OTPRecord, error) {
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	record := &port.OTPRecord{
		Purpose:    purpose,
		Identifier: identifier,
		Code:       code,
		ExpiresAt:  time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC).Add(ttl),
	}
	f.stored[identifier] = record
	return record, nil
}

func (f *fakeOTPStore) Fetch(_ context.Context, _, identifier string) (*port.OTPRecord, error) {
	record, ok := f.stored[identifier]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (f *fakeOTPStore) IncrementAttempts(_ context.Context, _, identifier string) (int, error) {
	record, ok := f.stored[identifier]
	if !ok {
		return 0, repository.ErrNotFound
	}
	record.Attempts++
	return record.Attempts, nil
}

func (f *fakeOTPStore) Delete(_ context.Context, _, identifier string) error {
	if _, ok := f.stored[identifier]; !ok {
		return repository.ErrNotFound
	}
	delete(f.stored, identifier)
	f.deleted = append(f.deleted, identifier)
	return nil
}

type fakeDispatcher struct {
	err  error
	sent []port.VerificationNotification
}

func (f *fakeDispatcher) SendVerificationCode(_ context.Context, payload port.VerificationNotification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, payload)
	return nil
}

type capturingPublisher struct {
	resent   []domain.VerificationResentEvent
	verified []domain.EmailVerifiedEvent
}

func (p *capturingPublisher) PublishVerificationResent(_ context.Context, event domain.VerificationResentEvent) error {
	p.resent = append(p.resent, event)
	return nil
}

func (p *capturingPublisher) PublishEmailVerified(_ context.Context, event domain.EmailVerifiedEvent) error {
	p.verified = append(p.verified, event)
	return nil
}

func (p *capturingPublisher) PublishMoodLogged(context.Context, domain.MoodLoggedEvent) error {
	return nil
}

func (p *capturingPublisher) PublishGoalCreated(context.Context, domain.GoalCreatedEvent) error {
	return nil
}

type verificationFixture struct {
	service    *VerificationService
	users      *fakeUserDirectory
	limits     *fakeLimitStore
	otps       *fakeOTPStore
	dispatcher *fakeDispatcher
	events     *capturingPublisher
}

func newVerificationFixture(t *testing.T) *verificationFixture {
	t.Helper()

	users := &fakeUserDirectory{users: map[string]*domain.User{
		"student@university.edu": {ID: "user-1", Email: "student@university.edu", Name: "Sam"},
		"done@university.edu":    {ID: "user-2", Email: "done@university.edu", Verified: true},
	}}
	limits := &fakeLimitStore{decision: domain.ResendDecision{Outcome: domain.ResendAllowed}}
	otps := newFakeOTPStore()
	dispatcher := &fakeDispatcher{}
	events := &capturingPublisher{}

	service := NewVerificationService(users, limits, otps, dispatcher, events, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC) }).
		WithCodeGenerator(func() (string, error) { return "482913", nil })

	return &verificationFixture{
		service:    service,
		users:      users,
		limits:     limits,
		otps:       otps,
		dispatcher: dispatcher,
		events:     events,
	}
}

func TestResendVerificationSuccess(t *testing.T) {
	fx := newVerificationFixture(t)

	result, err := fx.service.ResendVerification(context.Background(), "  Student@University.EDU ")
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if result.Email != "student@university.edu" {
		t.Fatalf("expected normalized email, got %q", result.Email)
	}
	if result.Message != "Verification code sent successfully" {
		t.Fatalf("unexpected message %q", result.Message)
	}

	if len(fx.dispatcher.sent) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(fx.dispatcher.sent))
	}
	if fx.dispatcher.sent[0].Code != "482913" {
		t.Fatalf("unexpected dispatched code %q", fx.dispatcher.sent[0].Code)
	}

	if len(fx.limits.recorded) != 1 || fx.limits.recorded[0] != "student@university.edu" {
		t.Fatalf("expected one recorded attempt, got %v", fx.limits.recorded)
	}
	if len(fx.events.resent) != 1 {
		t.Fatalf("expected one resent event, got %d", len(fx.events.resent))
	}
	if fx.events.resent[0].MaskedEmail == "student@university.edu" {
		t.Fatal("event must not carry the raw email address")
	}
}

func TestResendVerificationValidatesBeforeLimiter(t *testing.T) {
	fx := newVerificationFixture(t)

	cases := []struct {
		name  string
		email string
		want  error
	}{
		{"empty", "   ", ErrEmailRequired},
		{"no at sign", "studentuniversity.edu", ErrEmailInvalid},
		{"no domain dot", "student@university", ErrEmailInvalid},
		{"embedded space", "stu dent@university.edu", ErrEmailInvalid},
		{"unknown user", "ghost@university.edu", ErrUserNotFound},
		{"already verified", "done@university.edu", ErrUserNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.service.ResendVerification(context.Background(), tc.email)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if len(fx.limits.checked) != 0 {
		t.Fatalf("limiter consulted for invalid requests: %v", fx.limits.checked)
	}
	if len(fx.dispatcher.sent) != 0 {
		t.Fatalf("dispatch attempted for invalid requests: %d", len(fx.dispatcher.sent))
	}
}

func TestResendVerificationRateLimited(t *testing.T) {
	fx := newVerificationFixture(t)
	fx.limits.decision = domain.ResendDecision{
		Outcome:    domain.ResendTooSoon,
		RetryAfter: 45 * time.Second,
	}

	_, err := fx.service.ResendVerification(context.Background(), "student@university.edu")

	var limited *ResendRateLimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("expected rate limited error, got %v", err)
	}
	if limited.Decision.Outcome != domain.ResendTooSoon {
		t.Fatalf("unexpected outcome %s", limited.Decision.Outcome)
	}
	if got := limited.Decision.RetryAfterSeconds(); got != 45 {
		t.Fatalf("expected 45s retry-after, got %d", got)
	}

	if len(fx.dispatcher.sent) != 0 {
		t.Fatal("dispatch attempted despite limiter rejection")
	}
	if len(fx.limits.recorded) != 0 {
		t.Fatal("budget consumed despite limiter rejection")
	}
}

func TestResendVerificationFailedDispatchKeepsBudget(t *testing.T) {
	fx := newVerificationFixture(t)
	fx.dispatcher.err = errors.New("smtp unavailable")

	_, err := fx.service.ResendVerification(context.Background(), "student@university.edu")
	if err == nil {
		t.Fatal("expected dispatch failure to surface")
	}
	if len(fx.limits.recorded) != 0 {
		t.Fatal("budget consumed for a failed send")
	}
	if len(fx.events.resent) != 0 {
		t.Fatal("event published for a failed send")
	}

	// The next attempt goes straight through; no budget was spent.
	fx.dispatcher.err = nil
	if _, err := fx.service.ResendVerification(context.Background(), "student@university.edu"); err != nil {
		t.Fatalf("retry after failed dispatch: %v", err)
	}
	if len(fx.limits.recorded) != 1 {
		t.Fatalf("expected exactly one recorded attempt, got %d", len(fx.limits.recorded))
	}
}

func TestResendVerificationRecordFailureIsNotFatal(t *testing.T) {
	fx := newVerificationFixture(t)
	fx.limits.recordErr = errors.New("redis down")

	result, err := fx.service.ResendVerification(context.Background(), "student@university.edu")
	if err != nil {
		t.Fatalf("expected delivered code to succeed despite record failure, got %v", err)
	}
	if result.Email != "student@university.edu" {
		t.Fatalf("unexpected email %q", result.Email)
	}
}

func TestVerifyEmailSuccess(t *testing.T) {
	fx := newVerificationFixture(t)

	if _, err := fx.service.ResendVerification(context.Background(), "student@university.edu"); err != nil {
		t.Fatalf("seed code: %v", err)
	}

	result, err := fx.service.VerifyEmail(context.Background(), "student@university.edu", "482913")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Message != "Email verified successfully" {
		t.Fatalf("unexpected message %q", result.Message)
	}

	if len(fx.users.verified) != 1 || fx.users.verified[0] != "user-1" {
		t.Fatalf("expected user marked verified, got %v", fx.users.verified)
	}
	if len(fx.otps.deleted) != 1 {
		t.Fatal("expected used code to be deleted")
	}
	if len(fx.events.verified) != 1 {
		t.Fatalf("expected one verified event, got %d", len(fx.events.verified))
	}
}

func TestVerifyEmailWrongCode(t *testing.T) {
	fx := newVerificationFixture(t)

	if _, err := fx.service.ResendVerification(context.Background(), "student@university.edu"); err != nil {
		t.Fatalf("seed code: %v", err)
	}

	for i := 0; i < 4; i++ {
		_, err := fx.service.VerifyEmail(context.Background(), "student@university.edu", "000000")
		if !errors.Is(err, ErrCodeInvalid) {
			t.Fatalf("guess %d: expected ErrCodeInvalid, got %v", i, err)
		}
	}

	// Fifth wrong guess spends the budget and invalidates the code.
	if _, err := fx.service.VerifyEmail(context.Background(), "student@university.edu", "000000"); !errors.Is(err, ErrTooManyCodeAttempts) {
		t.Fatalf("expected ErrTooManyCodeAttempts, got %v", err)
	}
	if _, err := fx.service.VerifyEmail(context.Background(), "student@university.edu", "482913"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected code invalidated after budget spent, got %v", err)
	}
}

func TestVerifyEmailMissingOrExpiredCode(t *testing.T) {
	fx := newVerificationFixture(t)

	if _, err := fx.service.VerifyEmail(context.Background(), "student@university.edu", "482913"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired with no code, got %v", err)
	}

	if _, err := fx.service.VerifyEmail(context.Background(), "student@university.edu", "   "); !errors.Is(err, ErrCodeRequired) {
		t.Fatalf("expected ErrCodeRequired, got %v", err)
	}

	if _, err := fx.service.ResendVerification(context.Background(), "student@university.edu"); err != nil {
		t.Fatalf("seed code: %v", err)
	}
	fx.otps.stored["student@university.edu"].ExpiresAt = time.Date(2026, time.March, 10, 11, 59, 0, 0, time.UTC)

	if _, err := fx.service.VerifyEmail(context.Background(), "student@university.edu", "482913"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired for lapsed code, got %v", err)
	}
	if len(fx.otps.stored) != 0 {
		t.Fatal("expected lapsed code to be purged")
	}
}

func TestRandomCodeShape(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := randomCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != verificationCodeDigits {
			t.Fatalf("expected %d digits, got %q", verificationCodeDigits, code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}
	}
}
