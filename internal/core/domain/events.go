package domain

import "time"

// VerificationResentEvent records an accepted resend of a verification code.
type VerificationResentEvent struct {
	EventID     string
	UserID      string
	MaskedEmail string
	ResentAt    time.Time
	Metadata    map[string]any
}

// EmailVerifiedEvent records a successful email verification.
type EmailVerifiedEvent struct {
	EventID     string
	UserID      string
	MaskedEmail string
	VerifiedAt  time.Time
	Metadata    map[string]any
}

// MoodLoggedEvent records a stored mood entry.
type MoodLoggedEvent struct {
	EventID      string
	UserID       string
	EntryID      string
	Score        int
	QualityScore int
	LoggedAt     time.Time
	Metadata     map[string]any
}

// GoalCreatedEvent records a new wellness goal.
type GoalCreatedEvent struct {
	EventID   string
	UserID    string
	GoalID    string
	Category  string
	Target    int
	CreatedAt time.Time
	Metadata  map[string]any
}
