package domain

import (
	"math"
	"time"
)

// ResendOutcome classifies the limiter's decision for a resend request.
type ResendOutcome string

const (
	ResendAllowed         ResendOutcome = "allowed"
	ResendTooManyAttempts ResendOutcome = "too_many_attempts"
	ResendTooSoon         ResendOutcome = "too_soon"
)

// ResendPolicy bounds how often a verification code may be re-sent per email.
type ResendPolicy struct {
	MaxAttempts int
	Window      time.Duration
	MinInterval time.Duration
}

// DefaultResendPolicy mirrors the production limits: 3 sends per 10 minute
// window, at least 60 seconds apart.
func DefaultResendPolicy() ResendPolicy {
	return ResendPolicy{
		MaxAttempts: 3,
		Window:      10 * time.Minute,
		MinInterval: time.Minute,
	}
}

// ResendWindow is the per-email fixed-window counter state. The window is
// anchored at the first accepted request and does not slide; Count resets
// only when ResetTime passes.
type ResendWindow struct {
	Count       int
	LastAttempt time.Time
	ResetTime   time.Time
}

// Expired reports whether the window budget has lapsed at the given instant.
func (w ResendWindow) Expired(now time.Time) bool {
	return now.After(w.ResetTime)
}

// ResendDecision is the outcome of evaluating a resend request against the
// policy. RetryAfter is only meaningful for rejections.
type ResendDecision struct {
	Outcome    ResendOutcome
	RetryAfter time.Duration
}

// Allowed reports whether the request may proceed to the downstream send.
func (d ResendDecision) Allowed() bool {
	return d.Outcome == ResendAllowed
}

// RetryAfterMinutes rounds the wait up to whole minutes for user-facing text.
func (d ResendDecision) RetryAfterMinutes() int {
	return int(math.Ceil(d.RetryAfter.Minutes()))
}

// RetryAfterSeconds rounds the wait up to whole seconds for user-facing text.
func (d ResendDecision) RetryAfterSeconds() int {
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// EvaluateResend applies the fixed-window policy to the stored state.
// A nil window (no prior attempts, or an expired one already discarded by the
// store) is always allowed. Within an active window the attempt budget is
// checked before the minimum interval, matching the order the HTTP surface
// reports rejections in.
func EvaluateResend(window *ResendWindow, now time.Time, policy ResendPolicy) ResendDecision {
	if window == nil || window.Expired(now) {
		return ResendDecision{Outcome: ResendAllowed}
	}

	if window.Count >= policy.MaxAttempts {
		return ResendDecision{
			Outcome:    ResendTooManyAttempts,
			RetryAfter: window.ResetTime.Sub(now),
		}
	}

	if elapsed := now.Sub(window.LastAttempt); elapsed < policy.MinInterval {
		return ResendDecision{
			Outcome:    ResendTooSoon,
			RetryAfter: policy.MinInterval - elapsed,
		}
	}

	return ResendDecision{Outcome: ResendAllowed}
}

// Advance records an accepted send against the window. An absent or expired
// window starts a fresh budget anchored at now; an active one keeps its
// ResetTime and bumps the counter.
func Advance(window *ResendWindow, now time.Time, policy ResendPolicy) ResendWindow {
	if window == nil || window.Expired(now) {
		return ResendWindow{
			Count:       1,
			LastAttempt: now,
			ResetTime:   now.Add(policy.Window),
		}
	}

	return ResendWindow{
		Count:       window.Count + 1,
		LastAttempt: now,
		ResetTime:   window.ResetTime,
	}
}
