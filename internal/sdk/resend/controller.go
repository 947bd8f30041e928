package resend

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/campuswell/wellness-api/internal/sdk"
)

const (
	defaultCooldownSeconds = 60
	defaultMaxResends      = 5
	defaultTickInterval    = time.Second
)

// Sender performs the actual resend call.
type Sender interface {
	ResendVerification(ctx context.Context, email string) (sdk.ResendResult, error)
}

// Snapshot is an immutable view of the controller state.
type Snapshot struct {
	IsResending     bool
	CanResend       bool
	CooldownSeconds int
	LastResendTime  *time.Time
	ResendCount     int
	Error           string
	Success         string
}

// Result is the outcome of a single Resend invocation.
type Result struct {
	Success bool
	Message string
	Error   string
}

// Controller drives the resend button state: a local cooldown after each
// successful send and a hard cap on total attempts. It is a UX guard only;
// the server limiter remains the enforcement point, and its 429 responses
// resynchronize the local cooldown.
type Controller struct {
	mu sync.Mutex

	sender       Sender
	cooldown     int
	maxResends   int
	tickInterval time.Duration
	now          func() time.Time

	isResending     bool
	cooldownSeconds int
	lastResendTime  *time.Time
	resendCount     int
	errMsg          string
	successMsg      string

	stopTick chan struct{}
}

// Option customises the controller.
type Option func(*Controller)

// WithCooldown sets the post-success cooldown in seconds.
func WithCooldown(seconds int) Option {
	return func(c *Controller) {
		if seconds > 0 {
			c.cooldown = seconds
		}
	}
}

// WithMaxResends caps the total number of attempts.
func WithMaxResends(max int) Option {
	return func(c *Controller) {
		if max > 0 {
			c.maxResends = max
		}
	}
}

// WithTickInterval overrides the countdown cadence. Zero disables the
// internal timer; callers drive the countdown via Tick.
func WithTickInterval(interval time.Duration) Option {
	return func(c *Controller) {
		c.tickInterval = interval
	}
}

// WithClock overrides the internal clock, used in tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewController constructs a controller around the sender.
func NewController(sender Sender, opts ...Option) *Controller {
	c := &Controller{
		sender:       sender,
		cooldown:     defaultCooldownSeconds,
		maxResends:   defaultMaxResends,
		tickInterval: defaultTickInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resend attempts a send. Every completed attempt counts toward the cap,
// failures included; only a successful send starts the cooldown.
func (c *Controller) Resend(ctx context.Context, email string) Result {
	c.mu.Lock()
	if c.isResending || !c.canResendLocked() {
		c.mu.Unlock()
		return Result{Success: false, Error: "Cannot resend at this time"}
	}
	c.isResending = true
	c.errMsg = ""
	c.successMsg = ""
	c.mu.Unlock()

	res, err := c.sender.ResendVerification(ctx, email)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.isResending = false
	c.resendCount++

	if err != nil {
		c.errMsg = err.Error()
		return Result{Success: false, Error: c.errMsg}
	}

	if !res.Success {
		c.errMsg = res.Error
		if c.errMsg == "" {
			c.errMsg = "Failed to resend verification email"
		}
		// The server's 429 is authoritative; adopt its wait time as the
		// local cooldown.
		if res.RetryAfter > 0 {
			c.startCooldownLocked(int(math.Ceil(res.RetryAfter.Seconds())))
		}
		return Result{Success: false, Error: c.errMsg}
	}

	c.successMsg = res.Message
	if c.successMsg == "" {
		c.successMsg = "Verification email sent successfully"
	}
	now := c.now()
	c.lastResendTime = &now
	c.startCooldownLocked(c.cooldown)

	return Result{Success: true, Message: c.successMsg}
}

// Tick advances the countdown by one second. The internal timer calls this
// when a tick interval is configured.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cooldownSeconds <= 0 {
		return
	}
	c.cooldownSeconds--
	if c.cooldownSeconds <= 0 {
		c.stopTimerLocked()
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		IsResending:     c.isResending,
		CanResend:       c.canResendLocked(),
		CooldownSeconds: c.cooldownSeconds,
		LastResendTime:  c.lastResendTime,
		ResendCount:     c.resendCount,
		Error:           c.errMsg,
		Success:         c.successMsg,
	}
}

// ButtonText derives the label for the resend affordance.
func (c *Controller) ButtonText() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.isResending:
		return "Sending..."
	case c.cooldownSeconds > 0:
		return fmt.Sprintf("Resend in %ds", c.cooldownSeconds)
	case c.resendCount >= c.maxResends:
		return "Max resends reached"
	default:
		return "Resend Email"
	}
}

// Reset restores the initial state and cancels any running countdown.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimerLocked()
	c.isResending = false
	c.cooldownSeconds = 0
	c.lastResendTime = nil
	c.resendCount = 0
	c.errMsg = ""
	c.successMsg = ""
}

// ClearMessages clears the error and success messages, leaving the
// counters and cooldown untouched.
func (c *Controller) ClearMessages() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errMsg = ""
	c.successMsg = ""
}

// Close stops the countdown timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
}

func (c *Controller) canResendLocked() bool {
	return c.cooldownSeconds <= 0 && c.resendCount < c.maxResends
}

func (c *Controller) startCooldownLocked(seconds int) {
	if seconds <= 0 {
		return
	}

	c.cooldownSeconds = seconds
	if c.tickInterval <= 0 {
		return
	}

	c.stopTimerLocked()
	stop := make(chan struct{})
	c.stopTick = stop

	go func() {
		ticker := time.NewTicker(c.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Tick()
			case <-stop:
				return
			}
		}
	}()
}

func (c *Controller) stopTimerLocked() {
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
}
