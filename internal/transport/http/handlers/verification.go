package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuswell/wellness-api/internal/core/domain"
	"github.com/campuswell/wellness-api/internal/usecase"
)

// ResendMetrics records limiter decisions for observability.
type ResendMetrics interface {
	ObserveResendOutcome(outcome string)
}

// VerificationHandler exposes the resend and verify endpoints.
type VerificationHandler struct {
	verification *usecase.VerificationService
	metrics      ResendMetrics
}

func NewVerificationHandler(verification *usecase.VerificationService, metrics ResendMetrics) *VerificationHandler {
	return &VerificationHandler{
		verification: verification,
		metrics:      metrics,
	}
}

// RegisterRoutes binds verification endpoints.
func (h *VerificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/resend-verification", h.Resend)
	r.POST("/verify-email", h.Verify)
}

// Resend handles POST /resend-verification.
//
// Response shapes are part of the public contract consumed by the web
// client; messages and details must stay stable.
func (h *VerificationHandler) Resend(c *gin.Context) {
	var req ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// A body that cannot be parsed is a transport fault, not a
		// validation failure.
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Message: "Internal server error",
			Details: []FieldDetail{{Field: "general", Message: "An unexpected error occurred. Please try again."}},
		})
		return
	}

	result, err := h.verification.ResendVerification(c.Request.Context(), req.Email)
	if err != nil {
		h.respondResendError(c, err)
		return
	}

	h.observe("allowed")
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: result.Message,
		Email:   result.Email,
	})
}

func (h *VerificationHandler) respondResendError(c *gin.Context, err error) {
	var limited *usecase.ResendRateLimitedError
	if errors.As(err, &limited) {
		h.respondRateLimited(c, limited)
		return
	}

	switch {
	case errors.Is(err, usecase.ErrEmailRequired):
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Email is required",
			Details: []FieldDetail{{Field: "email", Message: "Email is required"}},
		})
	case errors.Is(err, usecase.ErrEmailInvalid):
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid email format",
			Details: []FieldDetail{{Field: "email", Message: "Please enter a valid email address"}},
		})
	case errors.Is(err, usecase.ErrUserNotFound):
		c.JSON(http.StatusNotFound, APIResponse{
			Success: false,
			Message: "User not found or already verified",
			Details: []FieldDetail{{Field: "email", Message: "User not found or email already verified"}},
		})
	default:
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Message: "Failed to resend verification code",
			Details: []FieldDetail{{Field: "general", Message: "Server error. Please try again later."}},
		})
	}
}

func (h *VerificationHandler) respondRateLimited(c *gin.Context, limited *usecase.ResendRateLimitedError) {
	decision := limited.Decision
	retrySeconds := int(math.Ceil(decision.RetryAfter.Seconds()))
	if retrySeconds < 1 {
		retrySeconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(retrySeconds))

	if decision.Outcome == domain.ResendTooManyAttempts {
		h.observe("too_many_attempts")
		c.JSON(http.StatusTooManyRequests, APIResponse{
			Success: false,
			Message: "Too many resend attempts",
			Details: []FieldDetail{{
				Field:   "resend",
				Message: fmt.Sprintf("Too many attempts. Please try again in %d minutes.", decision.RetryAfterMinutes()),
			}},
		})
		return
	}

	h.observe("too_soon")
	c.JSON(http.StatusTooManyRequests, APIResponse{
		Success: false,
		Message: "Please wait before requesting another code",
		Details: []FieldDetail{{
			Field:   "resend",
			Message: fmt.Sprintf("Please wait %d seconds before requesting another code.", decision.RetryAfterSeconds()),
		}},
	})
}

// Verify handles POST /verify-email.
func (h *VerificationHandler) Verify(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Message: "Internal server error",
			Details: []FieldDetail{{Field: "general", Message: "An unexpected error occurred. Please try again."}},
		})
		return
	}

	result, err := h.verification.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		h.respondVerifyError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: result.Message,
		Email:   result.Email,
	})
}

func (h *VerificationHandler) respondVerifyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrEmailRequired):
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Email is required",
			Details: []FieldDetail{{Field: "email", Message: "Email is required"}},
		})
	case errors.Is(err, usecase.ErrEmailInvalid):
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid email format",
			Details: []FieldDetail{{Field: "email", Message: "Please enter a valid email address"}},
		})
	case errors.Is(err, usecase.ErrCodeRequired):
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Verification code is required",
			Details: []FieldDetail{{Field: "code", Message: "Verification code is required"}},
		})
	case errors.Is(err, usecase.ErrUserNotFound):
		c.JSON(http.StatusNotFound, APIResponse{
			Success: false,
			Message: "User not found or already verified",
			Details: []FieldDetail{{Field: "email", Message: "User not found or email already verified"}},
		})
	case errors.Is(err, usecase.ErrCodeInvalid):
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Verification code is invalid",
			Details: []FieldDetail{{Field: "code", Message: "The code you entered is incorrect"}},
		})
	case errors.Is(err, usecase.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Verification code has expired",
			Details: []FieldDetail{{Field: "code", Message: "Request a new verification code"}},
		})
	case errors.Is(err, usecase.ErrTooManyCodeAttempts):
		c.JSON(http.StatusTooManyRequests, APIResponse{
			Success: false,
			Message: "Too many verification attempts",
			Details: []FieldDetail{{Field: "code", Message: "Request a new verification code"}},
		})
	default:
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Message: "Failed to verify email",
			Details: []FieldDetail{{Field: "general", Message: "Server error. Please try again later."}},
		})
	}
}

func (h *VerificationHandler) observe(outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveResendOutcome(outcome)
	}
}
