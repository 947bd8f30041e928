package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campuswell/wellness-api/internal/repository"
	"github.com/campuswell/wellness-api/internal/usecase"
)

// userIDHeader identifies the acting user. Authentication itself lives in
// the platform gateway; this service trusts the forwarded identity.
const userIDHeader = "X-User-ID"

// WellnessHandler exposes mood tracking, goals, and insights endpoints.
type WellnessHandler struct {
	wellness *usecase.WellnessService
}

func NewWellnessHandler(wellness *usecase.WellnessService) *WellnessHandler {
	return &WellnessHandler{wellness: wellness}
}

// RegisterRoutes binds wellness endpoints.
func (h *WellnessHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/moods", h.LogMood)
	r.GET("/moods", h.ListMoods)
	r.POST("/goals", h.CreateGoal)
	r.GET("/goals", h.ListGoals)
	r.PATCH("/goals/:id/progress", h.UpdateGoalProgress)
	r.GET("/insights", h.Insights)
}

func (h *WellnessHandler) userID(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.GetHeader(userIDHeader))
	if userID == "" {
		c.JSON(http.StatusUnauthorized, APIResponse{
			Success: false,
			Message: "User identity is required",
			Details: []FieldDetail{{Field: "user", Message: "Missing X-User-ID header"}},
		})
		return "", false
	}
	return userID, true
}

// LogMood handles POST /moods.
func (h *WellnessHandler) LogMood(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req MoodEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid mood entry payload",
			Details: []FieldDetail{{Field: "body", Message: "Request body must be valid JSON"}},
		})
		return
	}

	entry, err := h.wellness.LogMood(c.Request.Context(), userID, usecase.MoodEntryInput{
		Score:  req.Score,
		Energy: req.Energy,
		Stress: req.Stress,
		Notes:  req.Notes,
		Tags:   req.Tags,
	})
	if err != nil {
		h.respondWellnessError(c, err, "Failed to log mood entry")
		return
	}

	c.JSON(http.StatusCreated, MoodEntryResponse{
		Success: true,
		Entry:   newMoodEntryPayload(*entry),
	})
}

// ListMoods handles GET /moods.
func (h *WellnessHandler) ListMoods(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Message: "Invalid limit parameter",
				Details: []FieldDetail{{Field: "limit", Message: "Limit must be a non-negative integer"}},
			})
			return
		}
		limit = parsed
	}

	entries, err := h.wellness.ListMoods(c.Request.Context(), userID, limit)
	if err != nil {
		h.respondWellnessError(c, err, "Failed to list mood entries")
		return
	}

	payloads := make([]MoodEntryPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, newMoodEntryPayload(entry))
	}

	c.JSON(http.StatusOK, MoodListResponse{
		Entries: payloads,
		Total:   len(payloads),
	})
}

// CreateGoal handles POST /goals.
func (h *WellnessHandler) CreateGoal(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid goal payload",
			Details: []FieldDetail{{Field: "body", Message: "Request body must be valid JSON"}},
		})
		return
	}

	goal, err := h.wellness.CreateGoal(c.Request.Context(), userID, usecase.GoalInput{
		Name:     req.Name,
		Target:   req.Target,
		Current:  req.Current,
		Unit:     req.Unit,
		Category: req.Category,
	})
	if err != nil {
		h.respondWellnessError(c, err, "Failed to create goal")
		return
	}

	c.JSON(http.StatusCreated, GoalResponse{
		Success: true,
		Goal:    newGoalPayload(*goal),
	})
}

// ListGoals handles GET /goals.
func (h *WellnessHandler) ListGoals(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	goals, err := h.wellness.ListGoals(c.Request.Context(), userID)
	if err != nil {
		h.respondWellnessError(c, err, "Failed to list goals")
		return
	}

	payloads := make([]GoalPayload, 0, len(goals))
	for _, goal := range goals {
		payloads = append(payloads, newGoalPayload(goal))
	}

	c.JSON(http.StatusOK, GoalListResponse{
		Goals: payloads,
		Total: len(payloads),
	})
}

// UpdateGoalProgress handles PATCH /goals/:id/progress.
func (h *WellnessHandler) UpdateGoalProgress(c *gin.Context) {
	if _, ok := h.userID(c); !ok {
		return
	}

	goalID := strings.TrimSpace(c.Param("id"))
	if goalID == "" {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Goal ID is required",
			Details: []FieldDetail{{Field: "id", Message: "Goal ID is required"}},
		})
		return
	}

	var req GoalProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid progress payload",
			Details: []FieldDetail{{Field: "body", Message: "Request body must be valid JSON"}},
		})
		return
	}

	if err := h.wellness.UpdateGoalProgress(c.Request.Context(), goalID, req.Current); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, APIResponse{
				Success: false,
				Message: "Goal not found",
				Details: []FieldDetail{{Field: "id", Message: "No goal with this ID"}},
			})
			return
		}
		h.respondWellnessError(c, err, "Failed to update goal progress")
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Goal progress updated",
	})
}

// Insights handles GET /insights.
func (h *WellnessHandler) Insights(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	insights, err := h.wellness.Insights(c.Request.Context(), userID)
	if err != nil {
		h.respondWellnessError(c, err, "Failed to generate insights")
		return
	}

	c.JSON(http.StatusOK, InsightsResponse{
		Summary:         insights.Summary,
		Recommendations: insights.Recommendations,
		Achievements:    insights.Achievements,
		Concerns:        insights.Concerns,
		DataQuality:     insights.DataQuality,
		AverageMood:     insights.AverageMood,
		Trend:           newTrendPayload(insights.Trend),
	})
}

func (h *WellnessHandler) respondWellnessError(c *gin.Context, err error, fallback string) {
	var invalid *usecase.ValidationError
	if errors.As(err, &invalid) {
		details := make([]FieldDetail, 0, len(invalid.Report.Errors))
		for _, msg := range invalid.Report.Errors {
			details = append(details, FieldDetail{Field: "validation", Message: msg})
		}
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Validation failed",
			Details: details,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, APIResponse{
		Success: false,
		Message: fallback,
		Details: []FieldDetail{{Field: "general", Message: "Server error. Please try again later."}},
	})
}
