package handlers

import (
	"time"

	"github.com/campuswell/wellness-api/internal/core/domain"
)

// FieldDetail points a response message at the offending request field.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIResponse is the uniform envelope for the auth endpoints.
type APIResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Email   string        `json:"email,omitempty"`
	Details []FieldDetail `json:"details,omitempty"`
}

// ResendVerificationRequest is the resend endpoint payload.
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// VerifyEmailRequest is the verify endpoint payload.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// MoodEntryRequest is the payload for logging a mood sample.
type MoodEntryRequest struct {
	Score  int      `json:"mood_score"`
	Energy *int     `json:"energy,omitempty"`
	Stress *int     `json:"stress,omitempty"`
	Notes  string   `json:"notes,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// MoodEntryPayload is the API view of a stored mood sample.
type MoodEntryPayload struct {
	ID        string    `json:"id"`
	Score     int       `json:"mood_score"`
	Energy    *int      `json:"energy,omitempty"`
	Stress    *int      `json:"stress,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MoodEntryResponse is returned after logging a mood sample.
type MoodEntryResponse struct {
	Success bool             `json:"success"`
	Entry   MoodEntryPayload `json:"entry"`
}

// MoodListResponse wraps the user's mood samples.
type MoodListResponse struct {
	Entries []MoodEntryPayload `json:"entries"`
	Total   int                `json:"total"`
}

// GoalRequest is the payload for creating a wellness goal.
type GoalRequest struct {
	Name     string `json:"name"`
	Target   int    `json:"target"`
	Current  int    `json:"current"`
	Unit     string `json:"unit,omitempty"`
	Category string `json:"category,omitempty"`
}

// GoalProgressRequest updates goal progress.
type GoalProgressRequest struct {
	Current int `json:"current"`
}

// GoalPayload is the API view of a wellness goal.
type GoalPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Target    int       `json:"target"`
	Current   int       `json:"current"`
	Unit      string    `json:"unit"`
	Category  string    `json:"category"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GoalResponse is returned after creating a goal.
type GoalResponse struct {
	Success bool        `json:"success"`
	Goal    GoalPayload `json:"goal"`
}

// GoalListResponse wraps the user's goals.
type GoalListResponse struct {
	Goals []GoalPayload `json:"goals"`
	Total int           `json:"total"`
}

// TrendPayload is the API view of a fitted mood trend.
type TrendPayload struct {
	Direction      string  `json:"direction,omitempty"`
	Slope          float64 `json:"slope"`
	Confidence     int     `json:"confidence"`
	Recommendation string  `json:"recommendation"`
	DataPoints     int     `json:"data_points"`
	TimeSpan       string  `json:"time_span,omitempty"`
}

// InsightsResponse is the wellness dashboard payload.
type InsightsResponse struct {
	Summary         string       `json:"summary"`
	Recommendations []string     `json:"recommendations,omitempty"`
	Achievements    []string     `json:"achievements,omitempty"`
	Concerns        []string     `json:"concerns,omitempty"`
	DataQuality     int          `json:"data_quality"`
	AverageMood     float64      `json:"average_mood"`
	Trend           TrendPayload `json:"trend"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func newMoodEntryPayload(entry domain.MoodEntry) MoodEntryPayload {
	return MoodEntryPayload{
		ID:        entry.ID,
		Score:     entry.Score,
		Energy:    entry.Energy,
		Stress:    entry.Stress,
		Notes:     entry.Notes,
		Tags:      entry.Tags,
		CreatedAt: entry.CreatedAt,
	}
}

func newGoalPayload(goal domain.WellnessGoal) GoalPayload {
	return GoalPayload{
		ID:        goal.ID,
		Name:      goal.Name,
		Target:    goal.Target,
		Current:   goal.Current,
		Unit:      goal.Unit,
		Category:  goal.Category,
		Completed: goal.Completed(),
		CreatedAt: goal.CreatedAt,
		UpdatedAt: goal.UpdatedAt,
	}
}

func newTrendPayload(report domain.TrendReport) TrendPayload {
	return TrendPayload{
		Direction:      string(report.Direction),
		Slope:          report.Slope,
		Confidence:     report.Confidence,
		Recommendation: report.Recommendation,
		DataPoints:     report.DataPoints,
		TimeSpan:       report.TimeSpan,
	}
}
