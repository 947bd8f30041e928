package domain

import "time"

// Mood, energy and stress scores share the same 1-5 scale.
const (
	ScoreMin = 1
	ScoreMax = 5

	MaxNoteLength = 1000
	MaxTagLength  = 50
	MaxTags       = 10
	MaxGoalName   = 100
	MaxGoalUnit   = 20
)

// GoalCategories enumerates the accepted wellness goal categories.
var GoalCategories = []string{"mood", "sleep", "exercise", "meditation", "other"}

// MoodEntry is a single logged wellness sample.
type MoodEntry struct {
	ID        string
	UserID    string
	Score     int
	Energy    *int
	Stress    *int
	Notes     string
	Tags      []string
	CreatedAt time.Time
}

// WellnessGoal tracks progress toward a user-defined target.
type WellnessGoal struct {
	ID        string
	UserID    string
	Name      string
	Target    int
	Current   int
	Unit      string
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Completed reports whether current progress has reached the target.
func (g WellnessGoal) Completed() bool {
	return g.Current >= g.Target
}

// TrendDirection classifies the slope of a mood series.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// TrendReport is the result of fitting a linear trend to a mood series.
// Direction is empty when there is not enough data.
type TrendReport struct {
	Direction      TrendDirection
	Slope          float64
	Confidence     int
	Recommendation string
	DataPoints     int
	TimeSpan       string
}

// Sufficient reports whether the series supported a trend estimate.
func (r TrendReport) Sufficient() bool {
	return r.Direction != ""
}

// ValidationReport grades an incoming mood entry or goal: hard errors block
// storage, warnings only lower the 0-100 quality score.
type ValidationReport struct {
	Valid    bool
	Errors   []string
	Warnings []string
	Score    int
}

// WellnessInsights is the derived guidance surfaced on the dashboard.
type WellnessInsights struct {
	Summary         string
	Recommendations []string
	Achievements    []string
	Concerns        []string
	DataQuality     int
	Trend           TrendReport
	AverageMood     float64
}
