package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuswell/wellness-api/internal/core/domain"
	"github.com/campuswell/wellness-api/internal/core/port"
)

// minTrendSamples is the smallest series a linear trend is fitted to.
const minTrendSamples = 3

// stableSlopeThreshold separates a flat series from a real trend.
const stableSlopeThreshold = 0.1

// ValidationError carries the full report for a rejected entry or goal so
// the HTTP layer can surface every failed rule at once.
type ValidationError struct {
	Report domain.ValidationReport
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Report.Errors, "; ")
}

// MoodEntryInput is an unsanitized mood sample from a client.
type MoodEntryInput struct {
	Score  int
	Energy *int
	Stress *int
	Notes  string
	Tags   []string
}

// GoalInput is an unsanitized wellness goal from a client.
type GoalInput struct {
	Name     string
	Target   int
	Current  int
	Unit     string
	Category string
}

// WellnessService stores mood samples and goals and derives trends and
// insights from them.
type WellnessService struct {
	moods  port.MoodEntryRepository
	goals  port.GoalRepository
	events port.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewWellnessService constructs a WellnessService.
func NewWellnessService(moods port.MoodEntryRepository, goals port.GoalRepository, events port.EventPublisher, log *zap.Logger) *WellnessService {
	if log == nil {
		log = zap.NewNop()
	}

	return &WellnessService{
		moods:  moods,
		goals:  goals,
		events: events,
		logger: log,
		now:    time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *WellnessService) WithClock(clock func() time.Time) *WellnessService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// LogMood validates, sanitizes, and stores a mood sample.
func (s *WellnessService) LogMood(ctx context.Context, userID string, input MoodEntryInput) (*domain.MoodEntry, error) {
	report := ValidateMoodEntry(input)
	if !report.Valid {
		return nil, &ValidationError{Report: report}
	}

	sanitized := SanitizeMoodEntry(input)
	entry := domain.MoodEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Score:     sanitized.Score,
		Energy:    sanitized.Energy,
		Stress:    sanitized.Stress,
		Notes:     sanitized.Notes,
		Tags:      sanitized.Tags,
		CreatedAt: s.now().UTC(),
	}

	if err := s.moods.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert mood entry: %w", err)
	}

	if s.events != nil {
		event := domain.MoodLoggedEvent{
			EventID:      uuid.NewString(),
			UserID:       userID,
			EntryID:      entry.ID,
			Score:        entry.Score,
			QualityScore: report.Score,
			LoggedAt:     entry.CreatedAt,
		}
		if err := s.events.PublishMoodLogged(ctx, event); err != nil {
			s.logger.Warn("publish mood logged event failed", zap.Error(err))
		}
	}

	return &entry, nil
}

// CreateGoal validates, sanitizes, and stores a wellness goal.
func (s *WellnessService) CreateGoal(ctx context.Context, userID string, input GoalInput) (*domain.WellnessGoal, error) {
	report := ValidateGoal(input)
	if !report.Valid {
		return nil, &ValidationError{Report: report}
	}

	sanitized := SanitizeGoal(input)
	now := s.now().UTC()
	goal := domain.WellnessGoal{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      sanitized.Name,
		Target:    sanitized.Target,
		Current:   sanitized.Current,
		Unit:      sanitized.Unit,
		Category:  sanitized.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.goals.Insert(ctx, goal); err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}

	if s.events != nil {
		event := domain.GoalCreatedEvent{
			EventID:   uuid.NewString(),
			UserID:    userID,
			GoalID:    goal.ID,
			Category:  goal.Category,
			Target:    goal.Target,
			CreatedAt: goal.CreatedAt,
		}
		if err := s.events.PublishGoalCreated(ctx, event); err != nil {
			s.logger.Warn("publish goal created event failed", zap.Error(err))
		}
	}

	return &goal, nil
}

// ListMoods returns the user's mood samples, oldest first.
func (s *WellnessService) ListMoods(ctx context.Context, userID string, limit int) ([]domain.MoodEntry, error) {
	entries, err := s.moods.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}
	return entries, nil
}

// ListGoals returns the user's wellness goals.
func (s *WellnessService) ListGoals(ctx context.Context, userID string) ([]domain.WellnessGoal, error) {
	goals, err := s.goals.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// UpdateGoalProgress records new progress toward a goal.
func (s *WellnessService) UpdateGoalProgress(ctx context.Context, goalID string, current int) error {
	if current < 0 {
		current = 0
	}
	return s.goals.UpdateProgress(ctx, goalID, current)
}

// Insights loads the user's data and derives dashboard guidance from it.
func (s *WellnessService) Insights(ctx context.Context, userID string) (*domain.WellnessInsights, error) {
	entries, err := s.moods.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}

	goals, err := s.goals.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	insights := GenerateInsights(entries, goals)
	return &insights, nil
}

// CalculateTrends fits an ordinary least-squares line to the mood series,
// treating the sample index as the independent variable. Confidence is the
// absolute Pearson correlation between index and score on a 0-100 scale.
func CalculateTrends(entries []domain.MoodEntry) domain.TrendReport {
	if len(entries) < minTrendSamples {
		return domain.TrendReport{Recommendation: "Need more data to calculate trends"}
	}

	dated := make([]domain.MoodEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.CreatedAt.IsZero() {
			dated = append(dated, entry)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].CreatedAt.Before(dated[j].CreatedAt)
	})

	if len(dated) < minTrendSamples {
		return domain.TrendReport{Recommendation: "Need more valid entries to calculate trends"}
	}

	n := float64(len(dated))
	var sumX, sumY, sumXY, sumXX float64
	for i, entry := range dated {
		x := float64(i)
		y := float64(entry.Score)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	slope := (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)

	meanX := sumX / n
	meanY := sumY / n
	var numerator, denomX, denomY float64
	for i, entry := range dated {
		dx := float64(i) - meanX
		dy := float64(entry.Score) - meanY
		numerator += dx * dy
		denomX += dx * dx
		denomY += dy * dy
	}

	// A perfectly flat series has zero score variance; treat it as zero
	// correlation instead of dividing by zero.
	var correlation float64
	if denom := math.Sqrt(denomX * denomY); denom > 0 {
		correlation = numerator / denom
	}

	report := domain.TrendReport{
		Slope:      slope,
		Confidence: int(math.Round(math.Abs(correlation) * 100)),
		DataPoints: len(dated),
		TimeSpan:   describeTimeSpan(dated),
	}

	switch {
	case math.Abs(slope) < stableSlopeThreshold:
		report.Direction = domain.TrendStable
		report.Recommendation = "Your mood has been relatively stable. Consider setting new wellness goals to continue growing."
	case slope > 0:
		report.Direction = domain.TrendImproving
		report.Recommendation = "Great job! Your mood is trending upward. Keep up the positive habits that are working for you."
	default:
		report.Direction = domain.TrendDeclining
		report.Recommendation = "Your mood has been declining recently. Consider reaching out for support or trying new wellness strategies."
	}

	return report
}

func describeTimeSpan(sorted []domain.MoodEntry) string {
	if len(sorted) < 2 {
		return "Single entry"
	}

	first := sorted[0].CreatedAt
	last := sorted[len(sorted)-1].CreatedAt
	days := int(math.Ceil(last.Sub(first).Hours() / 24))

	switch {
	case days == 0:
		return "Same day"
	case days == 1:
		return "1 day"
	case days < 7:
		return fmt.Sprintf("%d days", days)
	case days < 30:
		return fmt.Sprintf("%d weeks", int(math.Round(float64(days)/7)))
	default:
		return fmt.Sprintf("%d months", int(math.Round(float64(days)/30)))
	}
}

// ValidateMoodEntry grades a mood sample. Hard errors block storage;
// warnings only lower the quality score.
func ValidateMoodEntry(input MoodEntryInput) domain.ValidationReport {
	var errs, warnings []string
	score := 100

	if input.Score == 0 {
		errs = append(errs, "Mood score is required")
		score -= 30
	} else if input.Score < domain.ScoreMin || input.Score > domain.ScoreMax {
		errs = append(errs, "Mood score must be between 1 and 5")
		score -= 20
	}

	if input.Energy != nil {
		if *input.Energy < domain.ScoreMin || *input.Energy > domain.ScoreMax {
			warnings = append(warnings, "Energy level should be between 1 and 5")
			score -= 10
		}
	} else {
		warnings = append(warnings, "Energy level not provided - consider adding for better insights")
		score -= 5
	}

	if input.Stress != nil {
		if *input.Stress < domain.ScoreMin || *input.Stress > domain.ScoreMax {
			warnings = append(warnings, "Stress level should be between 1 and 5")
			score -= 10
		}
	} else {
		warnings = append(warnings, "Stress level not provided - consider adding for better insights")
		score -= 5
	}

	if input.Notes != "" {
		if len(input.Notes) > domain.MaxNoteLength {
			warnings = append(warnings, "Notes are quite long - consider keeping them concise")
			score -= 5
		}
		if len(input.Notes) < 10 {
			warnings = append(warnings, "Consider adding more detailed notes for better tracking")
			score -= 3
		}
	} else {
		warnings = append(warnings, "No notes provided - adding context can improve insights")
		score -= 5
	}

	if len(input.Tags) > domain.MaxTags {
		warnings = append(warnings, "Too many tags - consider using fewer, more specific tags")
		score -= 5
	}
	if hasDuplicates(input.Tags) {
		warnings = append(warnings, "Duplicate tags detected")
		score -= 3
	}

	return domain.ValidationReport{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
		Score:    maxInt(0, score),
	}
}

// ValidateGoal grades a wellness goal.
func ValidateGoal(input GoalInput) domain.ValidationReport {
	var errs, warnings []string
	score := 100

	name := strings.TrimSpace(input.Name)
	if name == "" {
		errs = append(errs, "Goal name is required")
		score -= 25
	} else if len(input.Name) > domain.MaxGoalName {
		warnings = append(warnings, "Goal name is quite long")
		score -= 5
	}

	switch {
	case input.Target == 0:
		errs = append(errs, "Goal target is required")
		score -= 25
	case input.Target < 0:
		errs = append(errs, "Goal target must be positive")
		score -= 20
	case input.Target > 1000:
		warnings = append(warnings, "Goal target seems very high - make sure it's achievable")
		score -= 10
	}

	if input.Current < 0 {
		errs = append(errs, "Current progress cannot be negative")
		score -= 15
	}

	if strings.TrimSpace(input.Unit) == "" {
		warnings = append(warnings, "Goal unit not specified")
		score -= 10
	}

	if input.Category == "" {
		warnings = append(warnings, "Goal category not specified")
		score -= 10
	} else if !validCategory(input.Category) {
		warnings = append(warnings, "Invalid goal category")
		score -= 5
	}

	if input.Current > input.Target && input.Target > 0 {
		warnings = append(warnings, "Current progress exceeds target - goal may be completed")
	}

	return domain.ValidationReport{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
		Score:    maxInt(0, score),
	}
}

// SanitizeMoodEntry clamps and truncates a mood sample to storage limits.
func SanitizeMoodEntry(input MoodEntryInput) MoodEntryInput {
	out := MoodEntryInput{
		Score: clampScore(input.Score),
		Notes: truncate(input.Notes, domain.MaxNoteLength),
	}

	if input.Energy != nil {
		v := clampScore(*input.Energy)
		out.Energy = &v
	}
	if input.Stress != nil {
		v := clampScore(*input.Stress)
		out.Stress = &v
	}

	tags := input.Tags
	if len(tags) > domain.MaxTags {
		tags = tags[:domain.MaxTags]
	}
	out.Tags = make([]string, 0, len(tags))
	for _, tag := range tags {
		out.Tags = append(out.Tags, truncate(tag, domain.MaxTagLength))
	}

	return out
}

// SanitizeGoal clamps and truncates a goal to storage limits.
func SanitizeGoal(input GoalInput) GoalInput {
	out := GoalInput{
		Name:     truncate(input.Name, domain.MaxGoalName),
		Target:   maxInt(1, input.Target),
		Current:  maxInt(0, input.Current),
		Unit:     truncate(input.Unit, domain.MaxGoalUnit),
		Category: input.Category,
	}
	if out.Unit == "" {
		out.Unit = "items"
	}
	if !validCategory(out.Category) {
		out.Category = "other"
	}
	return out
}

// GenerateInsights derives the dashboard summary from stored data.
func GenerateInsights(entries []domain.MoodEntry, goals []domain.WellnessGoal) domain.WellnessInsights {
	insights := domain.WellnessInsights{}

	trend := CalculateTrends(entries)
	insights.Trend = trend

	quality := 0
	if len(entries) > 0 {
		quality += 30
	}
	if len(entries) >= 7 {
		quality += 20
	}
	if len(goals) > 0 {
		quality += 25
	}
	if trend.Sufficient() {
		quality += 25
	}
	insights.DataQuality = quality

	if len(entries) == 0 {
		insights.Summary = "Start your wellness journey by logging your first mood entry."
		insights.Recommendations = append(insights.Recommendations,
			"Begin tracking your daily mood to establish baseline data",
			"Set 1-2 simple wellness goals to work towards",
		)
		return insights
	}

	var sum float64
	for _, entry := range entries {
		sum += float64(entry.Score)
	}
	avg := sum / float64(len(entries))
	insights.AverageMood = avg

	insights.Summary = fmt.Sprintf("Based on %d mood entries, your average mood is %.1f/5. %s",
		len(entries), avg, trend.Recommendation)

	if len(entries) >= 7 {
		insights.Achievements = append(insights.Achievements, "Consistent tracking - 7+ mood entries logged")
	}
	if avg >= 4 {
		insights.Achievements = append(insights.Achievements, "Maintaining positive mood levels")
	}
	if trend.Direction == domain.TrendImproving {
		insights.Achievements = append(insights.Achievements, "Positive mood trend detected")
	}

	if avg < 2.5 {
		insights.Concerns = append(insights.Concerns, "Low average mood - consider seeking support")
	}
	if trend.Direction == domain.TrendDeclining {
		insights.Concerns = append(insights.Concerns, "Declining mood trend - may need intervention")
	}

	if len(entries) < 14 {
		insights.Recommendations = append(insights.Recommendations, "Continue daily tracking for better trend analysis")
	}
	if len(goals) == 0 {
		insights.Recommendations = append(insights.Recommendations, "Set wellness goals to work towards specific improvements")
	}

	recent := entries
	if len(recent) > 7 {
		recent = recent[len(recent)-7:]
	}
	var hasEnergy, hasStress bool
	for _, entry := range recent {
		if entry.Energy != nil {
			hasEnergy = true
		}
		if entry.Stress != nil {
			hasStress = true
		}
	}
	if !hasEnergy {
		insights.Recommendations = append(insights.Recommendations, "Track energy levels for more comprehensive insights")
	}
	if !hasStress {
		insights.Recommendations = append(insights.Recommendations, "Track stress levels to identify patterns and triggers")
	}

	return insights
}

func hasDuplicates(tags []string) bool {
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			return true
		}
		seen[tag] = struct{}{}
	}
	return false
}

func validCategory(category string) bool {
	for _, c := range domain.GoalCategories {
		if c == category {
			return true
		}
	}
	return false
}

func clampScore(v int) int {
	if v < domain.ScoreMin {
		return domain.ScoreMin
	}
	if v > domain.ScoreMax {
		return domain.ScoreMax
	}
	return v
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
