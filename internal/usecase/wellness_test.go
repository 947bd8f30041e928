package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/campuswell/wellness-api/internal/core/domain"
)

type fakeMoodRepository struct {
	entries   []domain.MoodEntry
	insertErr error
}

func (f *fakeMoodRepository) Insert(_ context.Context, entry domain.MoodEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeMoodRepository) ListByUser(_ context.Context, userID string, limit int) ([]domain.MoodEntry, error) {
	var out []domain.MoodEntry
	for _, entry := range f.entries {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeGoalRepository struct {
	goals   []domain.WellnessGoal
	updated map[string]int
}

func (f *fakeGoalRepository) Insert(_ context.Context, goal domain.WellnessGoal) error {
	f.goals = append(f.goals, goal)
	return nil
}

func (f *fakeGoalRepository) ListByUser(_ context.Context, userID string) ([]domain.WellnessGoal, error) {
	var out []domain.WellnessGoal
	for _, goal := range f.goals {
		if goal.UserID == userID {
			out = append(out, goal)
		}
	}
	return out, nil
}

func (f *fakeGoalRepository) UpdateProgress(_ context.Context, goalID string, current int) error {
	if f.updated == nil {
		f.updated = make(map[string]int)
	}
	f.updated[goalID] = current
	return nil
}

func intPtr(v int) *int { return &v }

func entrySeries(scores ...int) []domain.MoodEntry {
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	entries := make([]domain.MoodEntry, 0, len(scores))
	for i, score := range scores {
		entries = append(entries, domain.MoodEntry{
			ID:        "entry",
			UserID:    "user-1",
			Score:     score,
			CreatedAt: base.AddDate(0, 0, i),
		})
	}
	return entries
}

func TestCalculateTrendsDirections(t *testing.T) {
	cases := []struct {
		name   string
		scores []int
		want   domain.TrendDirection
	}{
		{"improving", []int{1, 2, 3, 4, 5}, domain.TrendImproving},
		{"declining", []int{5, 4, 3, 2, 1}, domain.TrendDeclining},
		{"stable", []int{3, 3, 3, 3, 3}, domain.TrendStable},
		{"noisy stable", []int{3, 4, 3, 4, 3, 4}, domain.TrendStable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := CalculateTrends(entrySeries(tc.scores...))
			if !report.Sufficient() {
				t.Fatalf("expected a trend, got %+v", report)
			}
			if report.Direction != tc.want {
				t.Fatalf("expected %s, got %s (slope %.3f)", tc.want, report.Direction, report.Slope)
			}
		})
	}
}

func TestCalculateTrendsPerfectCorrelation(t *testing.T) {
	report := CalculateTrends(entrySeries(1, 2, 3, 4, 5))
	if report.Confidence != 100 {
		t.Fatalf("expected confidence 100 for a perfect line, got %d", report.Confidence)
	}
	if report.DataPoints != 5 {
		t.Fatalf("expected 5 data points, got %d", report.DataPoints)
	}
}

func TestCalculateTrendsFlatSeriesHasZeroConfidence(t *testing.T) {
	report := CalculateTrends(entrySeries(3, 3, 3, 3))
	if report.Direction != domain.TrendStable {
		t.Fatalf("expected stable, got %s", report.Direction)
	}
	if report.Confidence != 0 {
		t.Fatalf("flat series must yield zero confidence, got %d", report.Confidence)
	}
	if report.Slope != 0 {
		t.Fatalf("flat series must yield zero slope, got %f", report.Slope)
	}
}

func TestCalculateTrendsInsufficientData(t *testing.T) {
	report := CalculateTrends(entrySeries(3, 4))
	if report.Sufficient() {
		t.Fatalf("expected no trend for two entries, got %+v", report)
	}
	if report.Recommendation != "Need more data to calculate trends" {
		t.Fatalf("unexpected recommendation %q", report.Recommendation)
	}
}

func TestCalculateTrendsIgnoresUndatedEntries(t *testing.T) {
	entries := entrySeries(1, 2, 3, 4)
	entries = append(entries, domain.MoodEntry{Score: 5})

	report := CalculateTrends(entries)
	if report.DataPoints != 4 {
		t.Fatalf("expected undated entry to be dropped, got %d points", report.DataPoints)
	}

	// With only undated padding the series is too small for a fit.
	short := []domain.MoodEntry{
		{Score: 1, CreatedAt: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{Score: 2, CreatedAt: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)},
		{Score: 3},
	}
	report = CalculateTrends(short)
	if report.Sufficient() {
		t.Fatalf("expected no trend, got %+v", report)
	}
	if report.Recommendation != "Need more valid entries to calculate trends" {
		t.Fatalf("unexpected recommendation %q", report.Recommendation)
	}
}

func TestCalculateTrendsSortsByTimestamp(t *testing.T) {
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	entries := []domain.MoodEntry{
		{Score: 5, CreatedAt: base.AddDate(0, 0, 4)},
		{Score: 1, CreatedAt: base},
		{Score: 3, CreatedAt: base.AddDate(0, 0, 2)},
		{Score: 2, CreatedAt: base.AddDate(0, 0, 1)},
		{Score: 4, CreatedAt: base.AddDate(0, 0, 3)},
	}

	report := CalculateTrends(entries)
	if report.Direction != domain.TrendImproving {
		t.Fatalf("expected improving after sorting, got %s", report.Direction)
	}
}

func TestDescribeTimeSpan(t *testing.T) {
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	span := func(days int) []domain.MoodEntry {
		return []domain.MoodEntry{
			{CreatedAt: base},
			{CreatedAt: base.AddDate(0, 0, days)},
		}
	}

	cases := []struct {
		days int
		want string
	}{
		{0, "Same day"},
		{1, "1 day"},
		{5, "5 days"},
		{14, "2 weeks"},
		{60, "2 months"},
	}

	for _, tc := range cases {
		if got := describeTimeSpan(span(tc.days)); got != tc.want {
			t.Fatalf("span(%d days) = %q, want %q", tc.days, got, tc.want)
		}
	}
}

func TestValidateMoodEntryScoring(t *testing.T) {
	full := ValidateMoodEntry(MoodEntryInput{
		Score:  4,
		Energy: intPtr(3),
		Stress: intPtr(2),
		Notes:  "Slept well, morning run before class",
		Tags:   []string{"sleep", "exercise"},
	})
	if !full.Valid {
		t.Fatalf("expected valid entry, got errors %v", full.Errors)
	}
	if full.Score != 100 {
		t.Fatalf("expected perfect quality score, got %d", full.Score)
	}

	missing := ValidateMoodEntry(MoodEntryInput{})
	if missing.Valid {
		t.Fatal("expected missing mood score to be a hard error")
	}
	// -30 missing mood, -5 energy, -5 stress, -5 notes.
	if missing.Score != 55 {
		t.Fatalf("expected score 55, got %d", missing.Score)
	}

	outOfRange := ValidateMoodEntry(MoodEntryInput{Score: 9, Energy: intPtr(0), Stress: intPtr(7), Notes: "ok"})
	if outOfRange.Valid {
		t.Fatal("expected out-of-range mood score to be a hard error")
	}
	// -20 range, -10 energy range, -10 stress range, -3 short notes.
	if outOfRange.Score != 57 {
		t.Fatalf("expected score 57, got %d", outOfRange.Score)
	}

	tags := make([]string, 0, 12)
	for i := 0; i < 11; i++ {
		tags = append(tags, strings.Repeat("t", i+1))
	}
	tags = append(tags, "t")
	tagged := ValidateMoodEntry(MoodEntryInput{
		Score:  3,
		Energy: intPtr(3),
		Stress: intPtr(3),
		Notes:  strings.Repeat("n", 1100),
		Tags:   tags,
	})
	if !tagged.Valid {
		t.Fatalf("expected warnings only, got errors %v", tagged.Errors)
	}
	// -5 long notes, -5 too many tags, -3 duplicates.
	if tagged.Score != 87 {
		t.Fatalf("expected score 87, got %d", tagged.Score)
	}
}

func TestValidateGoalScoring(t *testing.T) {
	good := ValidateGoal(GoalInput{Name: "Meditate daily", Target: 30, Unit: "sessions", Category: "meditation"})
	if !good.Valid {
		t.Fatalf("expected valid goal, got errors %v", good.Errors)
	}
	if good.Score != 100 {
		t.Fatalf("expected perfect score, got %d", good.Score)
	}

	empty := ValidateGoal(GoalInput{})
	if empty.Valid {
		t.Fatal("expected empty goal to be invalid")
	}
	// -25 name, -25 target, -10 unit, -10 category.
	if empty.Score != 30 {
		t.Fatalf("expected score 30, got %d", empty.Score)
	}

	negative := ValidateGoal(GoalInput{Name: "Run", Target: -5, Current: -1, Unit: "km", Category: "exercise"})
	if negative.Valid {
		t.Fatal("expected negative target to be invalid")
	}
	// -20 negative target, -15 negative progress.
	if negative.Score != 65 {
		t.Fatalf("expected score 65, got %d", negative.Score)
	}

	lofty := ValidateGoal(GoalInput{Name: "Steps", Target: 5000, Unit: "steps", Category: "bogus"})
	if !lofty.Valid {
		t.Fatalf("expected warnings only, got errors %v", lofty.Errors)
	}
	// -10 very high target, -5 invalid category.
	if lofty.Score != 85 {
		t.Fatalf("expected score 85, got %d", lofty.Score)
	}

	exceeded := ValidateGoal(GoalInput{Name: "Read", Target: 5, Current: 7, Unit: "books", Category: "other"})
	if !exceeded.Valid {
		t.Fatal("expected exceeded goal to remain valid")
	}
	found := false
	for _, warning := range exceeded.Warnings {
		if strings.Contains(warning, "exceeds target") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected exceeds-target warning, got %v", exceeded.Warnings)
	}
}

func TestSanitizeMoodEntry(t *testing.T) {
	out := SanitizeMoodEntry(MoodEntryInput{
		Score:  9,
		Energy: intPtr(0),
		Stress: intPtr(8),
		Notes:  strings.Repeat("n", 1200),
		Tags: []string{
			strings.Repeat("t", 60), "a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k",
		},
	})

	if out.Score != 5 {
		t.Fatalf("expected score clamped to 5, got %d", out.Score)
	}
	if *out.Energy != 1 || *out.Stress != 5 {
		t.Fatalf("expected energy 1 stress 5, got %d %d", *out.Energy, *out.Stress)
	}
	if len(out.Notes) != 1000 {
		t.Fatalf("expected notes truncated to 1000, got %d", len(out.Notes))
	}
	if len(out.Tags) != 10 {
		t.Fatalf("expected 10 tags, got %d", len(out.Tags))
	}
	if len(out.Tags[0]) != 50 {
		t.Fatalf("expected first tag truncated to 50, got %d", len(out.Tags[0]))
	}
}

func TestSanitizeGoal(t *testing.T) {
	out := SanitizeGoal(GoalInput{
		Name:     strings.Repeat("g", 150),
		Target:   0,
		Current:  -3,
		Unit:     "",
		Category: "unknown",
	})

	if len(out.Name) != 100 {
		t.Fatalf("expected name truncated to 100, got %d", len(out.Name))
	}
	if out.Target != 1 {
		t.Fatalf("expected target floored at 1, got %d", out.Target)
	}
	if out.Current != 0 {
		t.Fatalf("expected current floored at 0, got %d", out.Current)
	}
	if out.Unit != "items" {
		t.Fatalf("expected default unit, got %q", out.Unit)
	}
	if out.Category != "other" {
		t.Fatalf("expected fallback category, got %q", out.Category)
	}
}

func TestGenerateInsightsEmpty(t *testing.T) {
	insights := GenerateInsights(nil, nil)
	if insights.Summary != "Start your wellness journey by logging your first mood entry." {
		t.Fatalf("unexpected summary %q", insights.Summary)
	}
	if insights.DataQuality != 0 {
		t.Fatalf("expected zero data quality, got %d", insights.DataQuality)
	}
	if len(insights.Recommendations) != 2 {
		t.Fatalf("expected starter recommendations, got %v", insights.Recommendations)
	}
}

func TestGenerateInsightsRichSeries(t *testing.T) {
	entries := entrySeries(2, 3, 3, 4, 4, 5, 5)
	goals := []domain.WellnessGoal{{ID: "g1", UserID: "user-1", Name: "Sleep", Target: 8}}

	insights := GenerateInsights(entries, goals)

	// 30 entries + 20 seven-plus + 25 goals + 25 trend.
	if insights.DataQuality != 100 {
		t.Fatalf("expected full data quality, got %d", insights.DataQuality)
	}
	if !strings.HasPrefix(insights.Summary, "Based on 7 mood entries, your average mood is 3.7/5.") {
		t.Fatalf("unexpected summary %q", insights.Summary)
	}
	if insights.Trend.Direction != domain.TrendImproving {
		t.Fatalf("expected improving trend, got %s", insights.Trend.Direction)
	}

	wantAchievements := []string{
		"Consistent tracking - 7+ mood entries logged",
		"Positive mood trend detected",
	}
	for _, want := range wantAchievements {
		if !containsString(insights.Achievements, want) {
			t.Fatalf("missing achievement %q in %v", want, insights.Achievements)
		}
	}

	if !containsString(insights.Recommendations, "Track energy levels for more comprehensive insights") {
		t.Fatalf("expected energy recommendation, got %v", insights.Recommendations)
	}
	if !containsString(insights.Recommendations, "Track stress levels to identify patterns and triggers") {
		t.Fatalf("expected stress recommendation, got %v", insights.Recommendations)
	}
}

func TestGenerateInsightsConcerns(t *testing.T) {
	insights := GenerateInsights(entrySeries(4, 3, 2, 2, 1), nil)

	if !containsString(insights.Concerns, "Low average mood - consider seeking support") {
		t.Fatalf("expected low mood concern, got %v", insights.Concerns)
	}
	if !containsString(insights.Concerns, "Declining mood trend - may need intervention") {
		t.Fatalf("expected declining trend concern, got %v", insights.Concerns)
	}
	if !containsString(insights.Recommendations, "Set wellness goals to work towards specific improvements") {
		t.Fatalf("expected goal recommendation, got %v", insights.Recommendations)
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestLogMoodStoresSanitizedEntry(t *testing.T) {
	moods := &fakeMoodRepository{}
	goalsRepo := &fakeGoalRepository{}
	events := &capturingPublisher{}
	service := NewWellnessService(moods, goalsRepo, events, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC) })

	entry, err := service.LogMood(context.Background(), "user-1", MoodEntryInput{
		Score:  4,
		Energy: intPtr(3),
		Stress: intPtr(2),
		Notes:  "Morning walk before lectures",
	})
	if err != nil {
		t.Fatalf("log mood: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("expected generated entry id")
	}
	if len(moods.entries) != 1 {
		t.Fatalf("expected one stored entry, got %d", len(moods.entries))
	}
	if !entry.CreatedAt.Equal(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %s", entry.CreatedAt)
	}
}

func TestLogMoodRejectsInvalidEntry(t *testing.T) {
	moods := &fakeMoodRepository{}
	service := NewWellnessService(moods, &fakeGoalRepository{}, nil, zaptest.NewLogger(t))

	_, err := service.LogMood(context.Background(), "user-1", MoodEntryInput{})

	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(invalid.Report.Errors) == 0 {
		t.Fatal("expected at least one validation error")
	}
	if len(moods.entries) != 0 {
		t.Fatal("invalid entry must not be stored")
	}
}

func TestCreateGoalAppliesDefaults(t *testing.T) {
	goalsRepo := &fakeGoalRepository{}
	service := NewWellnessService(&fakeMoodRepository{}, goalsRepo, nil, zaptest.NewLogger(t))

	goal, err := service.CreateGoal(context.Background(), "user-1", GoalInput{
		Name:   "Read more",
		Target: 12,
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if goal.Unit != "items" {
		t.Fatalf("expected default unit, got %q", goal.Unit)
	}
	if goal.Category != "other" {
		t.Fatalf("expected fallback category, got %q", goal.Category)
	}
	if len(goalsRepo.goals) != 1 {
		t.Fatalf("expected one stored goal, got %d", len(goalsRepo.goals))
	}
}

func TestUpdateGoalProgressClampsNegative(t *testing.T) {
	goalsRepo := &fakeGoalRepository{}
	service := NewWellnessService(&fakeMoodRepository{}, goalsRepo, nil, zaptest.NewLogger(t))

	if err := service.UpdateGoalProgress(context.Background(), "g1", -5); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if goalsRepo.updated["g1"] != 0 {
		t.Fatalf("expected negative progress clamped to 0, got %d", goalsRepo.updated["g1"])
	}
}
