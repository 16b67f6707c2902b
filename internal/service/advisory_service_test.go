package service

import (
	"context"
	"errors"
	"study_plan_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedbackAt(subject string, hour int, score, rating *int) model.TaskFeedback {
	return model.TaskFeedback{
		Subject:          subject,
		TaskType:         model.TaskStudy,
		PlannedMinutes:   60,
		TimeSpent:        60,
		Score:            score,
		DifficultyRating: rating,
		CompletedAt:      time.Date(2026, 6, 1, hour, 0, 0, 0, time.Local),
	}
}

func TestTimeSlotOf(t *testing.T) {
	tests := map[int]string{5: "morning", 11: "morning", 12: "afternoon", 16: "afternoon", 17: "evening", 20: "evening", 21: "night", 2: "night"}
	for hour, want := range tests {
		assert.Equal(t, want, timeSlotOf(time.Date(2026, 6, 1, hour, 30, 0, 0, time.Local)), "hour %d", hour)
	}
}

func TestRecommendWithoutHistory(t *testing.T) {
	s := newTestStack(t, failingGenerator{})
	ctx := context.Background()
	plan, err := s.plans.CreatePlan(ctx, testUser, boardExam(testStart, 14))
	require.NoError(t, err)

	recs, err := s.advisory.Recommend(ctx, testUser, plan.ID)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, RecommendTimeSlot, recs[0].Kind)
	assert.Equal(t, "evening", recs[0].Hint.TimeSlot)
	assert.Equal(t, 0.3, recs[0].Confidence)

	assert.Equal(t, "extra_time:History", recs[1].ID)
	assert.Equal(t, 1.25, recs[1].Hint.Weight)
	assert.Equal(t, 0.5, recs[1].Confidence)

	assert.Equal(t, RecommendBreakCadence, recs[2].Kind)
	assert.Equal(t, 25, recs[2].Hint.FocusMinutes)
	assert.Equal(t, 5, recs[2].Hint.BreakMinutes)
	assert.Equal(t, 0.4, recs[2].Confidence)
}

func TestRecommendTimeSlotFromHistory(t *testing.T) {
	exam := boardExam(testStart, 14)
	log := []model.TaskFeedback{
		feedbackAt("Math", 7, intPtr(70), nil),
		feedbackAt("Math", 19, intPtr(90), nil),
		feedbackAt("History", 20, intPtr(85), nil),
	}
	rec, ok := recommendTimeSlot(exam, log)
	require.True(t, ok)
	assert.Equal(t, "evening", rec.Hint.TimeSlot)
	assert.Equal(t, 0.55, rec.Confidence)

	exam.StudyTimeSlots = nil
	_, ok = recommendTimeSlot(exam, nil)
	assert.False(t, ok)
}

func TestRecommendExtraTime(t *testing.T) {
	exam := boardExam(testStart, 14)
	log := []model.TaskFeedback{
		feedbackAt("Math", 9, intPtr(40), nil),
		feedbackAt("Math", 9, intPtr(50), nil),
		feedbackAt("History", 9, intPtr(90), intPtr(4)),
	}
	recs := recommendExtraTime(exam, log)
	require.Len(t, recs, 2)

	math := recs[0]
	assert.Equal(t, "extra_time:Math", math.ID)
	assert.Equal(t, 1.25, math.Hint.Weight)
	assert.Equal(t, 0.6, math.Confidence)
	assert.Contains(t, math.Reason, "average score 45")

	history := recs[1]
	assert.Equal(t, 1.5, history.Hint.Weight)
	assert.Equal(t, 0.8, history.Confidence)
	assert.Contains(t, history.Reason, "listed as a weak area")

	exam.WeakAreas = ""
	assert.Len(t, recommendExtraTime(exam, log[:2]), 1)
	assert.Empty(t, recommendExtraTime(exam, nil))
}

func TestRecommendBreakCadence(t *testing.T) {
	exam := boardExam(testStart, 14)
	exam.DailyHours = 5
	rec := recommendBreakCadence(exam, nil)
	assert.Equal(t, 50, rec.Hint.FocusMinutes)
	assert.Equal(t, 10, rec.Hint.BreakMinutes)

	var log []model.TaskFeedback
	for _, r := range []int{5, 4, 4, 2, 1} {
		log = append(log, feedbackAt("Math", 9, nil, intPtr(r)))
	}
	rec = recommendBreakCadence(exam, log)
	assert.Equal(t, 25, rec.Hint.FocusMinutes)
	assert.Equal(t, 0.7, rec.Confidence)
}

func TestApplyRecommendations(t *testing.T) {
	s := newTestStack(t, failingGenerator{})
	ctx := context.Background()
	original, err := s.plans.CreatePlan(ctx, testUser, boardExam(testStart, 14))
	require.NoError(t, err)

	updated, err := s.advisory.Apply(ctx, testUser, original.ID, nil)
	require.NoError(t, err)
	assert.NotEqual(t, original.ID, updated.ID)
	assert.True(t, updated.IsActive)
	require.Len(t, updated.ExamData.Hints, 3)

	tasks := updated.StudyPlan.DailyTasks
	assert.Contains(t, tasks[0].Description, "[best in the evening]")
	assert.Equal(t, 120, tasks[0].Duration)
	assert.Equal(t, "History", tasks[1].Subject)
	assert.Equal(t, 150, tasks[1].Duration)
	assert.Contains(t, tasks[0].DetailedInstructions, "Work in 25 minute focus blocks with 5 minute breaks.")

	before, err := s.plans.GetPlan(ctx, testUser, original.ID)
	require.NoError(t, err)
	assert.Empty(t, before.ExamData.Hints)
	assert.Equal(t, model.PlanPaused, before.Status)
}

func TestApplySelectedRecommendations(t *testing.T) {
	s := newTestStack(t, failingGenerator{})
	ctx := context.Background()
	original, err := s.plans.CreatePlan(ctx, testUser, boardExam(testStart, 14))
	require.NoError(t, err)

	updated, err := s.advisory.Apply(ctx, testUser, original.ID, []string{"break_cadence", "extra_time"})
	require.NoError(t, err)
	require.Len(t, updated.ExamData.Hints, 2)
	assert.Equal(t, model.HintExtraTime, updated.ExamData.Hints[0].Kind)
	assert.Equal(t, model.HintBreakCadence, updated.ExamData.Hints[1].Kind)

	_, err = s.advisory.Apply(ctx, testUser, original.ID, []string{"nope"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "ids", verr.Fields[0].Field)
}

func TestMergeHints(t *testing.T) {
	existing := []model.PlanHint{
		{Kind: model.HintExtraTime, Subject: "math", Weight: 1.25},
		{Kind: model.HintPreferredSlot, TimeSlot: "morning"},
	}
	added := []model.PlanHint{
		{Kind: model.HintExtraTime, Subject: "Math", Weight: 1.5},
		{Kind: model.HintExtraTime, Subject: "History", Weight: 1.25},
	}
	merged := mergeHints(existing, added)
	require.Len(t, merged, 3)
	assert.Equal(t, 1.5, merged[0].Weight)
	assert.Equal(t, "morning", merged[1].TimeSlot)
	assert.Equal(t, "History", merged[2].Subject)
	assert.Equal(t, 1.25, existing[0].Weight)
}

func TestAnalytics(t *testing.T) {
	s := newTestStack(t, failingGenerator{})
	ctx := context.Background()
	plan, err := s.plans.CreatePlan(ctx, testUser, boardExam(testStart, 14))
	require.NoError(t, err)
	_, err = s.progress.CompleteTask(ctx, testUser, plan.ID, "task-1", CompletionDetails{Score: intPtr(80), TimeSpent: intPtr(30)})
	require.NoError(t, err)

	a, err := s.advisory.Analytics(ctx, testUser, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, a.Completion)
	assert.Equal(t, 13, a.TotalPoints)
	assert.Equal(t, 1, a.BadgesEarned)
	assert.Equal(t, 14, a.DaysLeft)
	require.Len(t, a.Subjects, 2)

	math := a.Subjects[0]
	assert.Equal(t, "Math", math.Subject)
	assert.Equal(t, 7, math.TasksAssigned)
	assert.Equal(t, 1, math.TasksCompleted)
	assert.Equal(t, 14, math.Completion)
	assert.Equal(t, 80.0, math.AverageScore)
	assert.Equal(t, 30, math.MinutesStudied)
	assert.Equal(t, 840, math.PlannedMinutes)
	assert.Len(t, a.WeeklyProgress, 1)
}
