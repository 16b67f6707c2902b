package service

import (
	"context"
	"errors"
	"study_plan_backend/internal/model"
	"study_plan_backend/internal/repository"
	"study_plan_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func badgeIDs(badges []model.Badge) []string {
	ids := make([]string, 0, len(badges))
	for _, b := range badges {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestCompleteTask(t *testing.T) {
	s := newTestStack(t, failingGenerator{})
	ctx := context.Background()
	plan, err := s.plans.CreatePlan(ctx, testUser, boardExam(testStart, 14))
	require.NoError(t, err)

	result, err := s.progress.CompleteTask(ctx, testUser, plan.ID, "task-1", CompletionDetails{
		Score:            intPtr(80),
		Feedback:         "went well",
		TimeSpent:        intPtr(30),
		DifficultyRating: intPtr(2),
	})
	require.NoError(t, err)

	assert.True(t, result.Task.Completed)
	assert.NotEmpty(t, result.Task.CompletedAt)
	assert.Equal(t, 80, *result.Task.Score)
	assert.Equal(t, 13, result.PointsAwarded)
	assert.Equal(t, []string{"first_task"}, badgeIDs(result.NewBadges))
	assert.Equal(t, model.PlanActive, result.PlanStatus)

	p := result.Progress
	assert.Equal(t, 1, p.TotalTasksCompleted)
	assert.Equal(t, 14, p.TotalTasksAssigned)
	assert.Equal(t, 13, p.TotalPoints)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 1, p.LongestStreak)
	assert.Equal(t, day(0), p.LastActivityDate)
	assert.Equal(t, []model.WeeklySnapshot{{Week: 1, TasksCompleted: 1, PointsEarned: 13, MinutesStudied: 30}}, p.WeeklyProgress)
	require.Len(t, p.FeedbackLog, 1)
	assert.Equal(t, 120, p.FeedbackLog[0].PlannedMinutes)

	saved, err := s.plans.GetPlan(ctx, testUser, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.CompletedTasks)
	assert.Equal(t, 7, saved.Progress)

	_, err = s.progress.CompleteTask(ctx, testUser, plan.ID, "task-1", CompletionDetails{})
	assert.ErrorIs(t, err, util.ErrTaskAlreadyCompleted)

	_, err = s.progress.CompleteTask(ctx, testUser, plan.ID, "task-999", CompletionDetails{})
	assert.ErrorIs(t, err, util.ErrTaskNotFound)

	_, err = s.progress.CompleteTask(ctx, testUser, "missing", "task-1", CompletionDetails{})
	assert.ErrorIs(t, err, util.ErrPlanNotFound)
}

func TestCompleteTaskRejectsInvalidDetails(t *testing.T) {
	s := newTestStack(t, failingGenerator{})
	ctx := context.Background()
	plan, err := s.plans.CreatePlan(ctx, testUser, boardExam(testStart, 14))
	require.NoError(t, err)

	_, err = s.progress.CompleteTask(ctx, testUser, plan.ID, "task-1", CompletionDetails{Score: intPtr(101)})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	saved, err := s.plans.GetPlan(ctx, testUser, plan.ID)
	require.NoError(t, err)
	assert.Zero(t, saved.CompletedTasks)
}

func TestCompleteTaskWhenAwarderFails(t *testing.T) {
	s := newTestStack(t, failingGenerator{})
	s.progress.Points = failingAwarder{}
	ctx := context.Background()
	plan, err := s.plans.CreatePlan(ctx, testUser, boardExam(testStart, 14))
	require.NoError(t, err)

	result, err := s.progress.CompleteTask(ctx, testUser, plan.ID, "task-1", CompletionDetails{})
	require.NoError(t, err)
	assert.Zero(t, result.PointsAwarded)
	assert.Zero(t, result.Progress.TotalPoints)
	assert.True(t, result.Task.Completed)
	assert.Equal(t, 1, result.Progress.TotalTasksCompleted)
}

func TestCompleteTaskStreakAcrossDays(t *testing.T) {
	s := newTestStack(t, failingGenerator{})
	ctx := context.Background()
	plan, err := s.plans.CreatePlan(ctx, testUser, boardExam(testStart, 30))
	require.NoError(t, err)

	complete := func(taskID string) model.UserProgress {
		t.Helper()
		result, err := s.progress.CompleteTask(ctx, testUser, plan.ID, taskID, CompletionDetails{})
		require.NoError(t, err)
		return result.Progress
	}

	p := complete("task-1")
	assert.Equal(t, 1, p.CurrentStreak)

	p = complete("task-2")
	assert.Equal(t, 1, p.CurrentStreak, "same day does not extend the streak")

	s.clock.advanceDays(1)
	p = complete("task-3")
	assert.Equal(t, 2, p.CurrentStreak)
	assert.Equal(t, 2, p.LongestStreak)

	s.clock.advanceDays(3)
	p = complete("task-4")
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 2, p.LongestStreak)
	assert.Equal(t, 4, p.TotalTasksCompleted)

	// 两天没有学习，读取时连续天数归零
	s.clock.advanceDays(2)
	progress, err := s.progress.GetProgress(ctx, testUser, plan.ID)
	require.NoError(t, err)
	assert.Zero(t, progress.CurrentStreak)
	assert.Equal(t, 2, progress.LongestStreak)
}

func TestCompletingEveryTaskFinishesPlan(t *testing.T) {
	s := newTestStack(t, failingGenerator{})
	ctx := context.Background()
	plan, err := s.plans.CreatePlan(ctx, testUser, boardExam(testStart, 2))
	require.NoError(t, err)
	require.Equal(t, 2, plan.TotalTasks)

	first, err := s.progress.CompleteTask(ctx, testUser, plan.ID, "task-1", CompletionDetails{})
	require.NoError(t, err)
	assert.Equal(t, model.PlanActive, first.PlanStatus)
	assert.Equal(t, 20, first.PointsAwarded)

	second, err := s.progress.CompleteTask(ctx, testUser, plan.ID, "task-2", CompletionDetails{})
	require.NoError(t, err)
	assert.Equal(t, model.PlanCompleted, second.PlanStatus)
	assert.Contains(t, badgeIDs(second.NewBadges), "plan_complete")
	assert.Equal(t, 40, second.Progress.TotalPoints)

	saved, err := s.plans.GetPlan(ctx, testUser, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanCompleted, saved.Status)
	assert.Equal(t, 100, saved.Progress)
}

func TestApplyStreak(t *testing.T) {
	tests := []struct {
		name        string
		last        string
		streak      int
		longest     int
		wantStreak  int
		wantLongest int
	}{
		{"first activity", "", 0, 0, 1, 1},
		{"same day", day(0), 2, 4, 2, 4},
		{"yesterday", day(-1), 4, 4, 5, 5},
		{"three days ago", day(-3), 5, 5, 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &model.UserProgress{LastActivityDate: tt.last, CurrentStreak: tt.streak, LongestStreak: tt.longest}
			applyStreak(p, testStart)
			assert.Equal(t, tt.wantStreak, p.CurrentStreak)
			assert.Equal(t, tt.wantLongest, p.LongestStreak)
			assert.Equal(t, day(0), p.LastActivityDate)
		})
	}
}

func TestGetTodaysTasksPaging(t *testing.T) {
	plan := &model.StudyPlan{}
	for i := 0; i < 5; i++ {
		plan.DailyTasks = append(plan.DailyTasks, model.DailyTask{ID: "today", Date: day(0)})
	}
	plan.DailyTasks = append(plan.DailyTasks,
		model.DailyTask{ID: "tomorrow", Date: day(1)},
		model.DailyTask{ID: "weekday", Day: "Monday"},
	)

	page := GetTodaysTasks(plan, testStart, 3, 2)
	assert.Equal(t, 6, page.Total)
	assert.Len(t, page.List, 2)
	assert.Equal(t, "weekday", page.List[1].ID)

	page = GetTodaysTasks(plan, testStart, 10, 2)
	assert.Empty(t, page.List)
	assert.Equal(t, 6, page.Total)

	page = GetTodaysTasks(plan, testStart, 0, 0)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, util.DefaultPageLimit, page.Limit)

	page = GetTodaysTasks(plan, testStart, 1, 500)
	assert.Equal(t, util.MaxPageLimit, page.Limit)
}

func TestTodaysTasks(t *testing.T) {
	s := newTestStack(t, failingGenerator{})
	ctx := context.Background()
	plan, err := s.plans.CreatePlan(ctx, testUser, boardExam(testStart, 14))
	require.NoError(t, err)

	page, err := s.progress.TodaysTasks(ctx, testUser, plan.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.List, 1)
	assert.Equal(t, "task-1", page.List[0].ID)

	s.clock.advanceDays(20)
	page, err = s.progress.TodaysTasks(ctx, testUser, plan.ID, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, page.List)
}

func TestGetProgressBeforeAnyCompletion(t *testing.T) {
	s := newTestStack(t, failingGenerator{})
	ctx := context.Background()
	plan, err := s.plans.CreatePlan(ctx, testUser, boardExam(testStart, 14))
	require.NoError(t, err)

	p, err := s.progress.GetProgress(ctx, testUser, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, p.PlanID)
	assert.Equal(t, 14, p.TotalTasksAssigned)
	assert.Zero(t, p.TotalTasksCompleted)
	assert.NotNil(t, p.Badges)
}

func TestCompleteTaskRetryAfterFailedWriteAwardsOnce(t *testing.T) {
	s := newTestStack(t, failingGenerator{})
	ctx := context.Background()
	plan, err := s.plans.CreatePlan(ctx, testUser, boardExam(testStart, 14))
	require.NoError(t, err)

	store := &flakyStore{MemoryKVStore: s.store, failWrites: 1}
	awarder := newKeyedAwarder()
	progress := NewProgressService(repository.NewStudyPlanRepository(store, ""), s.plans, awarder, NewRequestValidator(), NewUserLocks())
	progress.Now = s.clock.Now

	details := CompletionDetails{TimeSpent: intPtr(30)}
	_, err = progress.CompleteTask(ctx, testUser, plan.ID, "task-1", details)
	var perr *repository.PersistenceError
	require.True(t, errors.As(err, &perr))

	saved, err := s.plans.GetPlan(ctx, testUser, plan.ID)
	require.NoError(t, err)
	assert.Zero(t, saved.CompletedTasks)

	result, err := progress.CompleteTask(ctx, testUser, plan.ID, "task-1", details)
	require.NoError(t, err)
	assert.Equal(t, 13, result.PointsAwarded)
	assert.Equal(t, 13, result.Progress.TotalPoints)

	require.Len(t, awarder.keys, 2)
	assert.Equal(t, awarder.keys[0], awarder.keys[1])
	assert.Equal(t, testUser+"/"+plan.ID+"/task-1", awarder.keys[0])
	assert.Len(t, awarder.granted, 1)
}

func TestProgressIsKeptPerPlanOfTheSameExam(t *testing.T) {
	s := newTestStack(t, failingGenerator{})
	ctx := context.Background()
	original, err := s.plans.CreatePlan(ctx, testUser, boardExam(testStart, 14))
	require.NoError(t, err)
	for _, id := range []string{"task-1", "task-2", "task-3"} {
		_, err := s.progress.CompleteTask(ctx, testUser, original.ID, id, CompletionDetails{})
		require.NoError(t, err)
	}
	before, err := s.progress.GetProgress(ctx, testUser, original.ID)
	require.NoError(t, err)

	regenerated, err := s.advisory.Apply(ctx, testUser, original.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, original.ExamName, regenerated.ExamName)

	s.clock.advanceDays(1)
	result, err := s.progress.CompleteTask(ctx, testUser, regenerated.ID, "task-1", CompletionDetails{TimeSpent: intPtr(30)})
	require.NoError(t, err)
	assert.Equal(t, regenerated.ID, result.Progress.PlanID)
	assert.Equal(t, 1, result.Progress.TotalTasksCompleted)
	assert.Equal(t, 13, result.Progress.TotalPoints)
	assert.Equal(t, []string{"first_task"}, badgeIDs(result.NewBadges))
	assert.Equal(t, 2, result.Progress.CurrentStreak, "streak follows the user across plans")
	assert.Nil(t, result.Progress.Archived)

	old, err := s.progress.GetProgress(ctx, testUser, original.ID)
	require.NoError(t, err)
	assert.Equal(t, original.ID, old.PlanID)
	assert.Equal(t, 3, old.TotalTasksCompleted)
	assert.Equal(t, before.TotalPoints, old.TotalPoints)
	assert.Equal(t, []string{"first_task"}, badgeIDs(old.Badges))

	// 回到原计划继续完成任务，原进度被恢复
	result, err = s.progress.CompleteTask(ctx, testUser, original.ID, "task-4", CompletionDetails{})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Progress.TotalTasksCompleted)
	assert.Greater(t, result.Progress.TotalPoints, before.TotalPoints)
	assert.Empty(t, result.NewBadges)

	current, err := s.progress.GetProgress(ctx, testUser, regenerated.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.TotalTasksCompleted)
	assert.Equal(t, 13, current.TotalPoints)
}
