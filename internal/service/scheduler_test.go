package service

import (
	"fmt"
	"study_plan_backend/internal/config"
	"study_plan_backend/internal/model"
	"study_plan_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotFor(t *testing.T) {
	chapters := func(int) int { return 8 }
	topics := func(int, int) int { return 5 }
	tests := []struct {
		d    int
		want DaySlot
	}{
		{0, DaySlot{Subject: 0, Chapter: 0, Topic: 0, Type: model.TaskStudy}},
		{1, DaySlot{Subject: 1, Chapter: 0, Topic: 0, Type: model.TaskStudy}},
		{2, DaySlot{Subject: 0, Chapter: 1, Topic: 0, Type: model.TaskStudy}},
		{5, DaySlot{Subject: 1, Chapter: 2, Topic: 0, Type: model.TaskPractice}},
		{6, DaySlot{Subject: 0, Chapter: 3, Topic: 0, Type: model.TaskRevision}},
		{16, DaySlot{Subject: 0, Chapter: 0, Topic: 1, Type: model.TaskStudy}},
		{83, DaySlot{Subject: 1, Chapter: 1, Topic: 0, Type: model.TaskRevision}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("day %d", tt.d), func(t *testing.T) {
			assert.Equal(t, tt.want, SlotFor(tt.d, 2, chapters, topics))
		})
	}
}

func TestTaskPriority(t *testing.T) {
	tests := []struct {
		name    string
		chapter model.Priority
		topic   model.TopicImportance
		want    model.TaskPriority
	}{
		{"high chapter", model.PriorityHigh, model.TopicModerate, model.TaskUrgent},
		{"critical topic", model.PriorityMedium, model.TopicCritical, model.TaskImportant},
		{"low chapter", model.PriorityLow, model.TopicImportant, model.TaskNormal},
		{"medium chapter", model.PriorityMedium, model.TopicModerate, model.TaskNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := taskPriority(model.ChapterInfo{Importance: tt.chapter}, model.TopicInfo{Importance: tt.topic})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScheduleHorizon(t *testing.T) {
	plan := scheduledPlan(t, boardExam(testStart, 60), 60)

	require.Len(t, plan.DailyTasks, 45)
	assert.Equal(t, day(44), plan.ScheduledThrough)
	assert.Equal(t, 45, ScheduledDays(plan))

	ids := map[string]bool{}
	for i, task := range plan.DailyTasks {
		assert.False(t, ids[task.ID], "duplicate id %s", task.ID)
		ids[task.ID] = true
		assert.Equal(t, fmt.Sprintf("task-%d", i+1), task.ID)
		assert.Equal(t, day(i), task.Date)
		assert.Equal(t, 120, task.Duration)
		assert.NotEmpty(t, task.DetailedInstructions)
	}

	// 第一天是 Math 的 Algebra (high)，第二天是 History 的 Ancient Civilizations (medium)
	assert.Equal(t, "Math", plan.DailyTasks[0].Subject)
	assert.Equal(t, model.TaskUrgent, plan.DailyTasks[0].Priority)
	assert.Equal(t, "History", plan.DailyTasks[1].Subject)
	assert.Equal(t, model.TaskNormal, plan.DailyTasks[1].Priority)
	assert.Equal(t, model.TaskPractice, plan.DailyTasks[5].Type)
	assert.Equal(t, model.TaskRevision, plan.DailyTasks[6].Type)
}

func TestScheduleShortExam(t *testing.T) {
	plan := scheduledPlan(t, boardExam(testStart, 3), 3)
	require.Len(t, plan.DailyTasks, 3)
	require.Len(t, plan.WeeklyGoals, 1)
	assert.Equal(t, 100, plan.WeeklyGoals[0].TargetCompletion)
	assert.Equal(t, day(0), plan.WeeklyGoals[0].StartDate)
	assert.Equal(t, day(2), plan.WeeklyGoals[0].EndDate)
}

func TestBuildGoals(t *testing.T) {
	plan := scheduledPlan(t, boardExam(testStart, 100), 100)

	// 已排期 45 天 -> 7 周；总共 15 周，每周目标递增 ceil(100/15)=7
	require.Len(t, plan.WeeklyGoals, 7)
	require.Len(t, plan.Milestones, 7)
	assert.Equal(t, 7, plan.WeeklyGoals[0].TargetCompletion)
	assert.Equal(t, 49, plan.WeeklyGoals[6].TargetCompletion)
	assert.Equal(t, day(42), plan.WeeklyGoals[6].StartDate)
	assert.Equal(t, day(44), plan.WeeklyGoals[6].EndDate)
	assert.ElementsMatch(t, []string{"Math", "History"}, plan.WeeklyGoals[0].Subjects)
	assert.Equal(t, "Take a full day off before the final push", plan.Milestones[6].Reward)
}

func TestExtendContinuesMapping(t *testing.T) {
	exam := boardExam(testStart, 100)
	plan := scheduledPlan(t, exam, 100)
	s := NewScheduler(config.Defaults())

	added, err := s.Extend(plan, exam, testStart.AddDate(0, 0, 70))
	require.NoError(t, err)
	assert.Equal(t, 26, added)
	require.Len(t, plan.DailyTasks, 71)
	assert.Equal(t, "task-46", plan.DailyTasks[45].ID)
	assert.Equal(t, day(70), plan.ScheduledThrough)

	// 不超过考试日
	added, err = s.Extend(plan, exam, testStart.AddDate(0, 0, 300))
	require.NoError(t, err)
	assert.Equal(t, 29, added)
	assert.Equal(t, day(99), plan.ScheduledThrough)

	added, err = s.Extend(plan, exam, testStart.AddDate(0, 0, 300))
	require.NoError(t, err)
	assert.Zero(t, added)

	// 与一次性排完的结果一致
	full := fallbackPlan(exam)
	planNormalizer{cfg: config.Defaults()}.normalize(&full, exam, util.FormatDate(testStart), 100)
	require.NoError(t, NewScheduler(config.PlannerConfig{HorizonDays: 100}).Schedule(&full, exam))
	assert.Equal(t, full.DailyTasks, plan.DailyTasks)

	// 周目标最多 MaxWeeks 周
	assert.Len(t, plan.WeeklyGoals, 12)
}

func TestExtendIsChunked(t *testing.T) {
	exam := boardExam(testStart, 200)
	plan := scheduledPlan(t, exam, 200)

	added, err := NewScheduler(config.Defaults()).Extend(plan, exam, testStart.AddDate(0, 0, 199))
	require.NoError(t, err)
	assert.Equal(t, 45, added)
	assert.Equal(t, 90, ScheduledDays(plan))
}

func TestTaskDuration(t *testing.T) {
	hints := []model.PlanHint{{Kind: model.HintExtraTime, Subject: "math", Weight: 1.25}}
	assert.Equal(t, 150, taskDuration(2, "Math", hints))
	assert.Equal(t, 120, taskDuration(2, "History", hints))
	assert.Equal(t, 15, taskDuration(0.1, "History", nil))
	assert.Equal(t, 90, taskDuration(1.5, "History", nil))
}

func TestTaskTextUsesHints(t *testing.T) {
	exam := boardExam(testStart, 14)
	exam.Hints = []model.PlanHint{
		{Kind: model.HintPreferredSlot, TimeSlot: "morning"},
		{Kind: model.HintBreakCadence, FocusMinutes: 50, BreakMinutes: 10},
	}
	plan := scheduledPlan(t, exam, 14)

	task := plan.DailyTasks[0]
	assert.Contains(t, task.Description, "[best in the morning]")
	assert.Contains(t, task.DetailedInstructions, "Work in 50 minute focus blocks with 10 minute breaks.")
}
