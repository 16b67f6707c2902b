package service

import (
	"context"
	"errors"
	"study_plan_backend/internal/config"
	"study_plan_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(text TextGenerator) *PlanGenerator {
	g := NewPlanGenerator(text, config.Defaults())
	g.Now = func() time.Time { return testStart }
	return g
}

func TestGenerateFallsBackWhenUpstreamFails(t *testing.T) {
	exam := boardExam(testStart, 14)
	result := newTestGenerator(failingGenerator{}).Generate(context.Background(), exam)

	assert.Equal(t, model.SourceFallback, result.Source)
	var upstream *GenerationUpstreamError
	assert.True(t, errors.As(result.Reason, &upstream))

	plan := result.Plan
	require.Len(t, plan.SubjectPlans, 2)
	assert.Equal(t, "Math", plan.SubjectPlans[0].Subject)
	assert.Equal(t, "History", plan.SubjectPlans[1].Subject)
	assert.Equal(t, 14, plan.TotalDaysAvailable)
	require.Len(t, plan.DailyTasks, 14)
	assert.Equal(t, day(0), plan.DailyTasks[0].Date)
	assert.Equal(t, "task-1", plan.DailyTasks[0].ID)
	assert.Equal(t, day(13), plan.ScheduledThrough)
	assert.Len(t, plan.WeeklyGoals, 2)
	assert.Len(t, plan.Milestones, 2)
	assert.NotEmpty(t, plan.ExamTips)
}

func TestGenerateFallsBackOnUnparseableOutput(t *testing.T) {
	exam := boardExam(testStart, 14)
	result := newTestGenerator(cannedGenerator{text: "Sorry, I cannot help with that."}).Generate(context.Background(), exam)

	assert.Equal(t, model.SourceFallback, result.Source)
	var parseErr *GenerationParseError
	assert.True(t, errors.As(result.Reason, &parseErr))
	assert.Len(t, result.Plan.SubjectPlans, 2)
}

func TestGenerateUsesStructuredOutput(t *testing.T) {
	text := "Here is your plan:\n```json\n" + `{
  "overview": "Focused plan",
  "subjectPlans": [
    {"subject": "Maths", "priority": "HIGH", "chapters": [
      {"chapterNumber": 1, "chapterName": "Vectors", "importance": "high",
       "topics": [{"topicName": "Dot Product", "importance": "critical", "estimatedMinutes": 45}]}
    ]},
    {"subject": "Art", "chapters": [{"chapterName": "Colour"}]}
  ],
  "dailyTasks": [{"id": "llm-task", "date": "2020-01-01"}]
}` + "\n```"
	exam := boardExam(testStart, 14)
	result := newTestGenerator(cannedGenerator{text: text}).Generate(context.Background(), exam)

	require.Equal(t, model.SourceGenerated, result.Source)
	assert.NoError(t, result.Reason)

	plan := result.Plan
	assert.Equal(t, "Focused plan", plan.Overview)
	require.Len(t, plan.SubjectPlans, 2)

	math := plan.SubjectPlans[0]
	assert.Equal(t, "Math", math.Subject)
	assert.Equal(t, model.PriorityHigh, math.Priority)
	require.Len(t, math.Chapters, 1)
	assert.Equal(t, "Vectors", math.Chapters[0].ChapterName)

	// History 不在生成结果中，来自本地模板
	history := plan.SubjectPlans[1]
	assert.Equal(t, "History", history.Subject)
	assert.NotEmpty(t, history.Chapters)

	require.NotEmpty(t, plan.DailyTasks)
	assert.Equal(t, "task-1", plan.DailyTasks[0].ID)
	assert.Equal(t, day(0), plan.DailyTasks[0].Date)
	assert.Equal(t, model.TaskUrgent, plan.DailyTasks[0].Priority)
}

func TestGenerateIsDeterministic(t *testing.T) {
	exam := boardExam(testStart, 30)
	g := newTestGenerator(failingGenerator{})
	first := g.Generate(context.Background(), exam)
	second := g.Generate(context.Background(), exam)
	assert.Equal(t, first.Plan, second.Plan)
}

func TestTotalDays(t *testing.T) {
	tests := []struct {
		name     string
		examDate string
		want     int
	}{
		{"two weeks out", day(14), 14},
		{"tomorrow", day(1), 1},
		{"today", day(0), 1},
		{"already passed", day(-5), 1},
		{"unparseable", "next month", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalDays(testStart, tt.examDate))
		})
	}
}
