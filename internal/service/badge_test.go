package service

import (
	"study_plan_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateBadges(t *testing.T) {
	p := &model.UserProgress{TotalTasksCompleted: 10, TotalTasksAssigned: 40, CurrentStreak: 3, TotalPoints: 120}

	earned := EvaluateBadges(p, testStart)
	assert.Equal(t, []string{"first_task", "streak_3", "tasks_10", "points_100"}, badgeIDs(earned))
	for _, b := range earned {
		assert.Equal(t, testStart, b.EarnedAt)
		assert.NotEmpty(t, b.Name)
	}

	p.Badges = append(p.Badges, earned...)
	assert.Empty(t, EvaluateBadges(p, testStart))

	p.CurrentStreak = 7
	p.TotalTasksCompleted = 40
	assert.Equal(t, []string{"streak_7", "plan_complete"}, badgeIDs(EvaluateBadges(p, testStart)))
}

func TestEvaluateBadgesNothingEarned(t *testing.T) {
	assert.Empty(t, EvaluateBadges(&model.UserProgress{}, testStart))
}
