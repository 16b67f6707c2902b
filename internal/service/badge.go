package service

import (
	"study_plan_backend/internal/model"
	"time"
)

type badgeRule struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Earned      func(p *model.UserProgress) bool
}

var badgeRules = []badgeRule{
	{"first_task", "First Step", "Completed your first task", "🎯",
		func(p *model.UserProgress) bool { return p.TotalTasksCompleted >= 1 }},
	{"streak_3", "On a Roll", "Studied 3 days in a row", "🔥",
		func(p *model.UserProgress) bool { return p.CurrentStreak >= 3 }},
	{"streak_7", "Week Warrior", "Studied 7 days in a row", "🏆",
		func(p *model.UserProgress) bool { return p.CurrentStreak >= 7 }},
	{"tasks_10", "Getting Serious", "Completed 10 tasks", "📚",
		func(p *model.UserProgress) bool { return p.TotalTasksCompleted >= 10 }},
	{"tasks_50", "Study Machine", "Completed 50 tasks", "🚀",
		func(p *model.UserProgress) bool { return p.TotalTasksCompleted >= 50 }},
	{"points_100", "Century", "Earned 100 points", "💯",
		func(p *model.UserProgress) bool { return p.TotalPoints >= 100 }},
	{"points_500", "High Achiever", "Earned 500 points", "⭐",
		func(p *model.UserProgress) bool { return p.TotalPoints >= 500 }},
	{"plan_complete", "Finisher", "Completed every assigned task", "🎓",
		func(p *model.UserProgress) bool {
			return p.TotalTasksAssigned > 0 && p.TotalTasksCompleted >= p.TotalTasksAssigned
		}},
}

// EvaluateBadges 返回新满足条件且尚未获得的徽章，不修改 progress
// 调用方追加返回值后再次调用得到空结果
func EvaluateBadges(p *model.UserProgress, now time.Time) []model.Badge {
	var earned []model.Badge
	for _, r := range badgeRules {
		if p.HasBadge(r.ID) || !r.Earned(p) {
			continue
		}
		earned = append(earned, model.Badge{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Icon:        r.Icon,
			EarnedAt:    now,
		})
	}
	return earned
}
