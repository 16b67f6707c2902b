package model

import "time"

// UserProgress 每个用户每个计划的学习进度，首次完成任务时惰性创建
// 按考试名存储；同名考试的其它计划的进度放在 Archived 中
// swagger:model UserProgress
type UserProgress struct {
	UserID              string           `json:"userId"`
	PlanID              string           `json:"planId"`
	ExamName            string           `json:"examName"`
	TotalTasksCompleted int              `json:"totalTasksCompleted"`
	TotalTasksAssigned  int              `json:"totalTasksAssigned"`
	CurrentStreak       int              `json:"currentStreak"`
	LongestStreak       int              `json:"longestStreak"`
	TotalPoints         int              `json:"totalPoints"`
	Badges              []Badge          `json:"badges"`
	LastActivityDate    string           `json:"lastActivityDate"`
	WeeklyProgress      []WeeklySnapshot `json:"weeklyProgress"`
	FeedbackLog         []TaskFeedback   `json:"feedbackLog"`
	Archived            []UserProgress   `json:"archived,omitempty"`
}

type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earnedAt"`
}

type WeeklySnapshot struct {
	Week           int `json:"week"`
	TasksCompleted int `json:"tasksCompleted"`
	PointsEarned   int `json:"pointsEarned"`
	MinutesStudied int `json:"minutesStudied"`
}

// TaskFeedback 任务完成时的原始反馈记录
type TaskFeedback struct {
	TaskID           string    `json:"taskId"`
	Subject          string    `json:"subject"`
	TaskType         TaskType  `json:"taskType"`
	PlannedMinutes   int       `json:"plannedMinutes"`
	TimeSpent        int       `json:"timeSpent"`
	Score            *int      `json:"score,omitempty"`
	DifficultyRating *int      `json:"difficultyRating,omitempty"`
	Feedback         string    `json:"feedback,omitempty"`
	Points           int       `json:"points"`
	CompletedAt      time.Time `json:"completedAt"`
}

// HasBadge 是否已获得指定徽章
func (p *UserProgress) HasBadge(id string) bool {
	for _, b := range p.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}
