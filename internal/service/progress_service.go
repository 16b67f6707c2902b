package service

import (
	"context"
	"fmt"
	"study_plan_backend/internal/model"
	"study_plan_backend/internal/repository"
	"study_plan_backend/internal/util"
	"study_plan_backend/pkg/logger"
	"study_plan_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

// ProgressService 任务完成、积分、连续天数与徽章
type ProgressService struct {
	Repo      *repository.StudyPlanRepository
	Plans     *StudyPlanService
	Points    PointsAwarder
	Validator *RequestValidator
	Locks     *UserLocks
	Now       func() time.Time
}

func NewProgressService(
	repo *repository.StudyPlanRepository,
	plans *StudyPlanService,
	points PointsAwarder,
	validator *RequestValidator,
	locks *UserLocks,
) *ProgressService {
	return &ProgressService{
		Repo:      repo,
		Plans:     plans,
		Points:    points,
		Validator: validator,
		Locks:     locks,
		Now:       time.Now,
	}
}

// CompletionDetails 完成任务时的可选自评
type CompletionDetails struct {
	Score            *int   `json:"score" validate:"omitempty,min=0,max=100"`
	Feedback         string `json:"feedback" validate:"max=2000"`
	TimeSpent        *int   `json:"timeSpent" validate:"omitempty,min=0,max=1440"`
	DifficultyRating *int   `json:"difficultyRating" validate:"omitempty,min=1,max=5"`
}

type CompletionResult struct {
	Task          model.DailyTask    `json:"task"`
	Progress      model.UserProgress `json:"progress"`
	PointsAwarded int                `json:"pointsAwarded"`
	NewBadges     []model.Badge      `json:"newBadges"`
	PlanStatus    model.PlanStatus   `json:"planStatus"`
}

// TaskPage 今日任务分页
type TaskPage struct {
	List  []model.DailyTask `json:"list"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// CompleteTask 标记任务完成并更新积分、连续天数与徽章，计划与进度在一次写入中保存
func (s *ProgressService) CompleteTask(ctx context.Context, userID, planID, taskID string, details CompletionDetails) (*CompletionResult, error) {
	if s.Validator != nil {
		if err := s.Validator.Validate(details); err != nil {
			return nil, err
		}
	}

	unlock := s.Locks.Lock(userID)
	defer unlock()

	plans, err := s.Repo.FindPlans(ctx, userID)
	if err != nil {
		return nil, err
	}
	pi := findPlan(plans, planID)
	if pi < 0 {
		return nil, util.ErrPlanNotFound
	}
	plan := &plans[pi]
	ti, ok := plan.StudyPlan.FindTask(taskID)
	if !ok {
		return nil, util.ErrTaskNotFound
	}
	task := &plan.StudyPlan.DailyTasks[ti]
	if task.Completed {
		return nil, util.ErrTaskAlreadyCompleted
	}

	now := s.Now()
	task.Completed = true
	task.CompletedAt = now.Format(time.RFC3339)
	task.Score = details.Score
	task.Feedback = details.Feedback
	task.TimeSpent = details.TimeSpent
	task.DifficultyRating = details.DifficultyRating

	minutes := task.Duration
	if details.TimeSpent != nil {
		minutes = *details.TimeSpent
	}

	points := s.award(ctx, userID, plan.ID, task, minutes)

	record, found, err := s.Repo.FindProgress(ctx, userID, plan.ExamName)
	if err != nil {
		return nil, err
	}
	if !found {
		record = newProgress(userID, plan)
	}
	progress := scopeProgress(record, plan, plans)
	progress.TotalTasksAssigned = len(plan.StudyPlan.DailyTasks)
	progress.TotalTasksCompleted = plan.StudyPlan.CompletedTasks()
	progress.TotalPoints += points
	applyStreak(progress, now)

	week := taskWeek(plan.StudyPlan.StartDate, task.Date)
	recordWeekly(progress, week, points, minutes)
	progress.FeedbackLog = append(progress.FeedbackLog, model.TaskFeedback{
		TaskID:           task.ID,
		Subject:          task.Subject,
		TaskType:         task.Type,
		PlannedMinutes:   task.Duration,
		TimeSpent:        minutes,
		Score:            details.Score,
		DifficultyRating: details.DifficultyRating,
		Feedback:         details.Feedback,
		Points:           points,
		CompletedAt:      now,
	})

	newBadges := EvaluateBadges(progress, now)
	progress.Badges = append(progress.Badges, newBadges...)

	if planFinished(&plan.StudyPlan) {
		plan.Status = model.PlanCompleted
	}
	plan.LastModified = now

	if err := s.Repo.Commit(ctx, userID, repository.Changes{Plans: plans, Progress: progress}); err != nil {
		return nil, fmt.Errorf("save task completion: %w", err)
	}

	monitoring.TaskCompletions.WithLabelValues(string(task.Type)).Inc()
	monitoring.PointsAwarded.Add(float64(points))
	for _, b := range newBadges {
		monitoring.BadgesAwarded.WithLabelValues(b.ID).Inc()
		logger.Log.Info("Badge earned", zap.String("userId", userID), zap.String("badge", b.ID))
	}

	if newBadges == nil {
		newBadges = []model.Badge{}
	}
	view := *progress
	view.Archived = nil
	return &CompletionResult{
		Task:          *task,
		Progress:      view,
		PointsAwarded: points,
		NewBadges:     newBadges,
		PlanStatus:    plan.Status,
	}, nil
}

// award 积分服务失败时记录警告并按 0 分继续，任务完成不受影响
// 保存失败后重试同一任务使用相同的幂等键，积分服务不会重复发放
func (s *ProgressService) award(ctx context.Context, userID, planID string, task *model.DailyTask, minutes int) int {
	if s.Points == nil {
		return 0
	}
	points, err := s.Points.Award(ctx, userID, string(task.Type), PointsMetadata{
		IdempotencyKey:   awardKey(userID, planID, task.ID),
		Subject:          task.Subject,
		Description:      task.Description,
		TimeSpentSeconds: minutes * 60,
	})
	if err != nil {
		logger.Log.Warn("积分发放失败", zap.String("userId", userID), zap.String("taskId", task.ID), zap.Error(err))
		return 0
	}
	return max(0, points)
}

func awardKey(userID, planID, taskID string) string {
	return userID + "/" + planID + "/" + taskID
}

func newProgress(userID string, plan *model.SavedPlan) *model.UserProgress {
	return &model.UserProgress{
		UserID:              userID,
		PlanID:              plan.ID,
		ExamName:            plan.ExamName,
		TotalTasksCompleted: plan.StudyPlan.CompletedTasks(),
		TotalTasksAssigned:  len(plan.StudyPlan.DailyTasks),
		Badges:              []model.Badge{},
		WeeklyProgress:      []model.WeeklySnapshot{},
		FeedbackLog:         []model.TaskFeedback{},
	}
}

// scopeProgress 进度按考试名存储，同名考试的每个计划各有一份进度
// 切换到另一个计划时归档当前进度并取出（或新建）目标计划的进度，已删除计划的归档一并清理
func scopeProgress(record *model.UserProgress, plan *model.SavedPlan, plans []model.SavedPlan) *model.UserProgress {
	if record.PlanID == "" || record.PlanID == plan.ID {
		record.PlanID = plan.ID
		return record
	}

	current := *record
	current.Archived = nil
	next := progressOf(record, plan)
	next.Archived = make([]model.UserProgress, 0, len(record.Archived)+1)
	for _, p := range append(record.Archived, current) {
		if p.PlanID != plan.ID && findPlan(plans, p.PlanID) >= 0 {
			next.Archived = append(next.Archived, p)
		}
	}
	return next
}

// applyStreak 同一天重复完成不改变连续天数；昨天有学习则 +1，否则重置为 1
func applyStreak(p *model.UserProgress, now time.Time) {
	today := util.FormatDate(now)
	if p.LastActivityDate == today {
		return
	}
	yesterday := util.FormatDate(util.StartOfDay(now).AddDate(0, 0, -1))
	if p.LastActivityDate == yesterday {
		p.CurrentStreak++
	} else {
		p.CurrentStreak = 1
	}
	p.LastActivityDate = today
	p.LongestStreak = max(p.LongestStreak, p.CurrentStreak)
}

func taskWeek(startDate, taskDate string) int {
	start, err1 := util.ParseDate(startDate, nil)
	d, err2 := util.ParseDate(taskDate, nil)
	if err1 != nil || err2 != nil || d.Before(start) {
		return 1
	}
	return daysBetween(start, d)/7 + 1
}

func recordWeekly(p *model.UserProgress, week, points, minutes int) {
	for i := range p.WeeklyProgress {
		if p.WeeklyProgress[i].Week == week {
			p.WeeklyProgress[i].TasksCompleted++
			p.WeeklyProgress[i].PointsEarned += points
			p.WeeklyProgress[i].MinutesStudied += minutes
			return
		}
	}
	p.WeeklyProgress = append(p.WeeklyProgress, model.WeeklySnapshot{
		Week:           week,
		TasksCompleted: 1,
		PointsEarned:   points,
		MinutesStudied: minutes,
	})
}

// planFinished 排期已覆盖到考试前一天且所有任务完成
func planFinished(plan *model.StudyPlan) bool {
	if ScheduledDays(plan) < plan.TotalDaysAvailable {
		return false
	}
	return len(plan.DailyTasks) > 0 && plan.CompletedTasks() == len(plan.DailyTasks)
}

// GetTodaysTasks 今天的任务，按页返回
func GetTodaysTasks(plan *model.StudyPlan, today time.Time, page, limit int) TaskPage {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = util.DefaultPageLimit
	}
	limit = min(limit, util.MaxPageLimit)

	all := tasksOn(plan.DailyTasks, util.FormatDate(today), today.Weekday().String())
	from := min((page-1)*limit, len(all))
	to := min(from+limit, len(all))
	return TaskPage{List: all[from:to], Total: len(all), Page: page, Limit: limit}
}

// TodaysTasks 读取计划（必要时延长排期）后返回今天的任务
func (s *ProgressService) TodaysTasks(ctx context.Context, userID, planID string, page, limit int) (*TaskPage, error) {
	now := s.Now()
	view, err := s.Plans.GetDailyView(ctx, userID, planID, now)
	if err != nil {
		return nil, err
	}
	result := GetTodaysTasks(&model.StudyPlan{DailyTasks: view.Tasks}, now, page, limit)
	return &result, nil
}

// GetProgress 计划对应的进度；尚未完成任何任务时返回初始值
func (s *ProgressService) GetProgress(ctx context.Context, userID, planID string) (*model.UserProgress, error) {
	plan, err := s.Plans.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	record, found, err := s.Repo.FindProgress(ctx, userID, plan.ExamName)
	if err != nil {
		return nil, err
	}
	if !found {
		return newProgress(userID, plan), nil
	}
	progress := progressOf(record, plan)
	// 连续天数在读取时失效：昨天和今天都没有学习则归零
	today := util.FormatDate(s.Now())
	yesterday := util.FormatDate(util.StartOfDay(s.Now()).AddDate(0, 0, -1))
	if progress.LastActivityDate != today && progress.LastActivityDate != yesterday {
		progress.CurrentStreak = 0
	}
	return progress, nil
}

// progressOf 计划自己的进度（当前记录、归档或初始值），连续天数取用户级的值，返回副本
func progressOf(record *model.UserProgress, plan *model.SavedPlan) *model.UserProgress {
	var out *model.UserProgress
	if record.PlanID == "" || record.PlanID == plan.ID {
		current := *record
		out = &current
	} else {
		for _, p := range record.Archived {
			if p.PlanID == plan.ID {
				archived := p
				out = &archived
				break
			}
		}
		if out == nil {
			out = newProgress(record.UserID, plan)
		}
		out.CurrentStreak = record.CurrentStreak
		out.LongestStreak = max(out.LongestStreak, record.LongestStreak)
		out.LastActivityDate = record.LastActivityDate
	}
	out.PlanID = plan.ID
	out.Archived = nil
	return out
}
