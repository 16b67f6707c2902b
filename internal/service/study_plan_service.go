package service

import (
	"context"
	"fmt"
	"study_plan_backend/internal/config"
	"study_plan_backend/internal/model"
	"study_plan_backend/internal/repository"
	"study_plan_backend/internal/util"
	"study_plan_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// StudyPlanService 学习计划的生命周期管理：创建、列表、选择、暂停/恢复、删除
// 每次修改都读取并整体重写用户的计划列表
type StudyPlanService struct {
	Repo      *repository.StudyPlanRepository
	Generator *PlanGenerator
	Validator *RequestValidator
	Locks     *UserLocks
	Now       func() time.Time

	generation *generationTracker
}

func NewStudyPlanService(
	repo *repository.StudyPlanRepository,
	generator *PlanGenerator,
	validator *RequestValidator,
	locks *UserLocks,
	cfg config.PlannerConfig,
) *StudyPlanService {
	return &StudyPlanService{
		Repo:       repo,
		Generator:  generator,
		Validator:  validator,
		Locks:      locks,
		Now:        time.Now,
		generation: newGenerationTracker(time.Duration(cfg.ExpectedGenSecs) * time.Second),
	}
}

// DailyView 某一天的任务视图
type DailyView struct {
	PlanID   string            `json:"planId"`
	Date     string            `json:"date"`
	Tasks    []model.DailyTask `json:"tasks"`
	Extended int               `json:"extended"`
	// PastExam 日期在考试日之后；考试当天为 false
	PastExam bool `json:"pastExam"`
}

// CreatePlan 校验请求、生成计划并设为当前计划
func (s *StudyPlanService) CreatePlan(ctx context.Context, userID string, exam model.ExamPlanData) (*model.SavedPlan, error) {
	if err := s.Validator.Validate(exam); err != nil {
		return nil, err
	}

	result := s.generate(ctx, userID, exam)

	unlock := s.Locks.Lock(userID)
	defer unlock()

	plans, err := s.Repo.FindPlans(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	saved := model.NewSavedPlan(exam, result.Plan, now)
	for i := range plans {
		if plans[i].Status == model.PlanActive {
			plans[i].Status = model.PlanPaused
			plans[i].LastModified = now
		}
	}
	plans = append(plans, saved)

	ptr := &model.ActivePlanPointer{PlanID: saved.ID, UpdatedAt: now}
	if err := s.Repo.Commit(ctx, userID, repository.Changes{Plans: plans, Pointer: ptr}); err != nil {
		return nil, fmt.Errorf("save study plan: %w", err)
	}

	logger.Log.Info("学习计划已创建",
		zap.String("userId", userID),
		zap.String("planId", saved.ID),
		zap.String("source", string(result.Source)),
		zap.Int("tasks", len(saved.StudyPlan.DailyTasks)))

	derivePlan(&saved, ptr, now)
	return &saved, nil
}

func (s *StudyPlanService) generate(ctx context.Context, userID string, exam model.ExamPlanData) GenerationResult {
	end := s.generation.begin(userID, s.Now())
	defer end()
	return s.Generator.Generate(ctx, exam)
}

// ListPlans 返回全部计划，派生字段按当前时间重新计算
func (s *StudyPlanService) ListPlans(ctx context.Context, userID string) ([]model.SavedPlan, error) {
	plans, ptr, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	for i := range plans {
		derivePlan(&plans[i], ptr, now)
	}
	return plans, nil
}

func (s *StudyPlanService) GetPlan(ctx context.Context, userID, planID string) (*model.SavedPlan, error) {
	plans, ptr, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := findPlan(plans, planID)
	if i < 0 {
		return nil, util.ErrPlanNotFound
	}
	plan := plans[i]
	derivePlan(&plan, ptr, s.Now())
	return &plan, nil
}

// GetActivePlan 当前工作计划
func (s *StudyPlanService) GetActivePlan(ctx context.Context, userID string) (*model.SavedPlan, error) {
	plans, ptr, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ptr == nil {
		return nil, util.ErrNoActivePlan
	}
	i := findPlan(plans, ptr.PlanID)
	if i < 0 {
		return nil, util.ErrNoActivePlan
	}
	plan := plans[i]
	derivePlan(&plan, ptr, s.Now())
	return &plan, nil
}

// SelectPlan 只修改当前计划指针，不改变其他计划的状态
func (s *StudyPlanService) SelectPlan(ctx context.Context, userID, planID string) (*model.SavedPlan, error) {
	unlock := s.Locks.Lock(userID)
	defer unlock()

	plans, err := s.Repo.FindPlans(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := findPlan(plans, planID)
	if i < 0 {
		return nil, util.ErrPlanNotFound
	}

	now := s.Now()
	ptr := &model.ActivePlanPointer{PlanID: planID, UpdatedAt: now}
	if err := s.Repo.Commit(ctx, userID, repository.Changes{Pointer: ptr}); err != nil {
		return nil, fmt.Errorf("select study plan: %w", err)
	}
	plan := plans[i]
	derivePlan(&plan, ptr, now)
	return &plan, nil
}

// ToggleStatus 在 active 与 paused 之间切换
// 切换为 active 时指针指向该计划并暂停其他 active 计划；暂停当前计划时清除指针
func (s *StudyPlanService) ToggleStatus(ctx context.Context, userID, planID string) (*model.SavedPlan, error) {
	unlock := s.Locks.Lock(userID)
	defer unlock()

	plans, ptr, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := findPlan(plans, planID)
	if i < 0 {
		return nil, util.ErrPlanNotFound
	}

	now := s.Now()
	changes := repository.Changes{Plans: plans}
	switch plans[i].Status {
	case model.PlanActive:
		plans[i].Status = model.PlanPaused
		if ptr != nil && ptr.PlanID == planID {
			changes.ClearPointer = true
			ptr = nil
		}
	case model.PlanPaused:
		for j := range plans {
			if j != i && plans[j].Status == model.PlanActive {
				plans[j].Status = model.PlanPaused
				plans[j].LastModified = now
			}
		}
		plans[i].Status = model.PlanActive
		ptr = &model.ActivePlanPointer{PlanID: planID, UpdatedAt: now}
		changes.Pointer = ptr
	default:
		return nil, util.ErrPlanNotToggleable
	}
	plans[i].LastModified = now

	if err := s.Repo.Commit(ctx, userID, changes); err != nil {
		return nil, fmt.Errorf("toggle study plan: %w", err)
	}
	plan := plans[i]
	derivePlan(&plan, ptr, now)
	return &plan, nil
}

// DeletePlan 永久删除计划；同一考试没有其他计划时一并删除进度记录
func (s *StudyPlanService) DeletePlan(ctx context.Context, userID, planID string) error {
	unlock := s.Locks.Lock(userID)
	defer unlock()

	plans, ptr, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	i := findPlan(plans, planID)
	if i < 0 {
		return util.ErrPlanNotFound
	}
	removed := plans[i]
	plans = append(plans[:i], plans[i+1:]...)

	changes := repository.Changes{Plans: plans}
	if ptr != nil && ptr.PlanID == planID {
		changes.ClearPointer = true
	}
	shared := false
	for _, p := range plans {
		if p.ExamName == removed.ExamName {
			shared = true
			break
		}
	}
	if !shared {
		changes.DeleteProgressFor = []string{removed.ExamName}
	}

	if err := s.Repo.Commit(ctx, userID, changes); err != nil {
		return fmt.Errorf("delete study plan: %w", err)
	}
	logger.Log.Info("学习计划已删除", zap.String("userId", userID), zap.String("planId", planID))
	return nil
}

// GetDailyView 某天的任务；日期超出已排期范围但未过考试日时按需延长排期
func (s *StudyPlanService) GetDailyView(ctx context.Context, userID, planID string, date time.Time) (*DailyView, error) {
	day := util.StartOfDay(date)
	view := &DailyView{PlanID: planID, Date: util.FormatDate(day), Tasks: []model.DailyTask{}}

	plan, err := s.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	start, err := util.ParseDate(plan.StudyPlan.StartDate, day.Location())
	if err != nil || day.Before(start) {
		return view, nil
	}
	// 排期只到考试前一天，考试当天及以后没有任务
	if daysBetween(start, day) >= plan.StudyPlan.TotalDaysAvailable {
		if exam, err := util.ParseDate(plan.ExamDate, day.Location()); err == nil {
			view.PastExam = day.After(exam)
		}
		return view, nil
	}
	for daysBetween(start, day) >= ScheduledDays(&plan.StudyPlan) {
		extended, n, err := s.extend(ctx, userID, planID, day)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		view.Extended += n
		plan = extended
	}

	view.Tasks = tasksOn(plan.StudyPlan.DailyTasks, view.Date, day.Weekday().String())
	return view, nil
}

// ExtendSchedule 主动把排期延长到 through（每次最多一个扩展窗口）
func (s *StudyPlanService) ExtendSchedule(ctx context.Context, userID, planID string, through time.Time) (*model.SavedPlan, int, error) {
	return s.extend(ctx, userID, planID, through)
}

func (s *StudyPlanService) extend(ctx context.Context, userID, planID string, through time.Time) (*model.SavedPlan, int, error) {
	unlock := s.Locks.Lock(userID)
	defer unlock()

	plans, ptr, err := s.load(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	i := findPlan(plans, planID)
	if i < 0 {
		return nil, 0, util.ErrPlanNotFound
	}

	n, err := s.Generator.Scheduler.Extend(&plans[i].StudyPlan, plans[i].ExamData, through)
	if err != nil {
		return nil, 0, err
	}
	now := s.Now()
	if n > 0 {
		if plans[i].Status == model.PlanCompleted {
			plans[i].Status = model.PlanActive
		}
		plans[i].LastModified = now
		if err := s.Repo.Commit(ctx, userID, repository.Changes{Plans: plans}); err != nil {
			return nil, 0, fmt.Errorf("extend study plan: %w", err)
		}
		logger.Log.Info("Study plan schedule extended",
			zap.String("userId", userID),
			zap.String("planId", planID),
			zap.Int("newTasks", n),
			zap.String("through", plans[i].StudyPlan.ScheduledThrough))
	}
	plan := plans[i]
	derivePlan(&plan, ptr, now)
	return &plan, n, nil
}

// GenerationStatus 生成进度估算
func (s *StudyPlanService) GenerationStatus(userID string) GenerationStatus {
	return s.generation.status(userID, s.Now())
}

func (s *StudyPlanService) load(ctx context.Context, userID string) ([]model.SavedPlan, *model.ActivePlanPointer, error) {
	plans, err := s.Repo.FindPlans(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	ptr, err := s.Repo.FindActivePointer(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return plans, ptr, nil
}

// derivePlan 计算派生字段，不写回存储
func derivePlan(p *model.SavedPlan, ptr *model.ActivePlanPointer, now time.Time) {
	p.IsActive = ptr != nil && ptr.PlanID == p.ID
	p.TotalTasks = len(p.StudyPlan.DailyTasks)
	p.CompletedTasks = p.StudyPlan.CompletedTasks()
	p.Progress = 0
	if p.TotalTasks > 0 {
		p.Progress = clampPercent(p.CompletedTasks * 100 / p.TotalTasks)
	}
	p.DaysLeft = 0
	if exam, err := util.ParseDate(p.ExamDate, now.Location()); err == nil {
		p.DaysLeft = max(0, util.DaysUntil(now, exam))
	}
}

func findPlan(plans []model.SavedPlan, planID string) int {
	for i := range plans {
		if plans[i].ID == planID {
			return i
		}
	}
	return -1
}

// tasksOn 按日期筛选；任务没有日期时按星期匹配
func tasksOn(tasks []model.DailyTask, date, weekday string) []model.DailyTask {
	out := []model.DailyTask{}
	for _, t := range tasks {
		if t.Date != "" {
			if t.Date == date {
				out = append(out, t)
			}
			continue
		}
		if t.Day != "" && t.Day == weekday {
			out = append(out, t)
		}
	}
	return out
}
