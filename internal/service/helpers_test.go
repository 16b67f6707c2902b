package service

import (
	"context"
	"errors"
	"study_plan_backend/internal/config"
	"study_plan_backend/internal/model"
	"study_plan_backend/internal/repository"
	"study_plan_backend/internal/util"
	"testing"
	"time"
)

// 2026-06-01 是周一，整个测试区间不跨夏令时
var testStart = time.Date(2026, 6, 1, 9, 0, 0, 0, time.Local)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advanceDays(n int) { c.now = c.now.AddDate(0, 0, n) }

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string, string) (string, error) {
	return "", errors.New("connection refused")
}

type cannedGenerator struct {
	text string
}

func (g cannedGenerator) Generate(context.Context, string, string) (string, error) {
	return g.text, nil
}

type failingAwarder struct{}

func (failingAwarder) Award(context.Context, string, string, PointsMetadata) (int, error) {
	return 0, errors.New("points service unavailable")
}

// keyedAwarder 按幂等键发放，重复的键返回首次发放的积分
type keyedAwarder struct {
	rules   *RulePointsAwarder
	granted map[string]int
	keys    []string
}

func newKeyedAwarder() *keyedAwarder {
	return &keyedAwarder{
		rules:   NewRulePointsAwarder(config.PointsConfig{MinutesPerBonus: 10, MaxTimeBonus: 10}),
		granted: map[string]int{},
	}
}

func (a *keyedAwarder) Award(ctx context.Context, userID, kind string, meta PointsMetadata) (int, error) {
	a.keys = append(a.keys, meta.IdempotencyKey)
	if p, ok := a.granted[meta.IdempotencyKey]; ok {
		return p, nil
	}
	p, _ := a.rules.Award(ctx, userID, kind, meta)
	a.granted[meta.IdempotencyKey] = p
	return p, nil
}

// flakyStore 前 failWrites 次 Write 失败
type flakyStore struct {
	*repository.MemoryKVStore
	failWrites int
}

func (s *flakyStore) Write(ctx context.Context, sets map[string][]byte, deletes []string) error {
	if s.failWrites > 0 {
		s.failWrites--
		return errors.New("store down")
	}
	return s.MemoryKVStore.Write(ctx, sets, deletes)
}

type testStack struct {
	clock    *testClock
	store    *repository.MemoryKVStore
	repo     *repository.StudyPlanRepository
	plans    *StudyPlanService
	progress *ProgressService
	advisory *AdvisoryService
}

func newTestStack(t *testing.T, text TextGenerator) *testStack {
	t.Helper()
	clock := &testClock{now: testStart}
	store := repository.NewMemoryKVStore()
	repo := repository.NewStudyPlanRepository(store, "")
	cfg := config.Defaults()
	validator := NewRequestValidator()
	locks := NewUserLocks()

	gen := NewPlanGenerator(text, cfg)
	gen.Now = clock.Now
	plans := NewStudyPlanService(repo, gen, validator, locks, cfg)
	plans.Now = clock.Now

	awarder := NewRulePointsAwarder(config.PointsConfig{MinutesPerBonus: 10, MaxTimeBonus: 10})
	progress := NewProgressService(repo, plans, awarder, validator, locks)
	progress.Now = clock.Now

	return &testStack{
		clock:    clock,
		store:    store,
		repo:     repo,
		plans:    plans,
		progress: progress,
		advisory: NewAdvisoryService(plans, progress),
	}
}

func boardExam(now time.Time, days int) model.ExamPlanData {
	return model.ExamPlanData{
		ExamName:       "Board Exam",
		ExamDate:       util.FormatDate(now.AddDate(0, 0, days)),
		ClassLevel:     "Grade 12",
		Subjects:       []string{"Math", "History"},
		DailyHours:     2,
		StudyTimeSlots: []string{"evening"},
		WeakAreas:      "History dates",
	}
}

// scheduledPlan 用本地模板构建并排期，起始日为 testStart
func scheduledPlan(t *testing.T, exam model.ExamPlanData, totalDays int) *model.StudyPlan {
	t.Helper()
	plan := fallbackPlan(exam)
	planNormalizer{cfg: config.Defaults()}.normalize(&plan, exam, util.FormatDate(testStart), totalDays)
	if err := NewScheduler(config.Defaults()).Schedule(&plan, exam); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return &plan
}

func intPtr(v int) *int { return &v }

func day(offset int) string {
	return util.FormatDate(testStart.AddDate(0, 0, offset))
}
