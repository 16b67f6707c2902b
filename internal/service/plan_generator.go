package service

import (
	"context"
	"errors"
	"study_plan_backend/internal/config"
	"study_plan_backend/internal/model"
	"study_plan_backend/internal/util"
	"study_plan_backend/pkg/logger"
	"study_plan_backend/pkg/monitoring"
	"study_plan_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// GenerationResult 生成结果；Source 为 fallback 时 Reason 记录原因
type GenerationResult struct {
	Plan   model.StudyPlan
	Source model.PlanSource
	Reason error
}

// PlanGenerator 计划生成引擎
// 对合法请求总能返回非空计划：上游失败或输出无法解析时改用本地模板
type PlanGenerator struct {
	Text      TextGenerator
	Scheduler *Scheduler
	Config    config.PlannerConfig
	Now       func() time.Time
}

func NewPlanGenerator(text TextGenerator, cfg config.PlannerConfig) *PlanGenerator {
	d := config.Defaults()
	if cfg.MinChapters <= 0 {
		cfg.MinChapters = d.MinChapters
	}
	if cfg.MinTopics <= 0 {
		cfg.MinTopics = d.MinTopics
	}
	if cfg.MaxTopics < cfg.MinTopics {
		cfg.MaxTopics = max(d.MaxTopics, cfg.MinTopics)
	}
	if cfg.MaxWeeks <= 0 {
		cfg.MaxWeeks = d.MaxWeeks
	}
	return &PlanGenerator{
		Text:      text,
		Scheduler: NewScheduler(cfg),
		Config:    cfg,
		Now:       time.Now,
	}
}

// TotalDays 距考试的天数，至少为 1
func TotalDays(now time.Time, examDate string) int {
	exam, err := util.ParseDate(examDate, now.Location())
	if err != nil {
		return 1
	}
	return max(1, util.DaysUntil(now, exam))
}

func (g *PlanGenerator) Generate(ctx context.Context, exam model.ExamPlanData) GenerationResult {
	ctx, span := tracing.Tracer.Start(ctx, "plan.generate")
	defer span.End()

	begin := time.Now()
	now := g.Now()
	startDate := util.FormatDate(util.StartOfDay(now))
	totalDays := TotalDays(now, exam.ExamDate)
	normalizer := planNormalizer{cfg: g.Config}

	result := GenerationResult{Source: model.SourceGenerated}
	plan, err := g.generateStructured(ctx, exam, totalDays)
	if err != nil {
		fb := fallbackPlan(exam)
		plan = &fb
		result.Source = model.SourceFallback
		result.Reason = err

		var parseErr *GenerationParseError
		if errors.As(err, &parseErr) {
			logger.Log.Warn("Generated plan could not be parsed, using templates",
				zap.String("exam", exam.ExamName), zap.Error(err))
		} else {
			logger.Log.Warn("Text generation failed, using templates",
				zap.String("exam", exam.ExamName), zap.Error(err))
		}
	}

	normalizer.normalize(plan, exam, startDate, totalDays)
	plan.Source = result.Source
	if err := g.Scheduler.Schedule(plan, exam); err != nil {
		// StartDate 由上面写入，不会出现解析失败
		logger.Log.Error("Failed to schedule plan", zap.Error(err))
	}
	result.Plan = *plan

	span.SetAttributes(
		attribute.String("plan.source", string(result.Source)),
		attribute.Int("plan.total_days", totalDays),
		attribute.Int("plan.tasks", len(plan.DailyTasks)),
	)
	monitoring.PlanGenerations.WithLabelValues(string(result.Source)).Inc()
	monitoring.GenerationDuration.WithLabelValues(string(result.Source)).Observe(time.Since(begin).Seconds())
	return result
}

func (g *PlanGenerator) generateStructured(ctx context.Context, exam model.ExamPlanData, totalDays int) (*model.StudyPlan, error) {
	if g.Text == nil {
		return nil, &GenerationUpstreamError{Err: errors.New("no text generator configured")}
	}
	prompt := buildPlanPrompt(exam, totalDays, g.Config)
	text, err := g.Text.Generate(ctx, planSystemPrompt, prompt)
	if err != nil {
		return nil, &GenerationUpstreamError{Err: err}
	}
	return parsePlan(text)
}
