package service

import (
	"context"
	"fmt"
	"study_plan_backend/internal/config"
	"study_plan_backend/internal/model"
	"study_plan_backend/internal/repository"
)

// PointsMetadata 积分发放附带的活动信息
type PointsMetadata struct {
	// IdempotencyKey 同一任务重试时不变，积分服务据此避免重复发放
	IdempotencyKey   string
	Subject          string
	Description      string
	TimeSpentSeconds int
}

// PointsAwarder 外部积分服务，返回实际发放的积分
// 以相同 IdempotencyKey 重复调用时返回首次发放的积分，不再重复发放
type PointsAwarder interface {
	Award(ctx context.Context, userID, activityKind string, meta PointsMetadata) (int, error)
}

var defaultPointRules = map[string]int{
	string(model.TaskStudy):    10,
	string(model.TaskRevision): 15,
	string(model.TaskPractice): 20,
	string(model.TaskTest):     25,
}

// RulePointsAwarder 按活动类型计分，另外按学习时长加分
type RulePointsAwarder struct {
	Rules           map[string]int
	MinutesPerBonus int
	MaxTimeBonus    int
}

func NewRulePointsAwarder(cfg config.PointsConfig) *RulePointsAwarder {
	rules := make(map[string]int, len(defaultPointRules))
	for k, v := range defaultPointRules {
		rules[k] = v
	}
	for k, v := range cfg.Rules {
		rules[k] = v
	}
	return &RulePointsAwarder{Rules: rules, MinutesPerBonus: cfg.MinutesPerBonus, MaxTimeBonus: cfg.MaxTimeBonus}
}

func (a *RulePointsAwarder) Award(_ context.Context, _ string, activityKind string, meta PointsMetadata) (int, error) {
	return a.points(activityKind, meta), nil
}

func (a *RulePointsAwarder) points(activityKind string, meta PointsMetadata) int {
	base, ok := a.Rules[activityKind]
	if !ok {
		base = a.Rules[string(model.TaskStudy)]
	}
	bonus := 0
	if a.MinutesPerBonus > 0 && meta.TimeSpentSeconds > 0 {
		bonus = meta.TimeSpentSeconds / 60 / a.MinutesPerBonus
		if a.MaxTimeBonus > 0 {
			bonus = min(bonus, a.MaxTimeBonus)
		}
	}
	return max(0, base+bonus)
}

// LedgerPointsAwarder 计分后写入 point_awards 流水表，同一 IdempotencyKey 只记一条
type LedgerPointsAwarder struct {
	Rules *RulePointsAwarder
	Repo  *repository.PointAwardRepository
}

func NewLedgerPointsAwarder(rules *RulePointsAwarder, repo *repository.PointAwardRepository) *LedgerPointsAwarder {
	return &LedgerPointsAwarder{Rules: rules, Repo: repo}
}

func (a *LedgerPointsAwarder) Award(ctx context.Context, userID, activityKind string, meta PointsMetadata) (int, error) {
	points := a.Rules.points(activityKind, meta)
	award := &model.PointAward{
		IdempotencyKey:   meta.IdempotencyKey,
		UserID:           userID,
		ActivityKind:     activityKind,
		Subject:          meta.Subject,
		Description:      meta.Description,
		TimeSpentSeconds: meta.TimeSpentSeconds,
		Points:           points,
	}
	stored, err := a.Repo.CreateOnce(ctx, award)
	if err != nil {
		return 0, fmt.Errorf("record point award: %w", err)
	}
	return stored.Points, nil
}
