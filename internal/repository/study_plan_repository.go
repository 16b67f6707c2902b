package repository

import (
	"context"
	"encoding/json"
	"study_plan_backend/internal/model"
	"study_plan_backend/internal/util"
)

// StudyPlanRepository 按用户整体读写计划列表与当前计划指针
// 每次修改都重写整个列表，只适用于单用户小规模数据
type StudyPlanRepository struct {
	Store  KVStore
	Prefix string
}

func NewStudyPlanRepository(store KVStore, prefix string) *StudyPlanRepository {
	return &StudyPlanRepository{Store: store, Prefix: prefix}
}

func (r *StudyPlanRepository) PlansKey(userID string) string {
	return r.Prefix + util.StudyPlansKeyPrefix + userID
}

func (r *StudyPlanRepository) ActiveKey(userID string) string {
	return r.Prefix + util.ActivePlanKeyPrefix + userID
}

func (r *StudyPlanRepository) ProgressKey(userID, examName string) string {
	return r.Prefix + util.ProgressKeyPrefix + userID + "_" + examName
}

// FindPlans 返回用户的全部计划，不存在时为空列表
func (r *StudyPlanRepository) FindPlans(ctx context.Context, userID string) ([]model.SavedPlan, error) {
	var plans []model.SavedPlan
	if _, err := getJSON(ctx, r.Store, r.PlansKey(userID), &plans); err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []model.SavedPlan{}
	}
	return plans, nil
}

// FindActivePointer 没有当前计划时返回 nil
func (r *StudyPlanRepository) FindActivePointer(ctx context.Context, userID string) (*model.ActivePlanPointer, error) {
	var ptr model.ActivePlanPointer
	found, err := getJSON(ctx, r.Store, r.ActiveKey(userID), &ptr)
	if err != nil || !found || ptr.PlanID == "" {
		return nil, err
	}
	return &ptr, nil
}

// Changes 一次原子提交的内容，nil 字段表示不修改
type Changes struct {
	Plans   []model.SavedPlan
	Pointer *model.ActivePlanPointer
	// ClearPointer 为 true 时删除当前计划指针
	ClearPointer bool
	Progress     *model.UserProgress
	// DeleteProgressFor 要删除进度记录的考试名
	DeleteProgressFor []string
}

// Commit 把计划列表、指针、进度在同一次存储写入中落盘
func (r *StudyPlanRepository) Commit(ctx context.Context, userID string, c Changes) error {
	sets := make(map[string][]byte)
	var deletes []string

	if c.Plans != nil {
		stored := make([]any, len(c.Plans))
		for i, p := range c.Plans {
			stored[i] = p.Stored()
		}
		raw, err := json.Marshal(stored)
		if err != nil {
			return persistErr("encode", r.PlansKey(userID), err)
		}
		sets[r.PlansKey(userID)] = raw
	}

	if c.ClearPointer {
		deletes = append(deletes, r.ActiveKey(userID))
	} else if c.Pointer != nil {
		raw, err := json.Marshal(c.Pointer)
		if err != nil {
			return persistErr("encode", r.ActiveKey(userID), err)
		}
		sets[r.ActiveKey(userID)] = raw
	}

	if c.Progress != nil {
		key := r.ProgressKey(userID, c.Progress.ExamName)
		raw, err := json.Marshal(c.Progress)
		if err != nil {
			return persistErr("encode", key, err)
		}
		sets[key] = raw
	}
	for _, exam := range c.DeleteProgressFor {
		deletes = append(deletes, r.ProgressKey(userID, exam))
	}

	if len(sets) == 0 && len(deletes) == 0 {
		return nil
	}
	return persistErr("write", r.PlansKey(userID), r.Store.Write(ctx, sets, deletes))
}
