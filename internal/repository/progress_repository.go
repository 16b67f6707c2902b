package repository

import (
	"context"
	"study_plan_backend/internal/model"
)

// FindProgress 读取 (用户, 考试) 的进度，不存在时 found=false
func (r *StudyPlanRepository) FindProgress(ctx context.Context, userID, examName string) (*model.UserProgress, bool, error) {
	var progress model.UserProgress
	found, err := getJSON(ctx, r.Store, r.ProgressKey(userID, examName), &progress)
	if err != nil || !found {
		return nil, false, err
	}
	return &progress, true, nil
}
