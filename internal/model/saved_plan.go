package model

import (
	"time"

	"github.com/google/uuid"
)

type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanPaused    PlanStatus = "paused"
	PlanCompleted PlanStatus = "completed"
	PlanDraft     PlanStatus = "draft"
)

// SavedPlan 计划的生命周期包装
// 派生字段 (isActive / progress / totalTasks / completedTasks / daysLeft) 在读取时计算，不持久化
// swagger:model SavedPlan
type SavedPlan struct {
	ID           string       `json:"id"`
	ExamName     string       `json:"examName"`
	ExamDate     string       `json:"examDate"`
	ClassLevel   string       `json:"classLevel"`
	Subjects     []string     `json:"subjects"`
	StudyPlan    StudyPlan    `json:"studyPlan"`
	ExamData     ExamPlanData `json:"examData"`
	Status       PlanStatus   `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
	LastModified time.Time    `json:"lastModified"`

	IsActive       bool `json:"isActive"`
	Progress       int  `json:"progress"`
	TotalTasks     int  `json:"totalTasks"`
	CompletedTasks int  `json:"completedTasks"`
	DaysLeft       int  `json:"daysLeft"`
}

// storedPlan 是 SavedPlan 的持久化形态，不含任何派生字段
type storedPlan struct {
	ID           string       `json:"id"`
	ExamName     string       `json:"examName"`
	ExamDate     string       `json:"examDate"`
	ClassLevel   string       `json:"classLevel"`
	Subjects     []string     `json:"subjects"`
	StudyPlan    StudyPlan    `json:"studyPlan"`
	ExamData     ExamPlanData `json:"examData"`
	Status       PlanStatus   `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
	LastModified time.Time    `json:"lastModified"`
}

// Stored 去掉派生字段
func (p SavedPlan) Stored() any {
	return storedPlan{
		ID:           p.ID,
		ExamName:     p.ExamName,
		ExamDate:     p.ExamDate,
		ClassLevel:   p.ClassLevel,
		Subjects:     p.Subjects,
		StudyPlan:    p.StudyPlan,
		ExamData:     p.ExamData,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt,
		LastModified: p.LastModified,
	}
}

// NewSavedPlan 包装新生成的计划，初始状态为 active
func NewSavedPlan(examData ExamPlanData, plan StudyPlan, now time.Time) SavedPlan {
	subjects := make([]string, len(examData.Subjects))
	copy(subjects, examData.Subjects)
	return SavedPlan{
		ID:           uuid.New().String(),
		ExamName:     examData.ExamName,
		ExamDate:     examData.ExamDate,
		ClassLevel:   examData.ClassLevel,
		Subjects:     subjects,
		StudyPlan:    plan,
		ExamData:     examData,
		Status:       PlanActive,
		CreatedAt:    now,
		LastModified: now,
	}
}

// ActivePlanPointer 当前工作计划指针，替代每个计划上的 isActive 标志
type ActivePlanPointer struct {
	PlanID    string    `json:"planId"`
	UpdatedAt time.Time `json:"updatedAt"`
}
