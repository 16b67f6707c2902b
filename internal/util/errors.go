package util

import "errors"

var (
	ErrPlanNotFound         = errors.New("study plan not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskAlreadyCompleted = errors.New("task already completed")
	ErrNoActivePlan         = errors.New("no active study plan")
	ErrPlanNotToggleable    = errors.New("only active or paused plans can be toggled")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrNotFound             = errors.New("key not found")
)
