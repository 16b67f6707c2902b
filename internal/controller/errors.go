package controller

import (
	"errors"
	"net/http"
	"study_plan_backend/internal/service"
	"study_plan_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// handleServiceError 把服务层错误映射为 HTTP 状态码
func handleServiceError(ctx *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		util.ValidationFailed(ctx, verr.Error(), verr.Fields)
	case errors.Is(err, util.ErrPlanNotFound), errors.Is(err, util.ErrTaskNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrNoActivePlan):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrTaskAlreadyCompleted), errors.Is(err, util.ErrPlanNotToggleable):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

func currentUser(ctx *gin.Context) (string, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return "", false
	}
	return user.UserID, true
}
