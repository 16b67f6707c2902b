package controller

import (
	"errors"
	"io"
	"net/http"
	"study_plan_backend/internal/service"
	"study_plan_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ProgressController 任务完成与学习进度接口
type ProgressController struct {
	ProgressService *service.ProgressService
	PageLimit       int
}

func NewProgressController(progressService *service.ProgressService, pageLimit int) *ProgressController {
	return &ProgressController{ProgressService: progressService, PageLimit: pageLimit}
}

// TodayTasksRequest 今日任务分页参数
type TodayTasksRequest struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// GetTodayTasks godoc
// @Summary 获取今天的学习任务
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Param page query int false "页码"
// @Param limit query int false "每页数量，最大100"
// @Success 200 {object} util.Response{data=service.TaskPage}
// @Router /api/study-plans/{id}/today [get]
func (c *ProgressController) GetTodayTasks(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var request TodayTasksRequest
	if err := ctx.ShouldBindQuery(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if request.Limit == 0 {
		request.Limit = c.PageLimit
	}

	page, err := c.ProgressService.TodaysTasks(ctx.Request.Context(), userID, ctx.Param("id"), request.Page, request.Limit)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, page)
}

// CompleteTask godoc
// @Summary 完成任务
// @Description 标记任务完成，发放积分并更新连续天数与徽章
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Param taskId path string true "任务ID"
// @Param request body service.CompletionDetails false "完成情况"
// @Success 200 {object} util.Response{data=service.CompletionResult}
// @Failure 409 {object} util.Response "任务已完成"
// @Router /api/study-plans/{id}/tasks/{taskId}/complete [post]
func (c *ProgressController) CompleteTask(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	// 请求体可选；分块传输时 ContentLength 为 -1，按是否有请求体判断
	var details service.CompletionDetails
	if body := ctx.Request.Body; body != nil && body != http.NoBody {
		if err := ctx.ShouldBindJSON(&details); err != nil && !errors.Is(err, io.EOF) {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	result, err := c.ProgressService.CompleteTask(ctx.Request.Context(), userID, ctx.Param("id"), ctx.Param("taskId"), details)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GetProgress godoc
// @Summary 获取学习进度
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Success 200 {object} util.Response{data=model.UserProgress}
// @Router /api/study-plans/{id}/progress [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	progress, err := c.ProgressService.GetProgress(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}
