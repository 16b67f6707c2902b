package controller

import (
	"study_plan_backend/internal/model"
	"study_plan_backend/internal/service"
	"study_plan_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

// StudyPlanController 学习计划的创建与生命周期接口
type StudyPlanController struct {
	PlanService *service.StudyPlanService
}

func NewStudyPlanController(planService *service.StudyPlanService) *StudyPlanController {
	return &StudyPlanController{PlanService: planService}
}

// CreatePlan godoc
// @Summary 生成学习计划
// @Description 根据考试信息生成新的学习计划并设为当前计划；生成服务不可用时使用本地模板
// @Tags 学习计划
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ExamPlanData true "考试信息"
// @Success 201 {object} util.Response{data=model.SavedPlan}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/study-plans [post]
func (c *StudyPlanController) CreatePlan(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var request model.ExamPlanData
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	plan, err := c.PlanService.CreatePlan(ctx.Request.Context(), userID, request)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, plan)
}

// ListPlans godoc
// @Summary 获取全部学习计划
// @Tags 学习计划
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.SavedPlan}
// @Router /api/study-plans [get]
func (c *StudyPlanController) ListPlans(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	plans, err := c.PlanService.ListPlans(ctx.Request.Context(), userID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"plans": plans})
}

// GetActivePlan godoc
// @Summary 获取当前学习计划
// @Tags 学习计划
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.SavedPlan}
// @Failure 404 {object} util.Response "没有当前计划"
// @Router /api/study-plans/active [get]
func (c *StudyPlanController) GetActivePlan(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	plan, err := c.PlanService.GetActivePlan(ctx.Request.Context(), userID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, plan)
}

// GenerationStatus godoc
// @Summary 计划生成进度（按耗时估算）
// @Tags 学习计划
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.GenerationStatus}
// @Router /api/study-plans/generation-status [get]
func (c *StudyPlanController) GenerationStatus(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	util.Success(ctx, c.PlanService.GenerationStatus(userID))
}

// GetPlan godoc
// @Summary 获取学习计划详情
// @Tags 学习计划
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Success 200 {object} util.Response{data=model.SavedPlan}
// @Failure 404 {object} util.Response "计划不存在"
// @Router /api/study-plans/{id} [get]
func (c *StudyPlanController) GetPlan(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	plan, err := c.PlanService.GetPlan(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, plan)
}

// SelectPlan godoc
// @Summary 设为当前计划
// @Tags 学习计划
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Success 200 {object} util.Response{data=model.SavedPlan}
// @Router /api/study-plans/{id}/select [post]
func (c *StudyPlanController) SelectPlan(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	plan, err := c.PlanService.SelectPlan(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, plan)
}

// ToggleStatus godoc
// @Summary 暂停/恢复学习计划
// @Tags 学习计划
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Success 200 {object} util.Response{data=model.SavedPlan}
// @Failure 409 {object} util.Response "计划已完成或为草稿"
// @Router /api/study-plans/{id}/toggle [post]
func (c *StudyPlanController) ToggleStatus(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	plan, err := c.PlanService.ToggleStatus(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, plan)
}

// DeletePlan godoc
// @Summary 删除学习计划
// @Tags 学习计划
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Success 200 {object} util.Response
// @Router /api/study-plans/{id} [delete]
func (c *StudyPlanController) DeletePlan(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	if err := c.PlanService.DeletePlan(ctx.Request.Context(), userID, ctx.Param("id")); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": ctx.Param("id")})
}

// GetDay godoc
// @Summary 获取某天的任务
// @Description 日期超出已排期范围但未过考试日时自动延长排期
// @Tags 学习计划
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Param date path string true "日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=service.DailyView}
// @Router /api/study-plans/{id}/days/{date} [get]
func (c *StudyPlanController) GetDay(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	date, err := util.ParseDate(ctx.Param("date"), time.Local)
	if err != nil {
		util.BadRequest(ctx, "date must be in YYYY-MM-DD format")
		return
	}
	view, err := c.PlanService.GetDailyView(ctx.Request.Context(), userID, ctx.Param("id"), date)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// ExtendScheduleRequest 延长排期到指定日期（含）
type ExtendScheduleRequest struct {
	Through string `json:"through" binding:"required"`
}

// ExtendSchedule godoc
// @Summary 延长排期
// @Description 按原有轮转规则继续生成任务，每次最多延长45天且不超过考试日
// @Tags 学习计划
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Param request body ExtendScheduleRequest true "截止日期"
// @Success 200 {object} util.Response
// @Router /api/study-plans/{id}/extend [post]
func (c *StudyPlanController) ExtendSchedule(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var request ExtendScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	through, err := util.ParseDate(request.Through, time.Local)
	if err != nil {
		util.BadRequest(ctx, "through must be in YYYY-MM-DD format")
		return
	}

	plan, added, err := c.PlanService.ExtendSchedule(ctx.Request.Context(), userID, ctx.Param("id"), through)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"plan": plan, "tasksAdded": added})
}
