package controller

import (
	"study_plan_backend/internal/service"
	"study_plan_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AdvisoryController 个性化建议与学习分析
type AdvisoryController struct {
	AdvisoryService *service.AdvisoryService
}

func NewAdvisoryController(advisoryService *service.AdvisoryService) *AdvisoryController {
	return &AdvisoryController{AdvisoryService: advisoryService}
}

// ApplyRecommendationsRequest 要应用的建议ID；为空时应用全部
type ApplyRecommendationsRequest struct {
	IDs []string `json:"ids"`
}

// GetRecommendations godoc
// @Summary 获取学习建议
// @Tags 学习建议
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Success 200 {object} util.Response{data=[]service.Recommendation}
// @Router /api/study-plans/{id}/recommendations [get]
func (c *AdvisoryController) GetRecommendations(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	recs, err := c.AdvisoryService.Recommend(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"recommendations": recs})
}

// ApplyRecommendations godoc
// @Summary 应用建议并重新生成计划
// @Description 原计划保持不变，返回新生成的计划
// @Tags 学习建议
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Param request body ApplyRecommendationsRequest false "建议ID"
// @Success 201 {object} util.Response{data=model.SavedPlan}
// @Router /api/study-plans/{id}/recommendations/apply [post]
func (c *AdvisoryController) ApplyRecommendations(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var request ApplyRecommendationsRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&request); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	plan, err := c.AdvisoryService.Apply(ctx.Request.Context(), userID, ctx.Param("id"), request.IDs)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, plan)
}

// GetAnalytics godoc
// @Summary 学习分析
// @Tags 学习建议
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Success 200 {object} util.Response{data=service.PlanAnalytics}
// @Router /api/study-plans/{id}/analytics [get]
func (c *AdvisoryController) GetAnalytics(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	analytics, err := c.AdvisoryService.Analytics(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, analytics)
}
