package app

import (
	"study_plan_backend/internal/config"
	"study_plan_backend/internal/middleware"
	"study_plan_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerPlanRoutes(authGroup, c)
	}
}

func (a *App) registerPlanRoutes(rg *gin.RouterGroup, c *controllers) {
	plans := rg.Group("/study-plans")
	{
		plans.POST("", c.plan.CreatePlan)
		plans.GET("", c.plan.ListPlans)
		plans.GET("/active", c.plan.GetActivePlan)
		plans.GET("/generation-status", c.plan.GenerationStatus)

		plans.GET("/:id", c.plan.GetPlan)
		plans.DELETE("/:id", c.plan.DeletePlan)
		plans.POST("/:id/select", c.plan.SelectPlan)
		plans.POST("/:id/toggle", c.plan.ToggleStatus)
		plans.POST("/:id/extend", c.plan.ExtendSchedule)
		plans.GET("/:id/days/:date", c.plan.GetDay)

		// 任务与进度
		plans.GET("/:id/today", c.progress.GetTodayTasks)
		plans.POST("/:id/tasks/:taskId/complete", c.progress.CompleteTask)
		plans.GET("/:id/progress", c.progress.GetProgress)

		// 建议与分析
		plans.GET("/:id/recommendations", c.advisory.GetRecommendations)
		plans.POST("/:id/recommendations/apply", c.advisory.ApplyRecommendations)
		plans.GET("/:id/analytics", c.advisory.GetAnalytics)
	}
}
