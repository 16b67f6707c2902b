package controller

import (
	"context"
	"net/http"
	"study_plan_backend/internal/repository"
	"study_plan_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	Store       repository.KVStore
	StorageType string
}

func NewHealthController(store repository.KVStore, storageType string) *HealthController {
	return &HealthController{Store: store, StorageType: storageType}
}

// @Summary 健康检查
// @Description 检查服务与存储后端状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := c.Store.Ping(pingCtx); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"storage": gin.H{"type": c.StorageType, "status": "up"},
		},
	})
}
