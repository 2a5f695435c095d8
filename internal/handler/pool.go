package handler

import (
	"time"

	"salesdesk/internal/pkg/response"
	"salesdesk/internal/service"
	"salesdesk/internal/telemetry"

	"github.com/gin-gonic/gin"
)

type AdminPoolHandler struct {
	trace       *telemetry.Trace
	poolService *service.PoolService
}

func NewAdminPoolHandler(trace *telemetry.Trace, poolService *service.PoolService) *AdminPoolHandler {
	return &AdminPoolHandler{trace: trace, poolService: poolService}
}

// List 已註冊的連線池
// @Summary 列出已註冊的租戶連線池
// @Tags Admin-Pool
// @Security BearerAuth
// @Produce json
// @Success 200 {array} pool.EntryInfo
// @Router /admin/pools [get]
func (h *AdminPoolHandler) List(c *gin.Context) {
	_, _, end := h.trace.WithSpan(c)
	defer end(nil)
	response.Success(c, h.poolService.Snapshot())
}

// Check 立即檢查所有連線池
// @Summary 立即 ping 所有租戶連線池
// @Tags Admin-Pool
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]int
// @Router /admin/pools/check [post]
func (h *AdminPoolHandler) Check(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)
	healthy, unhealthy := h.poolService.Sweep(ctx, 3*time.Second)
	response.Success(c, gin.H{"healthy": healthy, "unhealthy": unhealthy})
}

// Reset 關閉並移除所有連線池，下次請求時重新建立
// @Summary 重置租戶連線池
// @Tags Admin-Pool
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]int
// @Router /admin/pools [delete]
func (h *AdminPoolHandler) Reset(c *gin.Context) {
	_, _, end := h.trace.WithSpan(c)
	defer end(nil)
	response.Success(c, gin.H{"evicted": h.poolService.Reset()})
}
