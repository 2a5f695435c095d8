package handler

import (
	"salesdesk/internal/core"
	"salesdesk/internal/pkg/response"
	"salesdesk/internal/service"
	"salesdesk/internal/telemetry"

	"github.com/gin-gonic/gin"
)

type HomeHandler struct {
	trace         *telemetry.Trace
	tenantService *service.TenantService
	saleService   *service.SaleService
}

func NewHomeHandler(trace *telemetry.Trace, tenantService *service.TenantService, saleService *service.SaleService) *HomeHandler {
	return &HomeHandler{trace: trace, tenantService: tenantService, saleService: saleService}
}

// Index 依 host 狀態回應：租戶 host 回目前租戶，其他回租戶選擇清單
// @Summary 首頁
// @Tags Home
// @Produce json
// @Success 200 {object} dto.TenantSelectionDto
// @Router / [get]
func (h *HomeHandler) Index(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	if state, _ := c.Get(core.ContextHostStateKey); state == core.HostValidTenant {
		current, err := h.saleService.Current(ctx)
		if err != nil {
			end(err)
			response.AbortWithError(c, err)
			return
		}
		response.Success(c, current)
		return
	}
	selection, err := h.tenantService.Selection(ctx)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, selection)
}
