package handler

import (
	"salesdesk/internal/dto"
	cErr "salesdesk/internal/pkg/error"
	"salesdesk/internal/pkg/response"
	"salesdesk/internal/service"
	"salesdesk/internal/telemetry"
	"salesdesk/utils/validate"

	"github.com/gin-gonic/gin"
)

type AdminTenantHandler struct {
	trace            *telemetry.Trace
	tenantService    *service.TenantService
	provisionService *service.ProvisionService
}

func NewAdminTenantHandler(
	trace *telemetry.Trace,
	tenantService *service.TenantService,
	provisionService *service.ProvisionService,
) *AdminTenantHandler {
	return &AdminTenantHandler{
		trace:            trace,
		tenantService:    tenantService,
		provisionService: provisionService,
	}
}

// List 租戶列表
// @Summary 取得租戶列表
// @Tags Admin-Tenant
// @Security BearerAuth
// @Produce json
// @Param active query bool false "只列出啟用中的租戶"
// @Success 200 {array} dto.TenantResponseDto
// @Failure 500 {object} response.Response
// @Router /admin/tenants [get]
func (h *AdminTenantHandler) List(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	activeOnly, err := validate.GetBoolQuery(c, "active")
	if err != nil {
		response.AbortWithError(c, cErr.BadRequestParams("active must be a boolean"))
		return
	}
	tenants, err := h.tenantService.List(ctx, activeOnly)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	result := make([]*dto.TenantResponseDto, 0, len(tenants))
	for _, tenant := range tenants {
		result = append(result, h.tenantService.ToResponse(tenant))
	}
	response.Success(c, result)
}

// Get 取得租戶
// @Summary 取得單一租戶
// @Tags Admin-Tenant
// @Security BearerAuth
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Success 200 {object} dto.TenantResponseDto
// @Failure 404 {object} response.Response
// @Router /admin/tenants/{tenantID} [get]
func (h *AdminTenantHandler) Get(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	tenant, err := h.tenantService.Get(ctx, c.Param("tenantID"))
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, h.tenantService.ToResponse(tenant))
}

// Create 建立租戶並 provision 資料庫
// @Summary 建立租戶
// @Description 預設同步建立資料庫、跑 migration、建立管理員；失敗時租戶狀態為 failed，可稍後重試
// @Tags Admin-Tenant
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.CreateTenantDto true "租戶資訊"
// @Success 201 {object} dto.CreateTenantResponseDto
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/tenants [post]
func (h *AdminTenantHandler) Create(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	var req dto.CreateTenantDto
	if cause, err := validate.BindAndValidate(c, &req, cErr.TenantValidation); err != nil {
		end(cause)
		response.AbortWithError(c, err)
		return
	}
	created, err := h.tenantService.Create(ctx, &req)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	response.Create(c, created)
}

// Update 更新租戶
// @Summary 更新租戶
// @Tags Admin-Tenant
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param body body dto.UpdateTenantDto true "更新欄位"
// @Success 200 {object} dto.TenantResponseDto
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/tenants/{tenantID} [patch]
func (h *AdminTenantHandler) Update(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	var req dto.UpdateTenantDto
	if cause, err := validate.BindAndValidate(c, &req, cErr.TenantValidation); err != nil {
		end(cause)
		response.AbortWithError(c, err)
		return
	}
	tenant, err := h.tenantService.Update(ctx, c.Param("tenantID"), &req)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, h.tenantService.ToResponse(tenant))
}

// Delete 刪除租戶
// @Summary 刪除租戶
// @Description 移除註冊資料與連線池；keep_database=true 時保留資料庫
// @Tags Admin-Tenant
// @Security BearerAuth
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param keep_database query bool false "保留資料庫"
// @Success 200 {object} dto.DeleteTenantResponseDto
// @Failure 404 {object} response.Response
// @Router /admin/tenants/{tenantID} [delete]
func (h *AdminTenantHandler) Delete(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	keepDatabase, err := validate.GetBoolQuery(c, "keep_database")
	if err != nil {
		response.AbortWithError(c, cErr.BadRequestParams("keep_database must be a boolean"))
		return
	}
	result, err := h.tenantService.Delete(ctx, c.Param("tenantID"), keepDatabase)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, result)
}

// Provision 重新 provision
// @Summary 重新 provision 租戶資料庫
// @Tags Admin-Tenant
// @Security BearerAuth
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Success 200 {object} dto.ProvisionResultDto
// @Failure 409 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /admin/tenants/{tenantID}/provision [post]
func (h *AdminTenantHandler) Provision(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	result, err := h.provisionService.Reprovision(ctx, c.Param("tenantID"))
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, service.ToProvisionResultDto(result))
}

// Events 稽核紀錄
// @Summary 租戶生命週期紀錄
// @Tags Admin-Tenant
// @Security BearerAuth
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param limit query int false "筆數上限" default(50)
// @Success 200 {array} model.TenantEvent
// @Router /admin/tenants/{tenantID}/events [get]
func (h *AdminTenantHandler) Events(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	limit, err := validate.GetInt64Query(c, "limit", 50)
	if err != nil || limit < 0 {
		response.AbortWithError(c, cErr.BadRequestParams("limit must be a non-negative integer"))
		return
	}
	events, err := h.tenantService.Events(ctx, c.Param("tenantID"), limit)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, events)
}

// ListLocations 分店列表
// @Summary 租戶分店列表
// @Tags Admin-Tenant
// @Security BearerAuth
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Success 200 {array} model.TenantLocation
// @Router /admin/tenants/{tenantID}/locations [get]
func (h *AdminTenantHandler) ListLocations(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	locations, err := h.tenantService.ListLocations(ctx, c.Param("tenantID"))
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, locations)
}

// AddLocation 新增分店
// @Summary 新增租戶分店
// @Tags Admin-Tenant
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param body body dto.CreateTenantLocationDto true "分店資訊"
// @Success 201 {object} model.TenantLocation
// @Failure 400 {object} response.Response
// @Router /admin/tenants/{tenantID}/locations [post]
func (h *AdminTenantHandler) AddLocation(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	var req dto.CreateTenantLocationDto
	if cause, err := validate.BindAndValidate(c, &req, cErr.TenantValidation); err != nil {
		end(cause)
		response.AbortWithError(c, err)
		return
	}
	location, err := h.tenantService.AddLocation(ctx, c.Param("tenantID"), &req)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	response.Create(c, location)
}
