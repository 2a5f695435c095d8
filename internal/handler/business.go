package handler

import (
	"salesdesk/internal/dto"
	"salesdesk/internal/pkg/response"
	"salesdesk/internal/service"
	"salesdesk/internal/telemetry"
	"salesdesk/utils/validate"

	"github.com/gin-gonic/gin"
)

// BusinessHandler 租戶端 API；資料一律經由 request context 上綁定的租戶路由
type BusinessHandler struct {
	trace          *telemetry.Trace
	productService *service.ProductService
	saleService    *service.SaleService
}

func NewBusinessHandler(
	trace *telemetry.Trace,
	productService *service.ProductService,
	saleService *service.SaleService,
) *BusinessHandler {
	return &BusinessHandler{trace: trace, productService: productService, saleService: saleService}
}

// CurrentTenant 目前租戶
// @Summary 目前租戶摘要
// @Tags Tenant
// @Produce json
// @Success 200 {object} dto.CurrentTenantDto
// @Failure 400 {object} response.Response
// @Router /api/tenant [get]
func (h *BusinessHandler) CurrentTenant(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	current, err := h.saleService.Current(ctx)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, current)
}

// ListProducts 商品列表
// @Summary 商品列表
// @Tags Tenant-Product
// @Produce json
// @Success 200 {array} model.Product
// @Router /api/products [get]
func (h *BusinessHandler) ListProducts(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	products, err := h.productService.List(ctx)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, products)
}

// CreateProduct 新增商品
// @Summary 新增商品
// @Tags Tenant-Product
// @Accept json
// @Produce json
// @Param body body dto.CreateProductDto true "商品"
// @Success 201 {object} model.Product
// @Failure 400 {object} response.Response
// @Router /api/products [post]
func (h *BusinessHandler) CreateProduct(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	var req dto.CreateProductDto
	if cause, err := validate.BindAndValidate(c, &req); err != nil {
		end(cause)
		response.AbortWithError(c, err)
		return
	}
	product, err := h.productService.Create(ctx, &req)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	response.Create(c, product)
}

type saleListResponse struct {
	Sales   any `json:"sales"`
	Summary any `json:"summary"`
}

// ListSales 銷售紀錄
// @Summary 銷售紀錄與區間加總
// @Tags Tenant-Sale
// @Produce json
// @Param from query string false "起日 (YYYY-MM-DD)"
// @Param to query string false "迄日，不含 (YYYY-MM-DD)"
// @Param limit query int false "筆數上限" default(100)
// @Success 200 {object} saleListResponse
// @Failure 400 {object} response.Response
// @Router /api/sales [get]
func (h *BusinessHandler) ListSales(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	var query dto.SaleQueryDto
	if cause, err := validate.BindQuery(c, &query); err != nil {
		end(cause)
		response.AbortWithError(c, err)
		return
	}
	sales, summary, err := h.saleService.List(ctx, &query)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, saleListResponse{Sales: sales, Summary: summary})
}

// CreateSale 新增銷售
// @Summary 新增銷售；total 與 balance 由伺服器計算
// @Tags Tenant-Sale
// @Accept json
// @Produce json
// @Param body body dto.CreateSaleDto true "銷售"
// @Success 201 {object} model.Sale
// @Failure 400 {object} response.Response
// @Router /api/sales [post]
func (h *BusinessHandler) CreateSale(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	defer end(nil)

	var req dto.CreateSaleDto
	if cause, err := validate.BindAndValidate(c, &req); err != nil {
		end(cause)
		response.AbortWithError(c, err)
		return
	}
	sale, err := h.saleService.Create(ctx, &req)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	response.Create(c, sale)
}
