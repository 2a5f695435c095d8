package router

import (
	"salesdesk/internal/handler"
	"salesdesk/internal/middleware"

	"github.com/gin-gonic/gin"
)

// APIRouter 租戶端 API，只在租戶子網域提供
type APIRouter struct {
	businessHandler *handler.BusinessHandler
	tenant          *middleware.Tenant
}

func NewAPIRouter(businessHandler *handler.BusinessHandler, tenant *middleware.Tenant) *APIRouter {
	return &APIRouter{businessHandler: businessHandler, tenant: tenant}
}

func (ar *APIRouter) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.Use(ar.tenant.RequireTenant())
	{
		api.GET("/tenant", ar.businessHandler.CurrentTenant)
		api.GET("/products", ar.businessHandler.ListProducts)
		api.POST("/products", ar.businessHandler.CreateProduct)
		api.GET("/sales", ar.businessHandler.ListSales)
		api.POST("/sales", ar.businessHandler.CreateSale)
	}
}
