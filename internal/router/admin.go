package router

import (
	"salesdesk/internal/handler"
	"salesdesk/internal/middleware"

	"github.com/gin-gonic/gin"
)

// AdminRouter 控制平面 API，只掛在 admin host 並需要 Bearer JWT
type AdminRouter struct {
	tenantHandler *handler.AdminTenantHandler
	poolHandler   *handler.AdminPoolHandler
	tenant        *middleware.Tenant
	adminAuth     *middleware.AdminAuth
}

func NewAdminRouter(
	tenantHandler *handler.AdminTenantHandler,
	poolHandler *handler.AdminPoolHandler,
	tenant *middleware.Tenant,
	adminAuth *middleware.AdminAuth,
) *AdminRouter {
	return &AdminRouter{
		tenantHandler: tenantHandler,
		poolHandler:   poolHandler,
		tenant:        tenant,
		adminAuth:     adminAuth,
	}
}

func (ar *AdminRouter) RegisterRoutes(r *gin.Engine) {
	admin := r.Group("/admin")
	admin.Use(ar.tenant.RequireControlPlane())
	admin.Use(ar.adminAuth.Handler())

	tenants := admin.Group("/tenants")
	{
		tenants.GET("", ar.tenantHandler.List)
		tenants.POST("", ar.tenantHandler.Create)
		tenants.GET("/:tenantID", ar.tenantHandler.Get)
		tenants.PATCH("/:tenantID", ar.tenantHandler.Update)
		tenants.DELETE("/:tenantID", ar.tenantHandler.Delete)
		tenants.POST("/:tenantID/provision", ar.tenantHandler.Provision)
		tenants.GET("/:tenantID/events", ar.tenantHandler.Events)
		tenants.GET("/:tenantID/locations", ar.tenantHandler.ListLocations)
		tenants.POST("/:tenantID/locations", ar.tenantHandler.AddLocation)
	}

	pools := admin.Group("/pools")
	{
		pools.GET("", ar.poolHandler.List)
		pools.POST("/check", ar.poolHandler.Check)
		pools.DELETE("", ar.poolHandler.Reset)
	}
}
