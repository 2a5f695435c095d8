package router

import (
	"salesdesk/internal/handler"

	"github.com/gin-gonic/gin"
)

type HealthRouter struct {
	healthHandler *handler.HealthHandler
	homeHandler   *handler.HomeHandler
}

func NewHealthRouter(
	healthHandler *handler.HealthHandler,
	homeHandler *handler.HomeHandler,
) *HealthRouter {
	return &HealthRouter{
		healthHandler: healthHandler,
		homeHandler:   homeHandler,
	}
}

func (healthRouter *HealthRouter) RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/", healthRouter.homeHandler.Index)
	g := r.Group("/health")
	{
		g.GET("/liveness", healthRouter.healthHandler.Liveness)
		g.GET("/readiness", healthRouter.healthHandler.Readiness)
		g.GET("/dependencies", healthRouter.healthHandler.Dependencies)
	}
}
