package middleware

import (
	"context"
	"errors"
	"strings"

	"salesdesk/config"
	"salesdesk/internal/core"
	cpModel "salesdesk/internal/database/controlplane/model"
	cpRepo "salesdesk/internal/database/controlplane/repository"
	"salesdesk/internal/database/routing"
	"salesdesk/internal/database/sqldb"
	cErr "salesdesk/internal/pkg/error"
	"salesdesk/internal/pkg/response"
	"salesdesk/internal/service"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Tenant 依 Host header 解析租戶並把結果綁到 request context
type Tenant struct {
	logger        *zap.Logger
	trace         *telemetry.Trace
	metric        *telemetry.Metric
	conf          *config.Configuration
	router        *routing.Router
	tenantService *service.TenantService
}

func NewTenant(
	logger *zap.Logger,
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	conf *config.Configuration,
	router *routing.Router,
	tenantService *service.TenantService,
) *Tenant {
	return &Tenant{
		logger:        logger,
		trace:         trace,
		metric:        metric,
		conf:          conf,
		router:        router,
		tenantService: tenantService,
	}
}

// Resolve 判定 host 狀態；只有 HostValidTenant 會回傳租戶
func (m *Tenant) Resolve(ctx context.Context, host string) (core.HostState, string, *cpModel.Tenant, error) {
	subdomain, ok := tenancy.SubdomainFromHost(host, m.conf.Tenant.BaseDomain)
	if !ok {
		return core.HostNoSubdomain, "", nil, nil
	}
	if subdomain == m.conf.Tenant.ControlPlaneLabel {
		return core.HostReservedSubdomain, subdomain, nil, nil
	}
	// 其他保留字（www 等）視同沒有子網域
	if tenancy.IsReserved(subdomain, m.conf.Tenant.ReservedSubdomains) {
		return core.HostNoSubdomain, subdomain, nil, nil
	}
	tenant, err := m.tenantService.FindActiveBySubdomain(ctx, subdomain)
	if err != nil {
		if errors.Is(err, cpRepo.ErrNotFound) {
			return core.HostUnknownSubdomain, subdomain, nil, nil
		}
		return "", subdomain, nil, err
	}
	return core.HostValidTenant, subdomain, tenant, nil
}

func (m *Tenant) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span, end := m.trace.WithSpan(c.Request.Context(), string(core.SpanTenantMiddleware))
		meta := core.TraceTenantResolveMeta{Host: c.Request.Host}

		state, subdomain, tenant, err := m.Resolve(ctx, c.Request.Host)
		meta.Subdomain = subdomain
		if err != nil {
			meta.Status = "registry_error"
			m.trace.ApplyTraceAttributes(span, meta)
			m.logger.Error("tenant lookup failed", zap.String("host", c.Request.Host), zap.Error(err))
			cause := cErr.DatabaseError("tenant registry is unavailable")
			end(err)
			response.AbortWithError(c, cause)
			return
		}
		meta.State = string(state)
		m.metric.ObserveResolution(state)
		c.Set(core.ContextHostStateKey, state)

		switch state {
		case core.HostUnknownSubdomain:
			meta.Status = "unknown"
			m.trace.ApplyTraceAttributes(span, meta)
			cause := cErr.UnknownTenant(subdomain)
			end(cause)
			response.AbortWithError(c, cause)
			return

		case core.HostValidTenant:
			meta.TenantID = tenant.ID
			meta.DatabaseName = tenant.DatabaseName
			if !tenant.IsProvisioned() {
				meta.Status = string(tenant.ProvisionStatus)
				m.trace.ApplyTraceAttributes(span, meta)
				cause := cErr.TenantNotProvisioned("tenant '" + tenant.Subdomain + "' is " + string(tenant.ProvisionStatus))
				end(cause)
				response.AbortWithError(c, cause)
				return
			}
			if _, err := m.router.ForTenant(ctx, tenant); err != nil {
				meta.Status = "connection_failed"
				m.trace.ApplyTraceAttributes(span, meta)
				m.logger.Warn("tenant pool unavailable",
					zap.String("tenantId", tenant.ID),
					zap.String("database", tenant.DatabaseName),
					zap.Error(err))
				cause := cErr.ConnectionFailure("tenant database is unreachable: " + string(sqldb.KindOf(err)))
				end(cause)
				response.AbortWithError(c, cause)
				return
			}
			meta.Status = "bound"
			c.Set(core.ContextTenantKey, tenant)
			c.Request = c.Request.WithContext(tenancy.WithTenant(c.Request.Context(), tenant))

		case core.HostReservedSubdomain:
			meta.Status = "control_plane"
			c.Request = c.Request.WithContext(tenancy.WithoutTenant(c.Request.Context()))

		case core.HostNoSubdomain:
			if !m.IsPublicPath(c.Request.URL.Path) {
				meta.Status = "tenant_required"
				m.trace.ApplyTraceAttributes(span, meta)
				cause := cErr.TenantRequired("open this path on a tenant subdomain")
				selection, selErr := m.tenantService.Selection(ctx)
				end(cause)
				if selErr != nil {
					response.AbortWithError(c, cause)
					return
				}
				response.AbortWithErrorData(c, cause, selection)
				return
			}
			meta.Status = "public"
			c.Request = c.Request.WithContext(tenancy.WithoutTenant(c.Request.Context()))
		}

		m.trace.ApplyTraceAttributes(span, meta)
		end(nil)
		c.Next()
	}
}

// IsPublicPath 沒有子網域時允許通過的路徑；"/x/*" 代表前綴
func (m *Tenant) IsPublicPath(path string) bool {
	for _, pattern := range m.conf.Tenant.PublicPaths {
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
			continue
		}
		if path == pattern {
			return true
		}
	}
	return false
}

// RequireTenant 業務路由只接受已綁定租戶的請求
func (m *Tenant) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := tenancy.FromContext(c.Request.Context()); ok {
			c.Next()
			return
		}
		if hostState(c) == core.HostNoSubdomain {
			response.AbortWithError(c, cErr.TenantRequired("open this path on a tenant subdomain"))
			return
		}
		response.AbortWithError(c, cErr.WrongHostForRoute("business routes are served on tenant hosts"))
	}
}

// RequireControlPlane 管理路由只在控制平面 host 提供
func (m *Tenant) RequireControlPlane() gin.HandlerFunc {
	return func(c *gin.Context) {
		if hostState(c) == core.HostReservedSubdomain {
			c.Next()
			return
		}
		response.AbortWithError(c, cErr.WrongHostForRoute(
			"admin routes are served on the "+m.conf.Tenant.ControlPlaneLabel+" host"))
	}
}

func hostState(c *gin.Context) core.HostState {
	if v, ok := c.Get(core.ContextHostStateKey); ok {
		if state, ok := v.(core.HostState); ok {
			return state
		}
	}
	return ""
}
