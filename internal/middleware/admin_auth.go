package middleware

import (
	"strings"

	"salesdesk/internal/core"
	cErr "salesdesk/internal/pkg/error"
	"salesdesk/internal/pkg/response"
	"salesdesk/internal/service"
	"salesdesk/internal/telemetry"

	"github.com/gin-gonic/gin"
)

// AdminAuth 驗證控制平面的 Bearer JWT
type AdminAuth struct {
	trace       *telemetry.Trace
	authService *service.AuthService
}

func NewAdminAuth(trace *telemetry.Trace, authService *service.AuthService) *AdminAuth {
	return &AdminAuth{trace: trace, authService: authService}
}

func (m *AdminAuth) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span, end := m.trace.WithSpan(c.Request.Context(), string(core.SpanAdminAuthMiddleware))

		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.trace.ApplyTraceAttributes(span, core.TraceAdminAuthMeta{Status: "missing_token"})
			cause := cErr.Unauthorized("missing bearer token")
			end(cause)
			response.AbortWithError(c, cause)
			return
		}
		claims, err := m.authService.ParseToken(raw)
		if err != nil {
			m.trace.ApplyTraceAttributes(span, core.TraceAdminAuthMeta{Status: "rejected"})
			end(err)
			response.AbortWithError(c, err)
			return
		}

		m.trace.ApplyTraceAttributes(span, core.TraceAdminAuthMeta{
			Username: claims.Username,
			Role:     claims.Role,
			Status:   "success",
		})
		c.Set(core.ContextClaimsKey, claims)
		c.Request = c.Request.WithContext(service.WithActor(c.Request.Context(), claims.Username))
		end(nil)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
