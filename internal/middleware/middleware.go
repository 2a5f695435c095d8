package middleware

import (
	"strings"

	"salesdesk/internal/core"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/google/wire"
	"go.opentelemetry.io/otel/trace"
)

var ProviderSet = wire.NewSet(
	NewTraceEntry,
	NewCors,
	NewLogger,
	NewRecovery,
	NewResponse,
	NewTenant,
	NewAdminAuth,
)

// 不做 trace / request log 的路徑
var quietPrefixes = []string{"/swagger", "/metrics", "/version", "/health", "/debug/pprof"}

func isQuietPath(path string) bool {
	for _, prefix := range quietPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// requestID 同一個請求共用；有 trace 時沿用 trace id
func requestID(c *gin.Context) string {
	if v, ok := c.Get(core.ContextRequestIDKey); ok {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}
	id := ""
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		id = sc.TraceID().String()
	} else if v7, err := uuid.NewV7(); err == nil {
		id = v7.String()
	} else {
		id = uuid.NewString()
	}
	c.Set(core.ContextRequestIDKey, id)
	c.Header("X-Request-ID", id)
	return id
}
