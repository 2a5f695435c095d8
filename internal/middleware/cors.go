package middleware

import (
	"net/url"
	"strings"

	"salesdesk/config"
	"salesdesk/internal/core"
	"salesdesk/internal/telemetry"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Cors struct {
	trace *telemetry.Trace
	conf  *config.Configuration
}

func NewCors(trace *telemetry.Trace, conf *config.Configuration) *Cors {
	return &Cors{trace: trace, conf: conf}
}

// corsConfig 設定 base domain 時只允許它與其子網域（各租戶前端）
func (m *Cors) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
	}
	baseDomain := strings.ToLower(strings.Trim(m.conf.Tenant.BaseDomain, "."))
	if baseDomain == "" {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowCredentials = true
	cfg.AllowOriginFunc = func(origin string) bool {
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(u.Hostname())
		return host == baseDomain || strings.HasSuffix(host, "."+baseDomain)
	}
	return cfg
}

func (m *Cors) CorsHandler() gin.HandlerFunc {
	cfg := m.corsConfig()
	corsHandler := cors.New(cfg)

	type corsMeta struct {
		AllowAll     bool     `trace:"http.cors.allow_all_origins"`
		BaseDomain   string   `trace:"http.cors.base_domain,omitempty"`
		AllowMethods []string `trace:"http.cors.allow_methods"`
		AllowHeaders []string `trace:"http.cors.allow_headers"`
		AllowCreds   bool     `trace:"http.cors.allow_credentials"`
	}

	return func(c *gin.Context) {
		// 不追蹤的路徑仍要套用 CORS，preflight 才不會失敗
		if isQuietPath(c.Request.URL.Path) {
			corsHandler(c)
			return
		}
		_, span, end := m.trace.WithSpan(c.Request.Context(), string(core.SpanCorsMiddleware))
		m.trace.ApplyTraceAttributes(span, corsMeta{
			AllowAll:     cfg.AllowAllOrigins,
			BaseDomain:   m.conf.Tenant.BaseDomain,
			AllowMethods: cfg.AllowMethods,
			AllowHeaders: cfg.AllowHeaders,
			AllowCreds:   cfg.AllowCredentials,
		})
		end(nil)
		corsHandler(c)
	}
}
