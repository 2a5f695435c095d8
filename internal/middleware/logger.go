package middleware

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"
	"unicode/utf8"

	"salesdesk/config"
	"salesdesk/internal/core"
	"salesdesk/internal/database/fluentd/model"
	"salesdesk/internal/database/fluentd/repository"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxBodyPreview = 2000

// Logger 請求 log；在下游執行完才輸出，才能帶上解析出的租戶
type Logger struct {
	logger            *zap.Logger
	trace             *telemetry.Trace
	config            *config.Configuration
	fluentdRepository *repository.LogRepository
}

func NewLogger(
	logger *zap.Logger,
	trace *telemetry.Trace,
	config *config.Configuration,
	fluentdRepository *repository.LogRepository,
) *Logger {
	return &Logger{
		logger:            logger,
		trace:             trace,
		config:            config,
		fluentdRepository: fluentdRepository,
	}
}

func (m *Logger) LoggerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isQuietPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		requestTime := time.Now().UTC()
		if startTime, exists := c.Get("requestDuration"); exists {
			if t, ok := startTime.(time.Time); ok {
				requestTime = t
			}
		}
		mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
		bodyRaw := ""
		if isBinaryContent(mediaType) {
			bodyRaw = fmt.Sprintf("(binary %s, %d bytes)", mediaType, c.Request.ContentLength)
		} else if c.Request.Body != nil && c.Request.ContentLength != 0 {
			// 讀完後回填，下游仍可讀取
			data, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(data))
			if strings.HasPrefix(mediaType, "application/json") {
				data = redactJSON(data)
			}
			bodyRaw = toSafePreview(data, maxBodyPreview)
		}

		c.Next()

		ctx, span, end := m.trace.WithSpan(c.Request.Context(), string(core.SpanLoggerMiddleware))
		defer end(nil)

		state := hostState(c)
		tenantID, subdomain := "", ""
		if tenant, ok := tenancy.FromContext(c.Request.Context()); ok {
			tenantID, subdomain = tenant.ID, tenant.Subdomain
		}
		id := requestID(c)

		m.trace.ApplyTraceAttributes(span, core.LoggerRequestMeta{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			FullPath:   c.FullPath(),
			Query:      c.Request.URL.RawQuery,
			Body:       bodyRaw,
			Host:       c.Request.Host,
			UserAgent:  c.Request.UserAgent(),
			ContentLen: c.Request.ContentLength,
			Proto:      c.Request.Proto,
			ClientIP:   c.ClientIP(),
		})

		fields := []zap.Field{
			zap.String("requestId", id),
			zap.String("method", c.Request.Method),
			zap.String("host", c.Request.Host),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(requestTime)),
		}
		if state != "" {
			fields = append(fields, zap.String("hostState", string(state)))
		}
		if tenantID != "" {
			fields = append(fields, zap.String("tenantId", tenantID), zap.String("subdomain", subdomain))
		}
		if query := c.Request.URL.RawQuery; query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if bodyRaw != "" {
			fields = append(fields, zap.String("body", bodyRaw))
		}
		m.logger.Info("[Request] "+c.Request.Method+" "+c.Request.URL.Path, fields...)

		if err := m.fluentdRepository.LogRequest(ctx, model.RequestLog{
			RequestID: id,
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			Host:      c.Request.Host,
			HostState: string(state),
			TenantID:  tenantID,
			Subdomain: subdomain,
			Body:      bodyRaw,
			IPHash:    base64.RawStdEncoding.EncodeToString([]byte(c.ClientIP())),
			UserAgent: c.Request.UserAgent(),
			RequestTS: requestTime.Format("2006-01-02 15:04:05.999999 UTC"),
		}); err != nil {
			m.logger.Debug("fluentd request log dropped", zap.Error(err))
		}
	}
}

var sensitiveKeys = []string{"password", "secret", "token"}

// redactJSON 遮蔽 JSON 內含密碼的欄位；解析失敗時原樣回傳
func redactJSON(data []byte) []byte {
	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return data
	}
	redactValue(body)
	out, err := json.Marshal(body)
	if err != nil {
		return data
	}
	return out
}

func redactValue(v any) {
	switch value := v.(type) {
	case map[string]any:
		for key, inner := range value {
			if isSensitiveKey(key) {
				if _, ok := inner.(string); ok {
					value[key] = "****"
					continue
				}
			}
			if s, ok := inner.(string); ok && strings.Contains(s, "://") {
				value[key] = tenancy.MaskURL(s)
				continue
			}
			redactValue(inner)
		}
	case []any:
		for _, inner := range value {
			redactValue(inner)
		}
	}
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// UTF-8 直接截斷；非 UTF-8 以 Base64 表示
func toSafePreview(b []byte, max int) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		if len(b) > max {
			return string(b[:max]) + "…"
		}
		return string(b)
	}
	if len(b) > max {
		b = b[:max]
	}
	return "b64:" + base64.StdEncoding.EncodeToString(b)
}

func isBinaryContent(mediaType string) bool {
	return strings.HasPrefix(mediaType, "multipart/") ||
		strings.HasPrefix(mediaType, "image/") ||
		strings.HasPrefix(mediaType, "audio/") ||
		strings.HasPrefix(mediaType, "video/") ||
		mediaType == "application/octet-stream"
}
