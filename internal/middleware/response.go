package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"salesdesk/config"
	"salesdesk/internal/core"
	"salesdesk/internal/database/fluentd/model"
	"salesdesk/internal/database/fluentd/repository"
	cErr "salesdesk/internal/pkg/error"
	"salesdesk/internal/pkg/response"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 把 handler 以 c.Set("data") 留下的結果包成統一格式
type Response struct {
	logger            *zap.Logger
	trace             *telemetry.Trace
	metric            *telemetry.Metric
	config            *config.Configuration
	fluentdRepository *repository.LogRepository
}

func NewResponse(
	logger *zap.Logger,
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	config *config.Configuration,
	fluentdRepository *repository.LogRepository,
) *Response {
	return &Response{
		logger:            logger,
		trace:             trace,
		metric:            metric,
		config:            config,
		fluentdRepository: fluentdRepository,
	}
}

func (middleware *Response) FormatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestTime := time.Now()
		if startTime, exists := c.Get("requestDuration"); exists {
			if t, ok := startTime.(time.Time); ok {
				requestTime = t
			}
		}

		c.Next()

		// 錯誤交由 Recovery；已寫出的回應（health、metrics）不再包裝
		if len(c.Errors) > 0 || c.Writer.Written() {
			return
		}
		statusCode := c.Writer.Status()
		if statusCode >= http.StatusBadRequest {
			response.AbortWithError(c, cErr.MapHttpStatusToError(statusCode, "request error"))
			return
		}

		ctx, span, end := middleware.trace.WithSpan(c.Request.Context(), string(core.SpanResponseMiddleware))
		defer end(nil)

		data, _ := c.Get("data")
		if data == nil {
			data = map[string]any{}
		}
		message := c.GetString("message")
		if message == "" {
			message = "Request Success"
		}
		duration := time.Since(requestTime)
		id := requestID(c)

		body, err := json.Marshal(response.Response{
			RequestID:   id,
			Code:        0,
			Data:        data,
			Message:     "OK",
			Description: message,
		})
		if err != nil {
			response.AbortWithError(c, cErr.InternalServer("marshal response failed"))
			return
		}

		middleware.trace.ApplyTraceAttributes(span, core.TraceResponseMeta{
			Path:       c.Request.URL.Path,
			Method:     c.Request.Method,
			Status:     statusCode,
			Message:    message,
			Code:       0,
			DurationMs: float64(duration.Milliseconds()),
			Data:       safePreviewJSON(data, maxBodyPreview),
		})
		middleware.logger.Debug("[Response] "+message,
			zap.String("requestId", id),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", statusCode),
			zap.Duration("duration", duration),
		)

		responseLog := model.ResponseLog{
			RequestID:  id,
			Code:       0,
			StatusCode: statusCode,
			ResponseTS: time.Now().UTC().Format("2006-01-02 15:04:05.999999 UTC"),
		}
		if tenant, ok := tenancy.FromContext(c.Request.Context()); ok {
			responseLog.TenantID = tenant.ID
			responseLog.Subdomain = tenant.Subdomain
		}
		if err := middleware.fluentdRepository.LogResponse(ctx, responseLog); err != nil {
			middleware.logger.Debug("fluentd response log dropped", zap.Error(err))
		}
		middleware.metric.ObserveSuccess(c.FullPath(), statusCode)

		c.Writer.Header().Set("Content-Type", "application/json")
		c.Writer.WriteHeader(statusCode)
		if _, err := c.Writer.Write(body); err != nil {
			middleware.logger.Warn("write response failed", zap.String("requestId", id), zap.Error(err))
		}
	}
}

// safePreviewJSON 序列化後截斷，只給 trace 使用
func safePreviewJSON(data any, max int) string {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("[marshal error: %v]", err)
	}
	if len(b) > max {
		return string(b[:max]) + "…"
	}
	return string(b)
}
