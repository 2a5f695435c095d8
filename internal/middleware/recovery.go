package middleware

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"
	"unicode/utf8"

	"salesdesk/config"
	"salesdesk/internal/core"
	"salesdesk/internal/database/fluentd/model"
	"salesdesk/internal/database/fluentd/repository"
	cErr "salesdesk/internal/pkg/error"
	res "salesdesk/internal/pkg/response"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery 統一輸出 panic 與 handler 透過 c.Error 回報的錯誤
type Recovery struct {
	logger            *zap.Logger
	trace             *telemetry.Trace
	metric            *telemetry.Metric
	config            *config.Configuration
	fluentdRepository *repository.LogRepository
}

func NewRecovery(
	logger *zap.Logger,
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	config *config.Configuration,
	fluentdRepository *repository.LogRepository,
) *Recovery {
	return &Recovery{
		logger:            logger,
		trace:             trace,
		metric:            metric,
		config:            config,
		fluentdRepository: fluentdRepository,
	}
}

func (middleware *Recovery) ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestTime := time.Now()
		if startTime, exists := c.Get("requestDuration"); exists {
			if t, ok := startTime.(time.Time); ok {
				requestTime = t
			}
		}

		// panic recover 必須在 c.Next() 之前註冊
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			duration := time.Since(requestTime)
			_, span, end := middleware.trace.WithSpan(c.Request.Context(), string(core.SpanRecoveryMiddleware))
			meta := core.TracePanicMeta{
				Path:       c.Request.URL.Path,
				Method:     c.Request.Method,
				ClientIP:   c.ClientIP(),
				UserAgent:  c.Request.UserAgent(),
				DurationMs: float64(duration.Milliseconds()),
				Message:    toSafeString(fmt.Sprint(rec)),
				Stack:      toSafeStack(debug.Stack()),
				Status:     http.StatusInternalServerError,
			}
			middleware.trace.ApplyTraceAttributes(span, meta)

			middleware.logger.Error("[PANIC] Recovered",
				zap.String("requestId", requestID(c)),
				zap.String("path", meta.Path),
				zap.String("method", meta.Method),
				zap.String("tenantId", tenancy.TenantIDFromContext(c.Request.Context())),
				zap.Duration("duration", duration),
				zap.String("panic", meta.Message),
				zap.String("stacktrace", meta.Stack),
			)

			appErr := cErr.InternalServer("unexpected panic")
			end(appErr)
			if !c.Writer.Written() {
				res.FailByErr(c, requestID(c), appErr)
			}
			middleware.ship(c, appErr.ErrorCode(), http.StatusInternalServerError, meta.Message)
			middleware.metric.ObserveFailure("panic")
			c.Abort()
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		duration := time.Since(requestTime)
		_, span, end := middleware.trace.WithSpan(c.Request.Context(), string(core.SpanRecoveryMiddleware))
		defer end(nil)

		// 取第一個應用錯誤；其他錯誤一律 500
		var appErr *cErr.Error
		for _, e := range c.Errors {
			if errors.As(e.Err, &appErr) {
				break
			}
		}
		if appErr == nil {
			appErr = cErr.InternalServer(toSafeString(c.Errors.String()))
		}

		middleware.trace.ApplyTraceAttributes(span, core.TraceErrorMeta{
			Code:       appErr.ErrorCode(),
			Message:    appErr.Error(),
			Detail:     appErr.ErrorDesc(),
			Status:     appErr.HttpCode(),
			DurationMs: float64(duration.Milliseconds()),
		})
		fields := []zap.Field{
			zap.String("requestId", requestID(c)),
			zap.Int("code", appErr.ErrorCode()),
			zap.String("data", appErr.ErrorDesc()),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("duration", duration),
		}
		if tenantID := tenancy.TenantIDFromContext(c.Request.Context()); tenantID != "" {
			fields = append(fields, zap.String("tenantId", tenantID))
		}
		if appErr.HttpCode() >= http.StatusInternalServerError {
			middleware.logger.Error(appErr.Error(), fields...)
		} else {
			middleware.logger.Warn(appErr.Error(), fields...)
		}

		if data, ok := c.Get("data"); ok && data != nil {
			res.FailWithData(c, requestID(c), appErr, data)
		} else {
			res.FailByErr(c, requestID(c), appErr)
		}
		middleware.ship(c, appErr.ErrorCode(), appErr.HttpCode(), appErr.Error())
		middleware.metric.ObserveFailure(appErr.Error())
		c.Abort()
	}
}

func (middleware *Recovery) ship(c *gin.Context, code, statusCode int, message string) {
	responseLog := model.ResponseLog{
		RequestID:  requestID(c),
		Code:       code,
		StatusCode: statusCode,
		Error:      message,
		ResponseTS: time.Now().UTC().Format("2006-01-02 15:04:05.999999 UTC"),
	}
	if tenant, ok := tenancy.FromContext(c.Request.Context()); ok {
		responseLog.TenantID = tenant.ID
		responseLog.Subdomain = tenant.Subdomain
	}
	if err := middleware.fluentdRepository.LogResponse(c.Request.Context(), responseLog); err != nil {
		middleware.logger.Debug("fluentd response log dropped", zap.Error(err))
	}
}

func toSafeString(s string) string {
	const max = 8000
	if utf8.ValidString(s) {
		if len(s) > max {
			return s[:max] + "…"
		}
		return s
	}
	b := []byte(s)
	if len(b) > max {
		b = b[:max]
	}
	return "b64:" + base64.StdEncoding.EncodeToString(b)
}

func toSafeStack(b []byte) string {
	const max = 16000
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
