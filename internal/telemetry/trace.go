package telemetry

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"salesdesk/config"
	"salesdesk/internal/core"
	"salesdesk/internal/tenancy"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Trace 零值可直接使用（不輸出任何 span）
type Trace struct {
	TracerProvider *sdktrace.TracerProvider
	ServiceName    string
}

func NewTrace(conf *config.Configuration) (*Trace, error) {
	if conf == nil || !conf.Telemetry.Trace.Enabled {
		return &Trace{}, nil
	}
	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithEndpointURL(conf.Telemetry.Trace.EndpointUrl),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{
			Enabled:         true,
			InitialInterval: 5 * time.Second,
			MaxInterval:     10 * time.Second,
			MaxElapsedTime:  60 * time.Second,
		}),
		otlptracehttp.WithTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(samplerFor(conf.Telemetry.Trace.SampleRatio))),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(conf.App.Name),
			semconv.ServiceVersion(conf.App.Version),
			semconv.DeploymentEnvironmentName(conf.App.Env),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &Trace{TracerProvider: tp, ServiceName: conf.App.Name}, nil
}

// samplerFor ratio 未設定或 >= 1 時全取樣
func samplerFor(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.TraceIDRatioBased(ratio)
}

// Shutdown 送出尚未匯出的 span
func (t *Trace) Shutdown(ctx context.Context) error {
	if t == nil || t.TracerProvider == nil {
		return nil
	}
	return t.TracerProvider.Shutdown(ctx)
}

func (t *Trace) tracer() trace.Tracer {
	if t == nil || t.TracerProvider == nil {
		return noop.NewTracerProvider().Tracer("noop")
	}
	return t.TracerProvider.Tracer(t.ServiceName)
}

// StartSpanForLayer 開 span；ctx 已綁定租戶時自動帶上租戶屬性
func (t *Trace) StartSpanForLayer(ctx context.Context, spanName core.TraceSpanName, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tenant, ok := tenancy.FromContext(ctx); ok {
		opts = append(opts, trace.WithAttributes(
			attribute.String("tenant.id", tenant.ID),
			attribute.String("tenant.subdomain", tenant.Subdomain),
		))
	}
	return t.tracer().Start(ctx, string(spanName), opts...)
}

// WithSpan handler 傳 *gin.Context（名稱取 handler），service/repository 傳 context.Context（名稱取呼叫者）
func (t *Trace) WithSpan(parent any, name ...string) (context.Context, trace.Span, func(error)) {
	var (
		ctx      context.Context
		spanName string
	)
	switch p := parent.(type) {
	case *gin.Context:
		ctx, spanName = p.Request.Context(), spanNameFromGin(p)
	case context.Context:
		ctx, spanName = p, prettifyFuncName(callerFuncName(2))
	default:
		ctx = context.Background()
	}
	if len(name) > 0 && strings.TrimSpace(name[0]) != "" {
		spanName = name[0]
	}
	if spanName == "" {
		spanName = "unknown"
	}

	ctx, span := t.StartSpanForLayer(ctx, core.TraceSpanName(spanName))
	return ctx, span, func(err error) { t.EndSpan(span, err) }
}

// EndSpan 有錯誤時標記 span 狀態
func (t *Trace) EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ApplyTraceAttributes 依 `trace:"key[,omitempty]"` tag 寫入 span 屬性
func (t *Trace) ApplyTraceAttributes(span trace.Span, obj any) {
	if span == nil || obj == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			span.RecordError(fmt.Errorf("apply trace attributes: %v", r))
		}
	}()
	span.SetAttributes(attributesOf(reflect.ValueOf(obj))...)
}

func attributesOf(val reflect.Value) []attribute.KeyValue {
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	var attrs []attribute.KeyValue
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("trace")
		if tag == "" {
			continue
		}
		key, opts, _ := strings.Cut(tag, ",")
		field := val.Field(i)
		if !field.CanInterface() || (strings.Contains(opts, "omitempty") && field.IsZero()) {
			continue
		}

		switch field.Kind() {
		case reflect.Struct, reflect.Ptr:
			attrs = append(attrs, attributesOf(field)...)
		case reflect.Map:
			if field.Type().Key().Kind() != reflect.String {
				continue
			}
			iter := field.MapRange()
			for iter.Next() {
				if kv, ok := scalarAttribute(key+"."+iter.Key().String(), iter.Value()); ok {
					attrs = append(attrs, kv)
				}
			}
		case reflect.Slice, reflect.Array:
			if field.Type().Elem().Kind() != reflect.String {
				continue
			}
			values := make([]string, field.Len())
			for j := range values {
				values[j] = field.Index(j).String()
			}
			attrs = append(attrs, attribute.StringSlice(key, values))
		default:
			if kv, ok := scalarAttribute(key, field); ok {
				attrs = append(attrs, kv)
			}
		}
	}
	return attrs
}

func scalarAttribute(key string, v reflect.Value) (attribute.KeyValue, bool) {
	switch v.Kind() {
	case reflect.String:
		return attribute.String(key, v.String()), true
	case reflect.Bool:
		return attribute.Bool(key, v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return attribute.Int64(key, v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return attribute.Int64(key, int64(v.Uint())), true
	case reflect.Float32, reflect.Float64:
		return attribute.Float64(key, v.Float()), true
	}
	return attribute.KeyValue{}, false
}

// prettifyFuncName "salesdesk/internal/service.(*TenantService).Create-fm" → "TenantService.Create"
func prettifyFuncName(full string) string {
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	full = strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(full, ".func"); i >= 0 {
		full = full[:i]
	}
	if _, rest, ok := strings.Cut(full, "."); ok {
		full = rest
	}
	full = strings.NewReplacer("(*", "", "(", "", ")", "").Replace(full)
	if open := strings.Index(full, "["); open >= 0 {
		if end := strings.Index(full, "]"); end > open {
			full = full[:open] + full[end+1:]
		}
	}
	return full
}

func spanNameFromGin(c *gin.Context) string {
	if hn := c.HandlerName(); hn != "" {
		return prettifyFuncName(hn)
	}
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return c.Request.Method + " " + route
}

func callerFuncName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		return fn.Name()
	}
	return ""
}
