package telemetry

import (
	"context"
	"testing"

	"salesdesk/internal/core"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTrace() (*Trace, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return &Trace{TracerProvider: tp, ServiceName: "test"}, recorder
}

type widgetService struct{ trace *Trace }

func (s *widgetService) Build(ctx context.Context) {
	_, _, end := s.trace.WithSpan(ctx)
	end(nil)
}

func TestWithSpanNamesSpanAfterCaller(t *testing.T) {
	trace, recorder := newRecordingTrace()
	(&widgetService{trace: trace}).Build(context.Background())

	spans := recorder.Ended()
	if assert.Len(t, spans, 1) {
		assert.Equal(t, "widgetService.Build", spans[0].Name())
	}
}

func TestApplyTraceAttributesHonoursOmitEmpty(t *testing.T) {
	trace, recorder := newRecordingTrace()
	_, span, end := trace.WithSpan(context.Background(), "pool")
	trace.ApplyTraceAttributes(span, core.TracePoolMeta{Key: "sales_acme"})
	end(nil)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range recorder.Ended()[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "sales_acme", attrs["pool.key"].AsString())
	_, hasEngine := attrs["pool.engine"]
	assert.False(t, hasEngine)
}

func TestZeroTraceIsUsable(t *testing.T) {
	trace := &Trace{}
	ctx, span, end := trace.WithSpan(context.Background())
	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
	end(assert.AnError)
	assert.NoError(t, trace.Shutdown(context.Background()))
}

func TestPrettifyFuncName(t *testing.T) {
	assert.Equal(t, "TenantService.Create", prettifyFuncName("salesdesk/internal/service.(*TenantService).Create"))
	assert.Equal(t, "BusinessHandler.ListProducts", prettifyFuncName("salesdesk/internal/handler.(*BusinessHandler).ListProducts-fm"))
	assert.Equal(t, "Cron.Run", prettifyFuncName("salesdesk/internal/cron.(*Cron).Run.func1"))
}
