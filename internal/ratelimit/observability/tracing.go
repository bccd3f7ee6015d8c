package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "gatekeeper/ratelimit"

// Span names.
const (
	SpanCheck  = "ratelimit.check"
	SpanRecord = "ratelimit.record"
)

// Tracer starts spans around governor operations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer wraps t, or the global provider's tracer when t is nil.
func NewTracer(t trace.Tracer) *Tracer {
	if t == nil {
		t = otel.Tracer(instrumentationName)
	}
	return &Tracer{tracer: t}
}

func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t == nil || t.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
