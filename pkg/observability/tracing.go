package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/odvcencio/beacon"

// TracerProvider owns the configured SDK provider so callers can flush
// buffered spans on shutdown without importing the OTel SDK themselves.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
}

// NewTracerProvider installs a global tracer provider that writes
// pretty-printed spans to stdout. serviceVersion is stamped into the span
// resource; an empty value is recorded as "dev".
func NewTracerProvider(serviceName, serviceVersion string) (*TracerProvider, error) {
	if serviceVersion == "" {
		serviceVersion = "dev"
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("building trace exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("building trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)

	return &TracerProvider{provider: provider}, nil
}

// Shutdown flushes any spans still buffered in the batcher.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.provider.Shutdown(ctx)
}

// Tracer returns the module tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan opens a span on the module tracer.
func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, spanName, opts...)
}

// AddEvent, RecordError, and SetAttributes act on the span carried by ctx.
// Outside an active span they are no-ops, so call sites never guard them.

func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

func RecordError(ctx context.Context, err error) {
	trace.SpanFromContext(ctx).RecordError(err)
}

func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// Attribute keys shared by flow and archive spans.
var (
	AttrFlowID   = attribute.Key("beacon.flow.id")
	AttrFlowName = attribute.Key("beacon.flow.name")

	AttrGatherMode = attribute.Key("beacon.gather.mode")
	AttrStepName   = attribute.Key("beacon.step.name")
	AttrStepCount  = attribute.Key("beacon.step.count")
	AttrStepURL    = attribute.Key("beacon.step.url")

	AttrRequestor = attribute.Key("beacon.navigation.requestor")

	AttrRecordID = attribute.Key("beacon.archive.record_id")
)
