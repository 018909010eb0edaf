// Package tracing wires OpenTelemetry spans around engine operations.
//
// Spans are named "statecraft.<operation>". When no provider is installed the
// global no-op tracer is used and spans cost nothing.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for statecraft spans.
const TracerName = "github.com/aretw0/statecraft"

// Attribute keys recorded on engine spans.
const (
	AttrDefinitionID = attribute.Key("statecraft.definition.id")
	AttrInstanceID   = attribute.Key("statecraft.instance.id")
	AttrActionID     = attribute.Key("statecraft.action.id")
)

// Tracer returns the statecraft tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Start opens a span named "statecraft.<op>".
func Start(ctx context.Context, tracer trace.Tracer, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = Tracer()
	}
	return tracer.Start(ctx, "statecraft."+op,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// End records the outcome of the operation and closes the span.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Setup installs a global tracer provider exporting spans with the stdout exporter.
// output is "stderr" (default), "stdout" or a file path.
// The returned shutdown func flushes the exporter and closes any file it opened.
func Setup(serviceName, serviceVersion, output string) (func(context.Context) error, error) {
	w, closeFn, err := openOutput(output)
	if err != nil {
		return nil, err
	}

	tp, err := NewProvider(serviceName, serviceVersion, w)
	if err != nil {
		_ = closeFn()
		return nil, err
	}
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		shutdownErr := tp.Shutdown(ctx)
		if err := closeFn(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
		return shutdownErr
	}, nil
}

// NewProvider builds a tracer provider writing pretty-printed spans to w.
func NewProvider(serviceName, serviceVersion string, w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", serviceVersion),
	)

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	), nil
}

func openOutput(output string) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch output {
	case "", "stderr":
		// Stdout is reserved for MCP JSON-RPC and CLI output.
		return os.Stderr, noop, nil
	case "stdout":
		return os.Stdout, noop, nil
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open trace output %s: %w", output, err)
	}
	return f, f.Close, nil
}
