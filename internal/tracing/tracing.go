// Package tracing wires OpenTelemetry spans around service operations.
//
// Until Init or InitWithExporter runs, the global provider is the otel no-op
// provider and Start returns non-recording spans.
package tracing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/okian/taskmatch"

var (
	providerOnce sync.Once
	providerErr  error
	provider     *sdktrace.TracerProvider
	// output is the file Init opened for the exporter; Shutdown closes it.
	output io.Closer
)

// Init installs a stdout exporter writing to path, or os.Stdout when path is
// empty. Only the first call takes effect; later calls open nothing.
func Init(service, version, path string) error {
	return install(service, version, func() (sdktrace.SpanExporter, error) {
		var w io.Writer = os.Stdout
		if path != "" {
			f, err := os.Create(path)
			if err != nil {
				return nil, err
			}
			output = f
			w = f
		}
		return stdouttrace.New(stdouttrace.WithWriter(w))
	})
}

// InitWithExporter installs exporter behind a synchronous span processor.
func InitWithExporter(service, version string, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		return nil
	}
	return install(service, version, func() (sdktrace.SpanExporter, error) { return exporter, nil })
}

func install(service, version string, newExporter func() (sdktrace.SpanExporter, error)) error {
	providerOnce.Do(func() {
		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				attribute.String("service.name", service),
				attribute.String("service.version", version),
			),
		)
		if err != nil {
			providerErr = err
			return
		}

		exporter, err := newExporter()
		if err != nil {
			providerErr = errors.Join(err, closeOutput())
			return
		}

		provider = sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(provider)
	})

	return providerErr
}

// Shutdown flushes and stops the installed provider, if any, then closes the
// output file Init opened.
func Shutdown(ctx context.Context) error {
	var err error
	if provider != nil {
		err = provider.Shutdown(ctx)
	}
	return errors.Join(err, closeOutput())
}

func closeOutput() error {
	if output == nil {
		return nil
	}
	err := output.Close()
	output = nil
	return err
}

// Start opens an internal span named name. The returned func ends it,
// recording err as the span status.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	ctx, span := otel.Tracer(instrumentation).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// Annotate adds attributes to the span carried by ctx.
func Annotate(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
