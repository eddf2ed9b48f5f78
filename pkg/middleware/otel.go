package middleware

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fsroute/fsroute/pkg/chain"
)

// Default tracer name for fsroute applications.
const defaultTracerName = "fsroute"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "fsroute").
	TracerName string

	// Filter determines which requests to trace.
	// Return true to trace the request, false to skip.
	// If nil, all requests are traced.
	Filter func(ctx *chain.Ctx) bool

	// AttributeExtractor extracts custom attributes from the context.
	// Called for each traced request.
	AttributeExtractor func(ctx *chain.Ctx) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithRequestFilter sets a filter function for requests.
func WithRequestFilter(filter func(ctx *chain.Ctx) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ctx *chain.Ctx) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{TracerName: defaultTracerName}
}

// OpenTelemetry creates a chain handler that traces every request.
//
// The handler creates a span per request with method, path and the
// per-request trace identifier as attributes, records errors and sets the
// span status from the downstream result.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before mounting:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	)
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) chain.Handler {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	config.tracer = otel.Tracer(config.TracerName)

	return chain.HandlerNextFunc(func(ctx *chain.Ctx, next chain.Next) (any, error) {
		if config.Filter != nil && !config.Filter(ctx) {
			return next(nil)
		}

		attrs := []attribute.KeyValue{
			attribute.String("http.method", ctx.Request.Method),
			attribute.String("http.target", ctx.Request.URL.Path),
			attribute.String("fsroute.trace_id", ctx.TraceID()),
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(ctx)...)
		}

		spanCtx, span := config.tracer.Start(
			ctx.Request.Context(),
			fmt.Sprintf("%s %s", ctx.Request.Method, ctx.Request.URL.Path),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
			trace.WithTimestamp(time.Now()),
		)
		defer span.End()

		// Downstream links see the span through the replacement request.
		result, err := next(ctx.Request.WithContext(spanCtx))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return result, err
	})
}
