// Package middleware provides reusable chain handlers for fsroute
// applications.
//
// This package includes:
//   - OpenTelemetry distributed tracing middleware
//   - Prometheus metrics middleware
//   - Request logging and Vary-header utilities
//
// Each handler is a chain link: add it to a directory "_middleware"
// module's exports and every request under that subtree flows through it.
//
//	mods["api/_middleware"] = func() (*fsroute.Module, error) {
//	    return &fsroute.Module{Exports: map[string]any{
//	        "OnRequest": []any{
//	            middleware.Logging(nil),
//	            middleware.Prometheus(),
//	            middleware.OpenTelemetry(),
//	        },
//	    }}, nil
//	}
//
// # Prometheus Metrics
//
// The Prometheus middleware collects request counts, durations and error
// counts labeled by method and path. Expose them on a separate port:
//
//	http.Handle("/metrics", promhttp.Handler())
//	go http.ListenAndServe(":9090", nil)
//
// # OpenTelemetry
//
// The OpenTelemetry middleware opens a server span per request and hands
// the span context to downstream links through a replacement request, so
// database drivers and HTTP clients called from handlers inherit the
// trace:
//
//	func handler(ctx *chain.Ctx) (any, error) {
//	    row := db.QueryRowContext(ctx.Request.Context(), "SELECT ...")
//	    ...
//	}
package middleware
