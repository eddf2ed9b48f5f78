package middleware

import (
	"log/slog"
	"time"

	"github.com/fsroute/fsroute/pkg/chain"
)

// Logging creates a chain handler that logs one line per request with
// method, path, trace id, duration and outcome. A nil logger uses
// slog.Default().
func Logging(logger *slog.Logger) chain.Handler {
	return chain.HandlerNextFunc(func(ctx *chain.Ctx, next chain.Next) (any, error) {
		log := logger
		if log == nil {
			log = slog.Default()
		}

		start := time.Now()
		result, err := next(nil)
		elapsed := time.Since(start)

		if err != nil {
			log.Error("request failed",
				"method", ctx.Request.Method,
				"path", ctx.Request.URL.Path,
				"trace_id", ctx.TraceID(),
				"duration", elapsed,
				"error", err,
			)
		} else {
			log.Info("request",
				"method", ctx.Request.Method,
				"path", ctx.Request.URL.Path,
				"trace_id", ctx.TraceID(),
				"duration", elapsed,
			)
		}

		return result, err
	})
}
