package fsroute

import (
	"errors"
	"log/slog"
)

// DefaultTraceHeader is the correlation header stamped on every response.
const DefaultTraceHeader = "X-Trace-Id"

// ErrNoModules reports a missing module discovery map at startup.
var ErrNoModules = errors.New("fsroute: no module discovery map provided")

// Options configures Mount.
type Options struct {
	// BaseDir is the directory prefix stripped from every module file
	// path before compilation (e.g. "functions").
	BaseDir string

	// Modules maps file paths to lazily resolvable handler modules.
	// Required; Mount fails without it.
	Modules map[string]ModuleLoader

	// Env holds the environment bindings exposed to every handler context.
	Env map[string]any

	// TraceHeader overrides the correlation header name.
	// Defaults to DefaultTraceHeader.
	TraceHeader string

	// Logger receives registration and request diagnostics.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// Verbose raises registration tracing from Debug to Info.
	// It has no effect on request semantics.
	Verbose bool
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) traceHeader() string {
	if o.TraceHeader != "" {
		return o.TraceHeader
	}
	return DefaultTraceHeader
}
