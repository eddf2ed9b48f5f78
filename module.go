package fsroute

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fsroute/fsroute/pkg/chain"
	"github.com/fsroute/fsroute/pkg/routepath"
)

// MethodAll is the reserved pseudo-method binding a handler to every verb.
const MethodAll = "ALL"

// exportPrefix is the reserved prefix for per-verb handler exports.
const exportPrefix = "OnRequest"

// reservedVerbs are the seven HTTP verbs an export suffix may name.
var reservedVerbs = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// methodOrder fixes the registration order of a module's handlers.
var methodOrder = append([]string{MethodAll}, reservedVerbs...)

// ModuleLoader lazily resolves a handler module. Loaders run once, at
// mount time; the compiled result is immutable afterwards.
type ModuleLoader func() (*Module, error)

// Module is one route file's exports.
//
// Recognized export names: "OnRequest" binds to every verb; "OnRequestGet"
// through "OnRequestOptions" bind to one verb each. Other names are
// ignored. Export values are a single handler or an ordered handler
// sequence (see handlersOf). When no verb export is recognized, a non-nil
// Default is treated as an every-verb handler.
type Module struct {
	Exports map[string]any
	Default any
}

// compiledModule is one module's immutable compiled form.
type compiledModule struct {
	file         string
	routes       []routepath.Route
	isMiddleware bool
	handlers     map[string]*chain.Chain
}

// methodForExport maps an export name to the HTTP method it binds.
// The bare reserved name binds every verb; a verb-suffixed name binds the
// uppercased suffix when it is one of the seven reserved verbs. Anything
// else is ignored, not an error.
func methodForExport(name string) (string, bool) {
	if name == exportPrefix {
		return MethodAll, true
	}
	if !strings.HasPrefix(name, exportPrefix) {
		return "", false
	}
	suffix := strings.ToUpper(name[len(exportPrefix):])
	for _, verb := range reservedVerbs {
		if suffix == verb {
			return verb, true
		}
	}
	return "", false
}

// handlersOf normalizes an export value into chain links. Accepted shapes:
// a chain.Handler (including the HandlerFunc and HandlerNextFunc
// adapters), the equivalent raw function types, or a slice of any of
// those.
func handlersOf(v any) ([]chain.Handler, error) {
	switch t := v.(type) {
	case nil:
		return nil, fmt.Errorf("nil handler")
	case chain.Handler:
		return []chain.Handler{t}, nil
	case func(*chain.Ctx) (any, error):
		return []chain.Handler{chain.HandlerFunc(t)}, nil
	case func(*chain.Ctx, chain.Next) (any, error):
		return []chain.Handler{chain.HandlerNextFunc(t)}, nil
	case []chain.Handler:
		return append([]chain.Handler(nil), t...), nil
	case []any:
		var links []chain.Handler
		for i, item := range t {
			sub, err := handlersOf(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			links = append(links, sub...)
		}
		return links, nil
	default:
		return nil, fmt.Errorf("unsupported handler type %T", v)
	}
}

// compileModule compiles one module's file path and exports.
func compileModule(file string, mod *Module, baseDir string) (*compiledModule, error) {
	compiled := routepath.Compile(file, baseDir)

	names := make([]string, 0, len(mod.Exports))
	for name := range mod.Exports {
		names = append(names, name)
	}
	sort.Strings(names)

	handlers := make(map[string]*chain.Chain)
	for _, name := range names {
		method, ok := methodForExport(name)
		if !ok {
			continue
		}
		links, err := handlersOf(mod.Exports[name])
		if err != nil {
			return nil, fmt.Errorf("fsroute: module %q export %q: %w", file, name, err)
		}
		handlers[method] = chain.New(links...)
	}

	if len(handlers) == 0 && mod.Default != nil {
		links, err := handlersOf(mod.Default)
		if err != nil {
			return nil, fmt.Errorf("fsroute: module %q default export: %w", file, err)
		}
		handlers[MethodAll] = chain.New(links...)
	}

	return &compiledModule{
		file:         file,
		routes:       compiled.Routes,
		isMiddleware: compiled.IsMiddleware,
		handlers:     handlers,
	}, nil
}
