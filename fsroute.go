// Package fsroute adapts a directory-of-files routing convention onto a
// pattern-based host router.
//
// Each file in the convention exports per-verb handlers ("OnRequestGet",
// "OnRequestPost", …) or an every-verb "OnRequest" handler; a file whose
// final path segment is "_middleware" scopes an entire subtree. File paths
// use bracket syntax for dynamic segments ("[id]", "[...rest]", "[[opt]]",
// "[[...opt]]"); Mount compiles them and registers the resulting chains
// against a host router, wrapping every request so that headers set
// anywhere along the handler chain survive onto the literal response the
// client receives, stamped with a per-request trace identifier.
package fsroute

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/fsroute/fsroute/pkg/chain"
	"github.com/fsroute/fsroute/pkg/host"
	"github.com/fsroute/fsroute/pkg/response"
	"github.com/fsroute/fsroute/pkg/routepath"
)

// Mount compiles every discovered module and registers it against rt.
//
// Registration happens in three ordered phases: the global last-mile
// wrapper, every middleware module's every-verb chain sorted shallow to
// deep, then method-gated middleware and leaf routes. Startup errors fail
// fast: nothing past the point of failure is registered.
//
// The compiled route table is immutable once Mount returns and safe for
// unsynchronized concurrent reads.
func Mount(rt host.Router, opts Options) error {
	if opts.Modules == nil {
		return ErrNoModules
	}

	logger := opts.logger()
	level := slog.LevelDebug
	if opts.Verbose {
		level = slog.LevelInfo
	}
	trace := func(msg string, args ...any) {
		logger.Log(context.Background(), level, msg, args...)
	}

	modules, err := loadModules(opts)
	if err != nil {
		return err
	}

	env := opts.Env
	traceHeader := opts.traceHeader()

	// Phase 1: the last-mile wrapper. It runs ahead of everything,
	// retrieves or materializes the per-request response after the rest of
	// the pipeline, and returns a clone carrying every header the
	// materialized response held plus the trace header. This is the single
	// point guaranteeing header survival regardless of how inner layers
	// track headers.
	rt.Use(routepath.WildcardRoot, func(rs *host.RequestState, next func() (any, error)) (any, error) {
		store := rs.Store()
		id := store.EnsureTraceID()
		resp, err := response.Materialize(store, next, rs.CurrentResponse)
		if err != nil {
			return nil, err
		}
		extra := make(http.Header)
		extra.Set(traceHeader, id)
		return response.CloneWithExtras(resp, extra), nil
	})
	trace("registered last-mile wrapper", "pattern", routepath.WildcardRoot, "header", traceHeader)

	// Phase 2: every-verb directory middleware, ancestors before
	// descendants. The host runs overlapping subtree middleware in
	// registration order, so sorting by depth preserves directory nesting.
	type mwRegistration struct {
		file  string
		route routepath.Route
		c     *chain.Chain
	}
	var mws []mwRegistration
	for _, m := range modules {
		if !m.isMiddleware {
			continue
		}
		c, ok := m.handlers[MethodAll]
		if !ok {
			continue
		}
		for _, r := range m.routes {
			mws = append(mws, mwRegistration{file: m.file, route: r, c: c})
		}
	}
	sort.SliceStable(mws, func(i, j int) bool { return mws[i].route.Depth < mws[j].route.Depth })
	for _, reg := range mws {
		pattern := subtreePattern(reg.route.Pattern)
		rt.Use(pattern, chainMiddleware(reg.c, env, reg.route.ArrayParams))
		trace("registered middleware", "pattern", pattern, "file", reg.file, "depth", reg.route.Depth)
	}

	// Phase 3: method-gated middleware, then leaf routes.
	for _, m := range modules {
		for _, method := range methodOrder {
			c, ok := m.handlers[method]
			if !ok {
				continue
			}
			for _, r := range m.routes {
				switch {
				case m.isMiddleware && method == MethodAll:
					// Registered in phase 2.
				case m.isMiddleware:
					pattern := subtreePattern(r.Pattern)
					rt.Use(pattern, methodGate(method, chainMiddleware(c, env, r.ArrayParams)))
					trace("registered method gate", "method", method, "pattern", pattern, "file", m.file)
				case method == MethodAll:
					rt.All(r.Pattern, chainHandler(c, env, r.ArrayParams))
					trace("registered route", "method", method, "pattern", r.Pattern, "file", m.file)
				default:
					if err := rt.Handle(method, r.Pattern, chainHandler(c, env, r.ArrayParams)); err != nil {
						return fmt.Errorf("fsroute: registering %s %s from %q: %w", method, r.Pattern, m.file, err)
					}
					trace("registered route", "method", method, "pattern", r.Pattern, "file", m.file)
				}
			}
		}
	}

	return nil
}

// loadModules resolves and compiles every discovered module in
// deterministic path order. Modules with no usable handlers are skipped.
func loadModules(opts Options) ([]*compiledModule, error) {
	paths := make([]string, 0, len(opts.Modules))
	for p := range opts.Modules {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var modules []*compiledModule
	for _, p := range paths {
		load := opts.Modules[p]
		if load == nil {
			continue
		}
		mod, err := load()
		if err != nil {
			return nil, fmt.Errorf("fsroute: loading module %q: %w", p, err)
		}
		if mod == nil {
			continue
		}
		cm, err := compileModule(p, mod, opts.BaseDir)
		if err != nil {
			return nil, err
		}
		if len(cm.handlers) == 0 {
			continue
		}
		modules = append(modules, cm)
	}
	return modules, nil
}

// chainMiddleware adapts a module chain to subtree middleware. The chain's
// final continuation hands control back to the host pipeline.
func chainMiddleware(c *chain.Chain, env map[string]any, arrayParams []string) host.Middleware {
	return func(rs *host.RequestState, next func() (any, error)) (any, error) {
		ctx := newContext(rs, env, arrayParams)
		return c.Run(ctx, func(*http.Request) (any, error) { return next() })
	}
}

// methodGate runs mw only for one inbound method and passes every other
// request through unchanged.
func methodGate(method string, mw host.Middleware) host.Middleware {
	return func(rs *host.RequestState, next func() (any, error)) (any, error) {
		if rs.Method() != method {
			return next()
		}
		return mw(rs, next)
	}
}

// chainHandler adapts a module chain to a leaf handler. There is no
// downstream continuation: a chain that advances past its last link
// resolves to no value.
func chainHandler(c *chain.Chain, env map[string]any, arrayParams []string) host.HandlerFunc {
	return func(rs *host.RequestState) (any, error) {
		ctx := newContext(rs, env, arrayParams)
		return c.Run(ctx, nil)
	}
}

// subtreePattern collapses an exact pattern to its trailing-wildcard form.
func subtreePattern(pattern string) string {
	if pattern == routepath.WildcardRoot {
		return pattern
	}
	last := pattern[strings.LastIndexByte(pattern, '/')+1:]
	if strings.HasPrefix(last, "*") {
		return pattern
	}
	return pattern + "/*"
}
