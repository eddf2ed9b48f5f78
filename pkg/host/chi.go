package host

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fsroute/fsroute/pkg/response"
	"github.com/fsroute/fsroute/pkg/routepath"
)

// ChiRouter is a Router backed by chi's pattern matching engine.
//
// chi Mux instances are used purely as matchers: one for leaf routes and
// one per subtree middleware. Dispatch runs every registered middleware
// whose subtree matches the request, in registration order, composed
// around the matched leaf handler. Registering the same method and pattern
// twice appends instead of replacing; the first handler to produce a value
// wins.
type ChiRouter struct {
	mux        *chi.Mux
	routes     map[string][]HandlerFunc // "METHOD pattern" -> handlers
	registered map[string]bool
	rest       map[string]string // chi pattern -> rest param name
	scoped     []scopedMiddleware
	log        *slog.Logger
}

type scopedMiddleware struct {
	pattern  string
	matcher  *chi.Mux
	restName string
	fn       Middleware
}

var nopHandler = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

// NewChiRouter creates an empty chi-backed router.
func NewChiRouter(log *slog.Logger) *ChiRouter {
	if log == nil {
		log = slog.Default()
	}
	return &ChiRouter{
		mux:        chi.NewRouter(),
		routes:     make(map[string][]HandlerFunc),
		registered: make(map[string]bool),
		rest:       make(map[string]string),
		log:        log,
	}
}

// Use registers subtree-scoped middleware. Overlapping subtrees execute in
// registration order.
func (r *ChiRouter) Use(pattern string, m Middleware) {
	chiPattern, restName := translatePattern(pattern)
	matcher := chi.NewRouter()
	matcher.Handle(chiPattern, nopHandler)
	// chi's trailing wildcard does not match the bare prefix, but a
	// subtree includes the directory's own index route. Register the
	// prefix alongside the wildcard so "/api/*" also covers "/api".
	if prefix := strings.TrimSuffix(chiPattern, "/*"); prefix != chiPattern {
		if prefix == "" {
			prefix = "/"
		}
		matcher.Handle(prefix, nopHandler)
	}
	r.scoped = append(r.scoped, scopedMiddleware{
		pattern:  pattern,
		matcher:  matcher,
		restName: restName,
		fn:       m,
	})
}

// Handle registers a handler for one HTTP method at an exact pattern.
// Methods outside the supported verb set report an error.
func (r *ChiRouter) Handle(method, pattern string, h HandlerFunc) error {
	if !supportedMethod(method) {
		return fmt.Errorf("unsupported method %q", method)
	}
	chiPattern, restName := translatePattern(pattern)
	key := method + " " + chiPattern
	if !r.registered[key] {
		r.mux.Method(method, chiPattern, nopHandler)
		r.registered[key] = true
	}
	r.routes[key] = append(r.routes[key], h)
	if restName != "" {
		r.rest[chiPattern] = restName
	}
	return nil
}

// All registers a handler for every supported method.
func (r *ChiRouter) All(pattern string, h HandlerFunc) {
	for _, method := range Methods {
		// The verb set is fixed, Handle cannot fail here.
		_ = r.Handle(method, pattern, h)
	}
}

func supportedMethod(method string) bool {
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}

// ServeHTTP dispatches the request and writes the normalized result.
func (r *ChiRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rs := NewRequestState(req, r.log)
	result, err := r.Dispatch(rs)
	if err != nil {
		r.log.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := response.Normalize(result).Write(w); err != nil {
		r.log.Error("write response", "path", req.URL.Path, "error", err)
	}
}

// Dispatch runs the middleware pipeline and leaf handler for rs and
// returns the raw result. The request path is canonicalized before any
// pattern is consulted; paths that fail canonicalization resolve to a 400
// response. Exposed so tests and embedding servers can drive requests
// without an http.ResponseWriter.
func (r *ChiRouter) Dispatch(rs *RequestState) (any, error) {
	method, path := rs.Method(), rs.Path()
	canon, err := routepath.Canonicalize(path)
	if err != nil {
		return badRequestResponse(), nil
	}
	path = canon.Path
	if canon.Changed {
		// Handlers and middleware observe the path that actually matched.
		req := rs.Request.Clone(rs.Request.Context())
		req.URL.Path = canon.Path
		rs.Request = req
	}

	type pipelineFrame struct {
		params map[string]string
		fn     Middleware
	}
	var frames []pipelineFrame
	for _, sm := range r.scoped {
		rctx := chi.NewRouteContext()
		if sm.matcher.Match(rctx, method, path) {
			frames = append(frames, pipelineFrame{
				params: paramsFromRouteContext(rctx, sm.restName),
				fn:     sm.fn,
			})
		}
	}

	final := func() (any, error) {
		handlers, params, ok := r.matchLeaf(method, path)
		if !ok {
			return notFoundResponse(), nil
		}
		rs.SetParams(params)
		for _, h := range handlers {
			v, err := h(rs)
			if err != nil {
				return nil, err
			}
			if v != nil {
				rs.SetCurrentResponse(response.Normalize(v))
				return v, nil
			}
		}
		return nil, nil
	}

	// Compose frames around the leaf, outermost first.
	next := final
	for i := len(frames) - 1; i >= 0; i-- {
		frame := frames[i]
		downstream := next
		next = func() (any, error) {
			rs.SetParams(frame.params)
			return frame.fn(rs, downstream)
		}
	}
	return next()
}

func (r *ChiRouter) matchLeaf(method, path string) ([]HandlerFunc, map[string]string, bool) {
	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, method, path) {
		return nil, nil, false
	}
	pattern := rctx.RoutePattern()
	handlers := r.routes[method+" "+pattern]
	if len(handlers) == 0 {
		return nil, nil, false
	}
	return handlers, paramsFromRouteContext(rctx, r.rest[pattern]), true
}

func badRequestResponse() *response.Response {
	r := response.New(http.StatusBadRequest, []byte("400 bad request"))
	r.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return r
}

func notFoundResponse() *response.Response {
	r := response.New(http.StatusNotFound, []byte("404 page not found"))
	r.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return r
}

func paramsFromRouteContext(rctx *chi.Context, restName string) map[string]string {
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		value := rctx.URLParams.Values[i]
		if key == "*" {
			if restName != "" {
				params[restName] = strings.Trim(value, "/")
			}
			continue
		}
		params[key] = value
	}
	return params
}

// translatePattern converts compiler syntax to chi syntax: ":name" becomes
// "{name}", a trailing "*name" becomes chi's wildcard with the param name
// remembered separately.
func translatePattern(pattern string) (chiPattern, restName string) {
	trimmed := strings.TrimPrefix(pattern, "/")
	if trimmed == "" {
		return "/", ""
	}
	segments := strings.Split(trimmed, "/")
	out := make([]string, 0, len(segments))
	for i, seg := range segments {
		switch {
		case seg == "*" && i == len(segments)-1:
			out = append(out, "*")
		case strings.HasPrefix(seg, "*") && i == len(segments)-1:
			restName = seg[1:]
			out = append(out, "*")
		case strings.HasPrefix(seg, ":") && len(seg) > 1:
			out = append(out, "{"+seg[1:]+"}")
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), restName
}
