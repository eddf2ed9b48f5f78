// Package host defines the router interface this system registers against
// and the per-request primitives the hosting runtime supplies. The pattern
// matching and dispatch engine itself is an external collaborator; ChiRouter
// is the production implementation, tests may substitute their own.
package host

import (
	"log/slog"
	"net/http"

	"github.com/fsroute/fsroute/pkg/response"
)

// HandlerFunc is a leaf handler registered at an exact pattern.
// The returned value is normalized by the host before it reaches the wire;
// nil means the handler produced nothing.
type HandlerFunc func(rs *RequestState) (any, error)

// Middleware is a subtree-scoped handler. It may short-circuit by returning
// a value without calling next, or delegate and observe the downstream
// result. The host runs overlapping subtree middleware in registration
// order.
type Middleware func(rs *RequestState, next func() (any, error)) (any, error)

// Router is the registration surface the orchestrator consumes.
//
// Pattern syntax is the compiler's: ":name" for a named segment, a trailing
// "*name" for a rest capture. Handle reports an error for a method the
// router has no registration primitive for.
type Router interface {
	// Use registers subtree-scoped middleware. The pattern is expected to
	// end in a wildcard.
	Use(pattern string, m Middleware)

	// Handle registers a handler for one HTTP method at an exact pattern.
	Handle(method, pattern string, h HandlerFunc) error

	// All registers a handler for every supported HTTP method.
	All(pattern string, h HandlerFunc)
}

// Methods lists the HTTP verbs a Router must support, in registration
// order for All.
var Methods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodPatch,
	http.MethodHead,
	http.MethodOptions,
}

// RequestState carries the host's per-request primitives: the inbound
// request, the raw resolved params, the shared store, the in-progress
// response and the background-task registrar.
type RequestState struct {
	// Request is the inbound request as the host received it.
	Request *http.Request

	params map[string]string
	store  *SharedStore
	curr   *response.Response
	log    *slog.Logger
}

// NewRequestState creates the per-request state for req.
func NewRequestState(req *http.Request, log *slog.Logger) *RequestState {
	if log == nil {
		log = slog.Default()
	}
	rs := &RequestState{
		Request: req,
		params:  make(map[string]string),
		store:   NewSharedStore(),
		log:     log,
	}
	rs.store.SetCurrentQuery(rs.CurrentResponse)
	return rs
}

// Method returns the request method.
func (rs *RequestState) Method() string { return rs.Request.Method }

// Path returns the request path.
func (rs *RequestState) Path() string { return rs.Request.URL.Path }

// Param returns a resolved route parameter. Rest captures are joined with
// "/"; the context adapter splits them back into sequences.
func (rs *RequestState) Param(name string) (string, bool) {
	v, ok := rs.params[name]
	return v, ok
}

// Params returns the resolved route parameters for the matched pattern.
func (rs *RequestState) Params() map[string]string { return rs.params }

// SetParams replaces the resolved parameters. Called by the dispatch
// engine when a pattern matches.
func (rs *RequestState) SetParams(params map[string]string) {
	if params == nil {
		params = make(map[string]string)
	}
	rs.params = params
}

// Store returns the request's shared store.
func (rs *RequestState) Store() *SharedStore { return rs.store }

// CurrentResponse reports the host's in-progress response, or nil.
// This is the explicit query the materializer falls back to when a
// continuation yields no distinguishable value.
func (rs *RequestState) CurrentResponse() *response.Response { return rs.curr }

// SetCurrentResponse records the in-progress response.
func (rs *RequestState) SetCurrentResponse(r *response.Response) { rs.curr = r }

// WaitUntil registers fire-and-forget background work. The work is not
// tracked or awaited; panics are logged and dropped.
func (rs *RequestState) WaitUntil(fn func()) {
	if fn == nil {
		return
	}
	log := rs.log
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("deferred work panicked", "panic", r)
			}
		}()
		fn()
	}()
}
