package chain

import (
	"net/http"

	"github.com/fsroute/fsroute/pkg/host"
)

// Ctx is the handler-facing context for one chain invocation. Derived
// contexts are explicit struct copies with a single field replaced, never
// delegation chains.
type Ctx struct {
	// Request is the inbound request, post-override.
	Request *http.Request

	// Env holds the environment bindings supplied at mount time.
	Env map[string]any

	// Params are the resolved route parameters. Values are scalar strings
	// or ordered sequences; array params are never omitted.
	Params Params

	// Store is the request's shared store.
	Store *host.SharedStore

	// WaitUntil registers fire-and-forget background work with the host.
	WaitUntil func(func())

	// Next is the chain continuation. Nil outside middleware chains.
	Next Next
}

// WithNext returns a copy of c with the continuation replaced.
func (c *Ctx) WithNext(next Next) *Ctx {
	cp := *c
	cp.Next = next
	return &cp
}

// WithRequest returns a copy of c with the request replaced.
func (c *Ctx) WithRequest(req *http.Request) *Ctx {
	cp := *c
	cp.Request = req
	return &cp
}

// TraceID returns the request's trace identifier, generating it on first
// access.
func (c *Ctx) TraceID() string {
	if c.Store == nil {
		return ""
	}
	return c.Store.EnsureTraceID()
}

// Param is one resolved route parameter: a scalar string or an ordered
// sequence of strings.
type Param struct {
	// Value is the scalar form. For array params it is the segments
	// joined with "/".
	Value string

	// Values is the sequence form. Empty, never nil, for absent array
	// params.
	Values []string

	// Array reports whether the parameter is array-valued.
	Array bool
}

// Params maps parameter names to resolved values.
type Params map[string]Param

// Get returns the scalar form of a parameter, or "" when absent.
func (p Params) Get(name string) string {
	return p[name].Value
}

// All returns the sequence form of a parameter. Scalar params yield a
// one-element sequence; absent params yield nil.
func (p Params) All(name string) []string {
	param, ok := p[name]
	if !ok {
		return nil
	}
	if param.Array {
		return param.Values
	}
	return []string{param.Value}
}
