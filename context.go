package fsroute

import (
	"strings"

	"github.com/fsroute/fsroute/pkg/chain"
	"github.com/fsroute/fsroute/pkg/host"
	"github.com/fsroute/fsroute/pkg/response"
)

// newContext builds the handler-facing context from the host's per-request
// primitives. A pending override request replaces the inbound one (each
// consumer gets its own defensive copy); "/"-joined values split into
// sequences for every array param, and absent array params resolve to an
// empty sequence.
func newContext(rs *host.RequestState, env map[string]any, arrayParams []string) *chain.Ctx {
	store := rs.Store()

	req := rs.Request
	if override := store.PendingOverride(); override != nil {
		req = override
	}

	isArray := make(map[string]bool, len(arrayParams))
	for _, name := range arrayParams {
		isArray[name] = true
	}

	params := make(chain.Params, len(rs.Params())+len(arrayParams))
	for name, raw := range rs.Params() {
		if isArray[name] {
			values := []string{}
			if raw != "" {
				values = strings.Split(raw, "/")
			}
			params[name] = chain.Param{Value: raw, Values: values, Array: true}
		} else {
			params[name] = chain.Param{Value: raw}
		}
	}
	for _, name := range arrayParams {
		if _, ok := params[name]; !ok {
			params[name] = chain.Param{Values: []string{}, Array: true}
		}
	}

	return &chain.Ctx{
		Request:   req,
		Env:       env,
		Params:    params,
		Store:     store,
		WaitUntil: rs.WaitUntil,
	}
}

// Materialize returns the request's canonical response from within a
// chain link, creating it if needed. The first call consumes the link's
// continuation; every later call, from any link, returns the identical
// instance, so a header mutation made through one is visible to all.
func Materialize(ctx *chain.Ctx) (*response.Response, error) {
	var next func() (any, error)
	if ctx.Next != nil {
		n := ctx.Next
		next = func() (any, error) { return n(nil) }
	}
	return response.Materialize(ctx.Store, next, ctx.Store.Current)
}

// EnsureVaryOrigin materializes the response and makes its Vary header
// include the "Origin" token without disturbing existing tokens.
func EnsureVaryOrigin(ctx *chain.Ctx) error {
	resp, err := Materialize(ctx)
	if err != nil {
		return err
	}
	response.EnsureVaryOrigin(resp.Header)
	return nil
}
