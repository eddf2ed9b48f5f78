package middleware

import (
	"github.com/fsroute/fsroute/pkg/chain"

	"github.com/fsroute/fsroute"
)

// VaryOrigin creates a chain handler for responses subject to origin-based
// variation: it materializes the per-request response after the downstream
// chain and adds the "Origin" token to its Vary header. Existing Vary
// tokens are preserved.
func VaryOrigin() chain.Handler {
	return chain.HandlerFunc(func(ctx *chain.Ctx) (any, error) {
		resp, err := fsroute.Materialize(ctx)
		if err != nil {
			return nil, err
		}
		if err := fsroute.EnsureVaryOrigin(ctx); err != nil {
			return nil, err
		}
		return resp, nil
	})
}
