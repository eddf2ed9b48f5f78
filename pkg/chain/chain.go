// Package chain executes one route file's exported handlers as a linked
// sequence with single-use continuations.
package chain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrContinuationReused reports a continuation invoked more than once
// within one chain frame.
var ErrContinuationReused = errors.New("chain: continuation invoked more than once")

// ProtocolError is the per-request fatal error raised when the chain
// discipline is violated. It fails only the request it occurs on.
type ProtocolError struct {
	// Position is the zero-based chain frame the violation occurred at.
	Position int
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("chain: continuation invoked more than once at position %d", e.Position)
}

// Unwrap supports errors.Is(err, ErrContinuationReused).
func (e *ProtocolError) Unwrap() error { return ErrContinuationReused }

// Next is the continuation a chain link calls to delegate to the next
// link, optionally replacing the request seen by everything downstream.
// A continuation is usable at most once per chain position.
type Next func(override *http.Request) (any, error)

// Handler is one link of a chain.
type Handler interface {
	Handle(ctx *Ctx) (any, error)
}

// HandlerFunc adapts a context-only function to Handler. The continuation
// is reached through the context's Next field.
type HandlerFunc func(ctx *Ctx) (any, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx *Ctx) (any, error) { return f(ctx) }

// HandlerNextFunc adapts a two-parameter function to Handler. The explicit
// continuation argument and ctx.Next resolve to the same step function.
type HandlerNextFunc func(ctx *Ctx, next Next) (any, error)

// Handle implements Handler.
func (f HandlerNextFunc) Handle(ctx *Ctx) (any, error) { return f(ctx, ctx.Next) }

// Chain is the ordered handler sequence exported by one route file.
// A Chain is immutable after construction and safe to run concurrently;
// each Run gets its own continuation bookkeeping.
type Chain struct {
	links []Handler
}

// New creates a chain from handlers in execution order.
func New(links ...Handler) *Chain {
	return &Chain{links: append([]Handler(nil), links...)}
}

// Len returns the number of links.
func (c *Chain) Len() int { return len(c.links) }

// Run executes the chain against root. Each link resolves as follows: a
// non-nil return value stops the chain and is returned as-is; a nil return
// with the continuation uncalled auto-advances to the next link; a nil
// return after calling the continuation yields the continuation's own
// result. Past the last link, final runs (or the chain resolves to no
// value when final is nil).
//
// Invoking a continuation twice within one frame fails the run with a
// *ProtocolError; no further link executes.
func (c *Chain) Run(root *Ctx, final Next) (any, error) {
	r := &run{chain: c, final: final, maxReached: -1}
	return r.step(0, root)
}

type run struct {
	chain      *Chain
	final      Next
	maxReached int
}

func (r *run) step(i int, ctx *Ctx) (any, error) {
	if i <= r.maxReached {
		return nil, &ProtocolError{Position: i}
	}
	r.maxReached = i

	if i >= len(r.chain.links) {
		if r.final == nil {
			return nil, nil
		}
		return r.final(nil)
	}

	advanced := false
	var advancedResult any
	var advancedErr error

	next := Next(func(override *http.Request) (any, error) {
		advanced = true
		if override != nil && override != ctx.Request && ctx.Store != nil {
			ctx.Store.SetPendingOverride(override)
		}
		stepCtx := ctx
		if override != nil && ctx.Store != nil {
			if pending := ctx.Store.PendingOverride(); pending != nil {
				stepCtx = ctx.WithRequest(pending)
			}
		}
		advancedResult, advancedErr = r.step(i+1, stepCtx)
		return advancedResult, advancedErr
	})

	result, err := r.chain.links[i].Handle(ctx.WithNext(next))
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}
	if advanced {
		return advancedResult, advancedErr
	}
	// Convenience default: no return value, continuation untouched.
	return r.step(i+1, ctx)
}
