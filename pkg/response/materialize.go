package response

import (
	"net/http"
	"strings"
)

// Store is the per-request slot a materialized response lives in.
// Implemented by the host's shared store.
type Store interface {
	// Response returns the materialized response, or nil if none exists.
	Response() *Response

	// SetResponse records the materialized response for the request.
	SetResponse(*Response)
}

// Materialize returns the one canonical response for the request.
//
// If the store already holds a materialized response it is returned
// unchanged, by identity. Otherwise the downstream continuation runs and
// its result becomes authoritative: the continuation's own return value,
// or — when it yields no distinguishable value — the host's in-progress
// response reported by current. The normalized result is stored and every
// later call observes the identical instance.
//
// The store is re-checked after the continuation returns: a link that
// materialized while the continuation was running wins, so identity is
// preserved end to end instead of re-normalizing the propagated value.
func Materialize(store Store, next func() (any, error), current func() *Response) (*Response, error) {
	if r := store.Response(); r != nil {
		return r, nil
	}

	var result any
	if next != nil {
		v, err := next()
		if err != nil {
			return nil, err
		}
		result = v
	}

	// Downstream may have materialized already.
	if r := store.Response(); r != nil {
		return r, nil
	}

	if result == nil && current != nil {
		if r := current(); r != nil {
			result = r
		}
	}

	r := Normalize(result)
	store.SetResponse(r)
	return r, nil
}

// EnsureVaryOrigin makes the Vary header include the "Origin" token.
// Existing tokens are never replaced: the header is set to "Origin" when
// absent and appended to when "origin" is not already present among its
// comma-separated tokens (case-insensitively).
func EnsureVaryOrigin(h http.Header) {
	vary := h.Get("Vary")
	if vary == "" {
		h.Set("Vary", "Origin")
		return
	}
	for _, tok := range strings.Split(vary, ",") {
		if strings.EqualFold(strings.TrimSpace(tok), "origin") {
			return
		}
	}
	h.Set("Vary", vary+", Origin")
}
