package host

import (
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/fsroute/fsroute/pkg/response"
)

// absent marks a deleted key. Delete never removes the key from the
// underlying map so host-side tracking still sees it; lookups treat the
// slot as empty.
type absentValue struct{}

var absent = absentValue{}

// SharedStore is the per-request key/value bag bridging host-native
// per-request storage and the handler-facing context. It holds the trace
// id, the pending override request and the materialized response through
// typed accessors, plus an open key space for handler state.
//
// A store lives for exactly one request and is only ever touched from that
// request's strictly sequential chain, so no locking guards the bag; the
// trace id uses a sync.Once because the deferred-work registrar may race a
// late first access.
type SharedStore struct {
	values map[string]any

	traceOnce sync.Once
	traceID   string

	override *http.Request
	resp     *response.Response

	// current reports the host's in-progress response, when the host
	// supports the query. May be nil.
	current func() *response.Response
}

// NewSharedStore creates an empty per-request store.
func NewSharedStore() *SharedStore {
	return &SharedStore{values: make(map[string]any)}
}

// Get returns the value stored under key.
func (s *SharedStore) Get(key string) (any, bool) {
	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	if _, deleted := v.(absentValue); deleted {
		return nil, false
	}
	return v, true
}

// Set stores a value under key.
func (s *SharedStore) Set(key string, v any) {
	s.values[key] = v
}

// Has reports whether key holds a value.
func (s *SharedStore) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete clears the value under key. The key itself stays in the map,
// set to an absent marker, so the host keeps seeing which keys a request
// touched.
func (s *SharedStore) Delete(key string) {
	if _, ok := s.values[key]; ok {
		s.values[key] = absent
	}
}

// Keys returns every key the request has touched, including deleted ones.
func (s *SharedStore) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// EnsureTraceID returns the request's trace identifier, generating it on
// first access. The value is an opaque short string, stable for the
// lifetime of the request.
func (s *SharedStore) EnsureTraceID() string {
	s.traceOnce.Do(func() {
		id := uuid.NewString()
		if i := strings.IndexByte(id, '-'); i > 0 {
			id = id[:i]
		}
		s.traceID = id
	})
	return s.traceID
}

// TraceID returns the trace identifier without generating one.
// Empty until the first EnsureTraceID call.
func (s *SharedStore) TraceID() string {
	return s.traceID
}

// SetPendingOverride records a replacement request for all subsequent
// chain links of this request. A defensive copy is stored so later
// mutation of the caller's request cannot leak through.
func (s *SharedStore) SetPendingOverride(r *http.Request) {
	if r == nil {
		s.override = nil
		return
	}
	s.override = r.Clone(r.Context())
}

// PendingOverride returns a defensive copy of the pending replacement
// request, or nil when none is set. Each caller gets its own copy.
func (s *SharedStore) PendingOverride() *http.Request {
	if s.override == nil {
		return nil
	}
	return s.override.Clone(s.override.Context())
}

// Response returns the materialized response, or nil.
func (s *SharedStore) Response() *response.Response {
	return s.resp
}

// SetResponse records the materialized response for the request.
func (s *SharedStore) SetResponse(r *response.Response) {
	s.resp = r
}

// Current reports the host's in-progress response state, or nil when the
// host has none (or does not support the query).
func (s *SharedStore) Current() *response.Response {
	if s.current == nil {
		return nil
	}
	return s.current()
}

// SetCurrentQuery installs the host's in-progress response query.
func (s *SharedStore) SetCurrentQuery(q func() *response.Response) {
	s.current = q
}
