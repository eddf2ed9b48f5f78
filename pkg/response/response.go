package response

import (
	"encoding/json"
	"net/http"
)

// Response is the canonical mutable response produced by handlers.
// Once materialized for a request it is shared by reference between every
// chain link that asks for it; header mutations made by one link are
// visible to all of them.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Status is the status text. Empty means the default text for the code.
	Status string

	// Header holds the response headers. Never nil.
	Header http.Header

	// Body is the response payload. Clones share the same slice.
	Body []byte
}

// ResponseLike is implemented by values that carry response shape without
// being a *Response. Normalize reconstructs them with a cloned header
// collection so later mutation never aliases the source.
type ResponseLike interface {
	HTTPStatus() int
	HTTPHeader() http.Header
	HTTPBody() []byte
}

// New creates a response with the given status code and body.
func New(status int, body []byte) *Response {
	return &Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       body,
	}
}

// NoContent creates an empty 204 response.
func NoContent() *Response {
	return New(http.StatusNoContent, nil)
}

// Text creates a 200 response with a text/plain body.
func Text(body string) *Response {
	r := New(http.StatusOK, []byte(body))
	r.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return r
}

// JSON creates a 200 response with the JSON encoding of v.
// Encoding failures fall back to an empty JSON payload.
func JSON(v any) *Response {
	r := New(http.StatusOK, marshalOrEmpty(v))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// Clone returns a copy of r with its own header collection.
// The body slice is shared, not copied.
func (r *Response) Clone() *Response {
	return &Response{
		StatusCode: r.StatusCode,
		Status:     r.Status,
		Header:     r.Header.Clone(),
		Body:       r.Body,
	}
}

// Write writes the response to w. Headers are copied before the status
// line is committed.
func (r *Response) Write(w http.ResponseWriter) error {
	for k, vs := range r.Header {
		w.Header()[k] = vs
	}
	code := r.StatusCode
	if code == 0 {
		code = http.StatusOK
	}
	w.WriteHeader(code)
	if len(r.Body) > 0 {
		if _, err := w.Write(r.Body); err != nil {
			return err
		}
	}
	return nil
}

// Normalize converts an arbitrary handler result into a canonical response.
// It is total: no input shape produces an error.
//
//   - nil becomes an empty 204 response
//   - *Response and Response become a shallow copy with a freshly cloned
//     header collection
//   - ResponseLike values are reconstructed the same way
//   - string and []byte become a basic body with default status
//   - anything else is JSON-encoded with default status; encoding failures
//     fall back to an empty JSON payload
func Normalize(v any) *Response {
	switch t := v.(type) {
	case nil:
		return NoContent()
	case *Response:
		if t == nil {
			return NoContent()
		}
		return cloneOf(t)
	case Response:
		return cloneOf(&t)
	case ResponseLike:
		r := New(t.HTTPStatus(), t.HTTPBody())
		if h := t.HTTPHeader(); h != nil {
			r.Header = h.Clone()
		}
		if r.StatusCode == 0 {
			r.StatusCode = http.StatusOK
		}
		return r
	case string:
		r := New(http.StatusOK, []byte(t))
		r.Header.Set("Content-Type", "text/plain; charset=utf-8")
		return r
	case []byte:
		r := New(http.StatusOK, t)
		r.Header.Set("Content-Type", "application/octet-stream")
		return r
	case error:
		r := New(http.StatusOK, marshalOrEmpty(t.Error()))
		r.Header.Set("Content-Type", "application/json")
		return r
	default:
		r := New(http.StatusOK, marshalOrEmpty(v))
		r.Header.Set("Content-Type", "application/json")
		return r
	}
}

func cloneOf(r *Response) *Response {
	c := r.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	if c.StatusCode == 0 {
		c.StatusCode = http.StatusOK
	}
	return c
}

func marshalOrEmpty(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return data
}

// CloneWithExtras returns a new response sharing r's body with a header
// collection equal to r's headers overlaid with extra.
func CloneWithExtras(r *Response, extra http.Header) *Response {
	c := r.Clone()
	for k, vs := range extra {
		c.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	return c
}
