package host

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/fsroute/fsroute/pkg/response"
)

var errTest = errors.New("test failure")

func TestTranslatePattern(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		wantRest string
	}{
		{"/", "/", ""},
		{"/api/hello", "/api/hello", ""},
		{"/blog/:slug", "/blog/{slug}", ""},
		{"/users/:id/posts/:postId", "/users/{id}/posts/{postId}", ""},
		{"/catchall/*rest", "/catchall/*", "rest"},
		{"/a/:b/*rest", "/a/{b}/*", "rest"},
		{"/*", "/*", ""},
		{"/api/*", "/api/*", ""},
	}

	for _, tt := range tests {
		got, rest := translatePattern(tt.in)
		if got != tt.want || rest != tt.wantRest {
			t.Errorf("translatePattern(%q) = %q, %q, want %q, %q", tt.in, got, rest, tt.want, tt.wantRest)
		}
	}
}

func TestHandleRejectsUnsupportedMethod(t *testing.T) {
	r := NewChiRouter(nil)
	if err := r.Handle("TRACE", "/x", func(rs *RequestState) (any, error) { return nil, nil }); err == nil {
		t.Error("Handle(TRACE) succeeded, want error")
	}
	if err := r.Handle(http.MethodGet, "/x", func(rs *RequestState) (any, error) { return nil, nil }); err != nil {
		t.Errorf("Handle(GET): %v", err)
	}
}

func dispatch(t *testing.T, r *ChiRouter, method, target string) (any, error) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	return r.Dispatch(NewRequestState(req, nil))
}

func TestDispatchLeaf(t *testing.T) {
	r := NewChiRouter(nil)
	if err := r.Handle(http.MethodGet, "/api/hello", func(rs *RequestState) (any, error) {
		return "world", nil
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	result, err := dispatch(t, r, http.MethodGet, "/api/hello")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result != "world" {
		t.Errorf("Dispatch = %v, want %q", result, "world")
	}
}

func TestDispatchParams(t *testing.T) {
	r := NewChiRouter(nil)
	var got map[string]string
	if err := r.Handle(http.MethodGet, "/blog/:slug", func(rs *RequestState) (any, error) {
		got = rs.Params()
		return "ok", nil
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if _, err := dispatch(t, r, http.MethodGet, "/blog/first-post"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if want := map[string]string{"slug": "first-post"}; !reflect.DeepEqual(got, want) {
		t.Errorf("params = %v, want %v", got, want)
	}
}

func TestDispatchRestParam(t *testing.T) {
	r := NewChiRouter(nil)
	var got string
	if err := r.Handle(http.MethodGet, "/files/*path", func(rs *RequestState) (any, error) {
		got, _ = rs.Param("path")
		return "ok", nil
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if _, err := dispatch(t, r, http.MethodGet, "/files/a/b/c"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != "a/b/c" {
		t.Errorf("rest param = %q, want %q", got, "a/b/c")
	}
}

func TestDispatchMiddlewareOrderAndScope(t *testing.T) {
	r := NewChiRouter(nil)
	var order []string

	r.Use("/*", func(rs *RequestState, next func() (any, error)) (any, error) {
		order = append(order, "root")
		return next()
	})
	r.Use("/api/*", func(rs *RequestState, next func() (any, error)) (any, error) {
		order = append(order, "api")
		return next()
	})
	r.Use("/other/*", func(rs *RequestState, next func() (any, error)) (any, error) {
		order = append(order, "other")
		return next()
	})
	if err := r.Handle(http.MethodGet, "/api/hello", func(rs *RequestState) (any, error) {
		order = append(order, "leaf")
		return "ok", nil
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if _, err := dispatch(t, r, http.MethodGet, "/api/hello"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	want := []string{"root", "api", "leaf"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("execution order = %v, want %v", order, want)
	}
}

func TestDispatchMiddlewareCoversBarePrefix(t *testing.T) {
	r := NewChiRouter(nil)
	ran := false

	r.Use("/api/*", func(rs *RequestState, next func() (any, error)) (any, error) {
		ran = true
		return next()
	})
	if err := r.Handle(http.MethodGet, "/api", func(rs *RequestState) (any, error) {
		return "index", nil
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	result, err := dispatch(t, r, http.MethodGet, "/api")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result != "index" {
		t.Errorf("Dispatch = %v, want %q", result, "index")
	}
	if !ran {
		t.Error("subtree middleware skipped the bare directory path")
	}
}

func TestDispatchMiddlewareShortCircuit(t *testing.T) {
	r := NewChiRouter(nil)
	leafRan := false

	r.Use("/*", func(rs *RequestState, next func() (any, error)) (any, error) {
		return "blocked", nil
	})
	if err := r.Handle(http.MethodGet, "/x", func(rs *RequestState) (any, error) {
		leafRan = true
		return "ok", nil
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	result, err := dispatch(t, r, http.MethodGet, "/x")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result != "blocked" {
		t.Errorf("Dispatch = %v, want %q", result, "blocked")
	}
	if leafRan {
		t.Error("leaf handler ran past a short-circuiting middleware")
	}
}

func TestDispatchNotFound(t *testing.T) {
	r := NewChiRouter(nil)
	if err := r.Handle(http.MethodGet, "/exists", func(rs *RequestState) (any, error) {
		return "ok", nil
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	result, err := dispatch(t, r, http.MethodGet, "/missing")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	resp, ok := result.(*response.Response)
	if !ok {
		t.Fatalf("Dispatch = %T, want *response.Response", result)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestDispatchDuplicateRegistrationAppends(t *testing.T) {
	r := NewChiRouter(nil)
	if err := r.Handle(http.MethodGet, "/x", func(rs *RequestState) (any, error) {
		return nil, nil
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if err := r.Handle(http.MethodGet, "/x", func(rs *RequestState) (any, error) {
		return "second", nil
	}); err != nil {
		t.Fatalf("Handle second: %v", err)
	}

	result, err := dispatch(t, r, http.MethodGet, "/x")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result != "second" {
		t.Errorf("Dispatch = %v, want %q", result, "second")
	}
}

func TestAllRegistersEveryMethod(t *testing.T) {
	r := NewChiRouter(nil)
	r.All("/every", func(rs *RequestState) (any, error) {
		return rs.Method(), nil
	})

	for _, method := range Methods {
		result, err := dispatch(t, r, method, "/every")
		if err != nil {
			t.Fatalf("Dispatch %s: %v", method, err)
		}
		if result != method {
			t.Errorf("Dispatch %s = %v, want the method name", method, result)
		}
	}
}

func TestDispatchCanonicalizesPath(t *testing.T) {
	r := NewChiRouter(nil)
	if err := r.Handle(http.MethodGet, "/blog/post", func(rs *RequestState) (any, error) {
		return "found", nil
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	for _, target := range []string{"/blog/post/", "/blog//post", "/blog/./post", "/blog/x/../post"} {
		result, err := dispatch(t, r, http.MethodGet, target)
		if err != nil {
			t.Fatalf("Dispatch %s: %v", target, err)
		}
		if result != "found" {
			t.Errorf("Dispatch %s = %v, want %q", target, result, "found")
		}
	}
}

func TestDispatchHandlerSeesCanonicalPath(t *testing.T) {
	r := NewChiRouter(nil)
	var leafSaw, mwSaw string
	r.Use("/*", func(rs *RequestState, next func() (any, error)) (any, error) {
		mwSaw = rs.Request.URL.Path
		return next()
	})
	if err := r.Handle(http.MethodGet, "/blog/post", func(rs *RequestState) (any, error) {
		leafSaw = rs.Request.URL.Path
		return "found", nil
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	original := httptest.NewRequest(http.MethodGet, "/blog//post/", nil)
	if _, err := r.Dispatch(NewRequestState(original, nil)); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if leafSaw != "/blog/post" {
		t.Errorf("leaf saw path %q, want %q", leafSaw, "/blog/post")
	}
	if mwSaw != "/blog/post" {
		t.Errorf("middleware saw path %q, want %q", mwSaw, "/blog/post")
	}
	if original.URL.Path != "/blog//post/" {
		t.Errorf("inbound request mutated to %q", original.URL.Path)
	}
}

func TestDispatchRejectsMalformedPath(t *testing.T) {
	r := NewChiRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.URL.Path = "/../escape"

	result, err := r.Dispatch(NewRequestState(req, nil))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	resp, ok := result.(*response.Response)
	if !ok {
		t.Fatalf("Dispatch = %T, want *response.Response", result)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestServeHTTPWritesNormalizedResult(t *testing.T) {
	r := NewChiRouter(nil)
	if err := r.Handle(http.MethodGet, "/greet", func(rs *RequestState) (any, error) {
		return "hi", nil
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/greet", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "hi" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "hi")
	}
}

func TestServeHTTPErrorBecomes500(t *testing.T) {
	r := NewChiRouter(nil)
	if err := r.Handle(http.MethodGet, "/boom", func(rs *RequestState) (any, error) {
		return nil, errTest
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
