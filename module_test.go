package fsroute

import (
	"testing"

	"github.com/fsroute/fsroute/pkg/chain"
)

func TestMethodForExport(t *testing.T) {
	tests := []struct {
		name   string
		method string
		ok     bool
	}{
		{"OnRequest", MethodAll, true},
		{"OnRequestGet", "GET", true},
		{"OnRequestPost", "POST", true},
		{"OnRequestPut", "PUT", true},
		{"OnRequestDelete", "DELETE", true},
		{"OnRequestPatch", "PATCH", true},
		{"OnRequestHead", "HEAD", true},
		{"OnRequestOptions", "OPTIONS", true},
		{"OnRequestGET", "GET", true},
		{"OnRequestTrace", "", false},
		{"OnRequestConnect", "", false},
		{"onRequestGet", "", false},
		{"Helper", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		method, ok := methodForExport(tt.name)
		if method != tt.method || ok != tt.ok {
			t.Errorf("methodForExport(%q) = %q, %v, want %q, %v", tt.name, method, ok, tt.method, tt.ok)
		}
	}
}

func TestHandlersOfShapes(t *testing.T) {
	raw := func(ctx *chain.Ctx) (any, error) { return "raw", nil }
	withNext := func(ctx *chain.Ctx, next chain.Next) (any, error) { return next(nil) }

	tests := []struct {
		name    string
		value   any
		wantLen int
		wantErr bool
	}{
		{"nil", nil, 0, true},
		{"handler", chain.HandlerFunc(raw), 1, false},
		{"raw func", raw, 1, false},
		{"next func", withNext, 1, false},
		{"handler slice", []chain.Handler{chain.HandlerFunc(raw), chain.HandlerNextFunc(withNext)}, 2, false},
		{"mixed any slice", []any{raw, withNext, chain.HandlerFunc(raw)}, 3, false},
		{"nested any slice", []any{[]any{raw, raw}, raw}, 3, false},
		{"bad element", []any{raw, 42}, 0, true},
		{"unsupported", "not a handler", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, err := handlersOf(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatal("handlersOf succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("handlersOf: %v", err)
			}
			if len(links) != tt.wantLen {
				t.Errorf("handlersOf produced %d links, want %d", len(links), tt.wantLen)
			}
		})
	}
}

func TestCompileModuleDefaultExport(t *testing.T) {
	mod := &Module{
		Default: func(ctx *chain.Ctx) (any, error) { return "default", nil },
	}
	cm, err := compileModule("api/thing.ts", mod, "")
	if err != nil {
		t.Fatalf("compileModule: %v", err)
	}
	if _, ok := cm.handlers[MethodAll]; !ok {
		t.Error("default export not bound to every verb")
	}
}

func TestCompileModuleDefaultIgnoredWithVerbExports(t *testing.T) {
	mod := &Module{
		Exports: map[string]any{
			"OnRequestGet": func(ctx *chain.Ctx) (any, error) { return "get", nil },
		},
		Default: func(ctx *chain.Ctx) (any, error) { return "default", nil },
	}
	cm, err := compileModule("api/thing.ts", mod, "")
	if err != nil {
		t.Fatalf("compileModule: %v", err)
	}
	if _, ok := cm.handlers[MethodAll]; ok {
		t.Error("default export bound despite a recognized verb export")
	}
	if _, ok := cm.handlers["GET"]; !ok {
		t.Error("verb export not bound")
	}
}

func TestCompileModuleIgnoresUnknownExports(t *testing.T) {
	mod := &Module{
		Exports: map[string]any{
			"Helper":       42,
			"OnRequestGet": func(ctx *chain.Ctx) (any, error) { return "get", nil },
		},
	}
	cm, err := compileModule("api/thing.ts", mod, "")
	if err != nil {
		t.Fatalf("compileModule: %v", err)
	}
	if len(cm.handlers) != 1 {
		t.Errorf("compiled %d handlers, want 1", len(cm.handlers))
	}
}

func TestCompileModuleBadExport(t *testing.T) {
	mod := &Module{
		Exports: map[string]any{
			"OnRequestGet": "not callable",
		},
	}
	if _, err := compileModule("api/thing.ts", mod, ""); err == nil {
		t.Error("compileModule accepted a non-handler export")
	}
}

func TestSubtreePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/*", "/*"},
		{"/api", "/api/*"},
		{"/api/:id", "/api/:id/*"},
		{"/api/*rest", "/api/*rest"},
	}
	for _, tt := range tests {
		if got := subtreePattern(tt.in); got != tt.want {
			t.Errorf("subtreePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
