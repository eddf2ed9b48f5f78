package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/fsroute/fsroute/pkg/chain"
	"github.com/fsroute/fsroute/pkg/host"
	"github.com/fsroute/fsroute/pkg/response"
)

func newCtx(t *testing.T, method, target string) *chain.Ctx {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rs := host.NewRequestState(req, nil)
	return &chain.Ctx{
		Request:   req,
		Params:    chain.Params{},
		Store:     rs.Store(),
		WaitUntil: rs.WaitUntil,
	}
}

func runLink(t *testing.T, h chain.Handler, ctx *chain.Ctx, result any, downstreamErr error) (any, error) {
	t.Helper()
	final := chain.Next(func(*http.Request) (any, error) { return result, downstreamErr })
	return chain.New(h).Run(ctx, final)
}

func TestPrometheusCollectsRequestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := Prometheus(WithRegistry(reg))

	if result, err := runLink(t, h, newCtx(t, http.MethodGet, "/ok"), "fine", nil); err != nil || result != "fine" {
		t.Fatalf("run = %v, %v, want %q, nil", result, err, "fine")
	}
	boom := errors.New("downstream failure")
	if _, err := runLink(t, h, newCtx(t, http.MethodGet, "/bad"), nil, boom); !errors.Is(err, boom) {
		t.Fatalf("run error = %v, want %v", err, boom)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	total := byName["fsroute_requests_total"]
	if total == nil {
		t.Fatal("fsroute_requests_total not collected")
	}
	var success, failure float64
	for _, m := range total.GetMetric() {
		status := ""
		for _, l := range m.GetLabel() {
			if l.GetName() == "status" {
				status = l.GetValue()
			}
		}
		switch status {
		case "success":
			success += m.GetCounter().GetValue()
		case "error":
			failure += m.GetCounter().GetValue()
		}
	}
	if success != 1 || failure != 1 {
		t.Errorf("requests_total success = %v, error = %v, want 1 and 1", success, failure)
	}

	errorsTotal := byName["fsroute_request_errors_total"]
	if errorsTotal == nil {
		t.Fatal("fsroute_request_errors_total not collected")
	}
	var errCount float64
	for _, m := range errorsTotal.GetMetric() {
		errCount += m.GetCounter().GetValue()
	}
	if errCount != 1 {
		t.Errorf("request_errors_total = %v, want 1", errCount)
	}

	if byName["fsroute_request_duration_seconds"] == nil {
		t.Error("fsroute_request_duration_seconds not collected")
	}
}

func TestLoggingOneLinePerRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	result, err := runLink(t, Logging(logger), newCtx(t, http.MethodGet, "/logged"), "ok", nil)
	if err != nil || result != "ok" {
		t.Fatalf("run = %v, %v, want %q, nil", result, err, "ok")
	}

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Errorf("logged %d lines, want 1:\n%s", strings.Count(out, "\n"), out)
	}
	for _, want := range []string{"method=GET", "path=/logged", "trace_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}

func TestLoggingError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	boom := errors.New("downstream failure")

	if _, err := runLink(t, Logging(logger), newCtx(t, http.MethodGet, "/x"), nil, boom); !errors.Is(err, boom) {
		t.Fatalf("run error = %v, want %v", err, boom)
	}
	out := buf.String()
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("failure not logged at error level: %s", out)
	}
	if !strings.Contains(out, "downstream failure") {
		t.Errorf("log line missing the error: %s", out)
	}
}

func TestVaryOriginMaterializesAndTags(t *testing.T) {
	result, err := runLink(t, VaryOrigin(), newCtx(t, http.MethodGet, "/cors"), "hello", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	resp, ok := result.(*response.Response)
	if !ok {
		t.Fatalf("run = %T, want *response.Response", result)
	}
	if string(resp.Body) != "hello" {
		t.Errorf("body = %q, want %q", resp.Body, "hello")
	}
	if got := resp.Header.Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want %q", got, "Origin")
	}
}

func TestOpenTelemetryPassesThrough(t *testing.T) {
	// No tracer provider is configured, so the global noop tracer is in
	// play; the downstream result must flow through untouched.
	result, err := runLink(t, OpenTelemetry(), newCtx(t, http.MethodGet, "/traced"), "ok", nil)
	if err != nil || result != "ok" {
		t.Errorf("run = %v, %v, want %q, nil", result, err, "ok")
	}
}

func TestOpenTelemetryFilterSkips(t *testing.T) {
	h := OpenTelemetry(WithRequestFilter(func(ctx *chain.Ctx) bool { return false }))
	result, err := runLink(t, h, newCtx(t, http.MethodGet, "/skipped"), "ok", nil)
	if err != nil || result != "ok" {
		t.Errorf("run = %v, %v, want %q, nil", result, err, "ok")
	}
}

func TestOpenTelemetryPropagatesError(t *testing.T) {
	boom := errors.New("downstream failure")
	if _, err := runLink(t, OpenTelemetry(), newCtx(t, http.MethodGet, "/x"), nil, boom); !errors.Is(err, boom) {
		t.Errorf("run error = %v, want %v", err, boom)
	}
}
