package observability

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/querybot/querybot/internal/config"
)

func TestTraceMiddlewarePreservesIncomingTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := TraceIDFromContext(r.Context()); got != "trace-1" {
			t.Fatalf("TraceIDFromContext() = %q", got)
		}
		if got := SessionIDFromContext(r.Context()); got != "session-1" {
			t.Fatalf("SessionIDFromContext() = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	req.Header.Set(traceHeader, "trace-1")
	req.Header.Set(SessionHeader, "session-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(traceHeader); got != "trace-1" {
		t.Fatalf("trace header = %q", got)
	}
}

func TestTraceMiddlewareGeneratesTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TraceIDFromContext(r.Context()) == "" {
			t.Fatal("expected generated trace id")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rr.Header().Get(traceHeader) == "" {
		t.Fatal("expected X-Trace-ID header")
	}
}

func TestTraceIDContextHelpers(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "abc123")
	if got := TraceIDFromContext(ctx); got != "abc123" {
		t.Fatalf("TraceIDFromContext() = %q", got)
	}
	if got := SessionIDFromContext(ctx); got != "" {
		t.Fatalf("SessionIDFromContext() = %q", got)
	}
}

func TestLoggingMiddlewareWritesRequestLine(t *testing.T) {
	cfg, err := config.Load("querybot-test", func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	var buf bytes.Buffer
	logger := NewLogger(cfg, &buf)

	h := TraceMiddleware(LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})))
	req := httptest.NewRequest(http.MethodPost, "/v1/run", nil)
	req.Header.Set("X-Trace-ID", "trace-7")
	req.Header.Set(SessionHeader, "session-9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	for _, want := range []string{
		`"msg":"http_request"`,
		`"status":202`,
		`"service":"querybot-test"`,
		`"db_driver":"sqlite"`,
		`"trace_id":"trace-7"`,
		`"session_id":"session-9"`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %s", line, want)
		}
	}
}

func TestLoggerStampsContextIDs(t *testing.T) {
	cfg, err := config.Load("querybot-test", func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	var buf bytes.Buffer
	logger := NewLogger(cfg, &buf).WithGroup("guard")

	logger.Info("no context")
	if strings.Contains(buf.String(), "trace_id") {
		t.Fatalf("unexpected trace id without context: %s", buf.String())
	}

	buf.Reset()
	ctx := ContextWithSessionID(ContextWithTraceID(context.Background(), "t-1"), "s-1")
	logger.InfoContext(ctx, "statement executed", "rows", 2)
	line := buf.String()
	for _, want := range []string{`"trace_id":"t-1"`, `"session_id":"s-1"`, `"rows":2`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %s", line, want)
		}
	}
}

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/schema/tables/{table}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "GET /v1/schema/tables/{table}", "418")
	before := testutil.ToFloat64(counter)

	rr := httptest.NewRecorder()
	MetricsMiddleware(mux).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/schema/tables/orders", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Fatalf("requests counted under route pattern = %v, want 1", got)
	}
	if got := testutil.ToFloat64(httpRequestsInFlight); got != 0 {
		t.Fatalf("in-flight gauge = %v after request, want 0", got)
	}
}
