package querybotctl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRunHealthCommand(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "health"}, Options{
		Stdout:  &stdout,
		Stderr:  &stderr,
		Timeout: 2 * time.Second,
	})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if gotMethod != http.MethodGet || gotPath != "/v1/health" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if !strings.Contains(stdout.String(), `"status": "ok"`) {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunCreatesSessionWhenMissing(t *testing.T) {
	var requests []string
	var gotSession string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/v1/sessions":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"session_id":"s-1"}`))
		case "/v1/run":
			gotSession = r.Header.Get("X-Session-ID")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_, _ = w.Write([]byte(`{"status":"ok","rows":null}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "run", "-confirm", "-limit", "5", "DELETE", "FROM", "orders"}, Options{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if strings.Join(requests, ",") != "POST /v1/sessions,POST /v1/run" {
		t.Fatalf("requests = %v", requests)
	}
	if gotSession != "s-1" {
		t.Fatalf("X-Session-ID = %q", gotSession)
	}
	if gotBody["sql"] != "DELETE FROM orders" || gotBody["confirm"] != true || gotBody["limit"] != float64(5) {
		t.Fatalf("body = %#v", gotBody)
	}
	if !strings.Contains(stderr.String(), "session: s-1") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunUsesGivenSession(t *testing.T) {
	var paths []string
	var gotSession string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		gotSession = r.Header.Get("X-Session-ID")
		_, _ = w.Write([]byte(`{"entries":[]}`))
	}))
	defer srv.Close()

	code := Run(context.Background(), []string{"-base-url", srv.URL, "-session", "s-9", "history"}, Options{})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if len(paths) != 1 || paths[0] != "/v1/history" {
		t.Fatalf("paths = %v", paths)
	}
	if gotSession != "s-9" {
		t.Fatalf("X-Session-ID = %q", gotSession)
	}
}

func TestRunReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error_code":"CONFIRMATION_REQUIRED"}`))
	}))
	defer srv.Close()

	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "-session", "s", "run", "DELETE FROM orders"}, Options{Stderr: &stderr})
	if code != 1 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stderr.String(), "http 409") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"drop-everything"}, Options{Stderr: &stderr})
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stderr.String(), "unknown command") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunValidatesArguments(t *testing.T) {
	for _, args := range [][]string{{"generate"}, {"describe"}, {"run"}, {"classify"}} {
		if code := Run(context.Background(), args, Options{}); code != 2 {
			t.Fatalf("Run(%v) exit code = %d", args, code)
		}
	}
}
