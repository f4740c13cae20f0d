package uistatic

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func TestHandlerServesEmbeddedConsole(t *testing.T) {
	handler := Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Supply Chain Query Bot") {
		t.Fatalf("GET / body missing console title")
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "/v1/generate") {
		t.Fatalf("GET /app.js status = %d", rr.Code)
	}
}

func TestHandlerFallsBackToIndex(t *testing.T) {
	assets := fstest.MapFS{
		"index.html":    {Data: []byte("<html>console</html>")},
		"assets/a.css":  {Data: []byte("body{}")},
		"assets/nested": {Mode: fs.ModeDir | 0o755},
	}
	handler := newHandler(assets)

	for _, target := range []string{"/history", "/assets/nested", "/../etc/passwd"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		if rr.Code != http.StatusOK || rr.Body.String() != "<html>console</html>" {
			t.Fatalf("GET %s = %d %q, want index", target, rr.Code, rr.Body.String())
		}
		if got := rr.Header().Get("Cache-Control"); got != "no-cache" {
			t.Fatalf("GET %s Cache-Control = %q", target, got)
		}
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/assets/a.css", nil))
	if rr.Body.String() != "body{}" {
		t.Fatalf("GET /assets/a.css body = %q", rr.Body.String())
	}
}

func TestHandlerWithoutIndex(t *testing.T) {
	handler := newHandler(fstest.MapFS{})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
