// internal/middleware/middleware_test.go
//
// Run: go test ./internal/middleware -v

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/yanizio/leadflow/internal/logger"
)

func TestForceHTTPS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := ForceHTTPS(true, ok)

	cases := []struct {
		host, proto string
		want        int
	}{
		{"leads.example.com", "", http.StatusPermanentRedirect},
		{"leads.example.com", "https", http.StatusNoContent},
		{"localhost:8080", "", http.StatusNoContent},
		{"[::1]:8080", "", http.StatusNoContent},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodGet, "http://"+c.host+"/api/leads?niche=Health", nil)
		r.Host = c.host
		if c.proto != "" {
			r.Header.Set("X-Forwarded-Proto", c.proto)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != c.want {
			t.Errorf("%s proto=%q: code %d, want %d", c.host, c.proto, w.Code, c.want)
		}
		if c.want == http.StatusPermanentRedirect {
			if loc := w.Header().Get("Location"); loc != "https://leads.example.com/api/leads?niche=Health" {
				t.Errorf("Location = %q", loc)
			}
		}
	}

	if got := ForceHTTPS(false, ok); got == nil {
		t.Fatal("disabled wrapper must return the handler")
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := Security(true)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		_, _ = w.Write([]byte("ok"))
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("missing HSTS")
	}
	if w.Header().Get("X-Frame-Options") != "SAMEORIGIN" {
		t.Error("handler override should win")
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing CSP")
	}

	w = httptest.NewRecorder()
	Security(false)(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must be off without forceHTTPS")
	}
}

func TestRequestLogger_RequestID(t *testing.T) {
	var seen *zap.SugaredLogger
	var ctx context.Context
	h := RequestLogger(zap.NewNop().Sugar())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
		seen = logger.FromContext(ctx)
		w.WriteHeader(http.StatusTeapot)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Header().Get(HeaderRequestID) != "abc-123" {
		t.Errorf("request id not echoed: %q", w.Header().Get(HeaderRequestID))
	}
	if seen == nil || seen == zap.S() {
		t.Error("handler should receive a request-scoped logger")
	}
	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(w.Header().Get(HeaderRequestID)) != 36 {
		t.Errorf("expected generated uuid, got %q", w.Header().Get(HeaderRequestID))
	}
}
