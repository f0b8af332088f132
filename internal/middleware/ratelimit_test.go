package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/BurnLink/internal/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestWithRateLimit_OverLimit(t *testing.T) {
	limit := middleware.WithRateLimit(2, time.Minute, middleware.NewMemoryCounter(), zap.NewNop())
	h := limit(okHandler())

	for i := 1; i <= 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/token", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d; want %d", i, w.Code, http.StatusOK)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/token", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d; want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestWithRateLimit_PerClient(t *testing.T) {
	limit := middleware.WithRateLimit(1, time.Minute, middleware.NewMemoryCounter(), zap.NewNop())
	h := limit(okHandler())

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/token", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("first request from %s: status = %d; want %d", addr, w.Code, http.StatusOK)
		}
	}
}

func TestWithRateLimit_Disabled(t *testing.T) {
	limit := middleware.WithRateLimit(0, time.Minute, middleware.NewMemoryCounter(), zap.NewNop())
	h := limit(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/token", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
		}
	}
}

func TestMemoryCounter_WindowReset(t *testing.T) {
	c := middleware.NewMemoryCounter()
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	for i := int64(1); i <= 3; i++ {
		n, err := c.Incr(ctx, "k", 20*time.Millisecond)
		if err != nil {
			t.Fatalf("Incr: %v", err)
		}
		if n != i {
			t.Errorf("count = %d; want %d", n, i)
		}
	}

	time.Sleep(30 * time.Millisecond)
	n, err := c.Incr(ctx, "k", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Incr: %v", err)
	}
	if n != 1 {
		t.Errorf("count after window reset = %d; want 1", n)
	}
}
