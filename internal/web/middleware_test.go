package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/orbitpay/ledgerlink/internal/web"
	"go.uber.org/zap"
)

func newRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware...)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})
	return router
}

func get(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	// Burst of 2: third request from the same IP must be rejected.
	router := newRouter(web.RateLimiter(web.RateLimitConfig{RPS: 1, Burst: 2}, zap.NewNop()))

	for i := 0; i < 2; i++ {
		if w := get(router, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, w.Code)
		}
	}

	w := get(router, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header on 429")
	}
}

func TestRateLimiter_defaultBurst(t *testing.T) {
	// Zero burst falls back to 2×RPS.
	router := newRouter(web.RateLimiter(web.RateLimitConfig{RPS: 1}, zap.NewNop()))

	for i := 0; i < 2; i++ {
		if w := get(router, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, w.Code)
		}
	}
	if w := get(router, nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	router := newRouter(web.SecurityHeaders())

	w := get(router, nil)
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options: got %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options: got %q", got)
	}
}

func TestInternalToken(t *testing.T) {
	router := newRouter(web.InternalToken("s3cret"))

	if w := get(router, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", w.Code)
	}
	if w := get(router, map[string]string{"X-Internal-Token": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: got %d, want 401", w.Code)
	}
	if w := get(router, map[string]string{"X-Internal-Token": "s3cret"}); w.Code != http.StatusOK {
		t.Errorf("valid token: got %d, want 200", w.Code)
	}

	// Empty token disables the gate entirely.
	open := newRouter(web.InternalToken(""))
	if w := get(open, nil); w.Code != http.StatusOK {
		t.Errorf("disabled gate: got %d, want 200", w.Code)
	}
}
