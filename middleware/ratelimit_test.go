package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func rateLimitedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/messages", Identity(), RateLimit(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func TestRateLimitBlocksAfterCapacity(t *testing.T) {
	SetRateLimitConfig(time.Minute, 3)
	defer SetRateLimitConfig(10*time.Second, 20)

	r := rateLimitedRouter()

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/messages", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/messages", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after capacity, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimitKeysByIP(t *testing.T) {
	SetRateLimitConfig(time.Minute, 1)
	defer SetRateLimitConfig(10*time.Second, 20)

	r := rateLimitedRouter()

	for i, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/messages", nil)
		req.RemoteAddr = addr
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("sender %d should have its own bucket, got %d", i, w.Code)
		}
	}
}
