package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestKeyBySessionOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	c.Request = req

	if got := KeyBySessionOrIP()(c); got != "ip:203.0.113.9" {
		t.Fatalf("ip key=%q", got)
	}
	c.Set(ctxKeyUserID, "Alice@Company.com")
	if got := KeyBySessionOrIP()(c); got != "user:alice@company.com" {
		t.Fatalf("user key=%q", got)
	}
}

func TestRateLimiter_ReuseAndSweep(t *testing.T) {
	rl := NewRateLimiter(2, 0, KeyBySessionOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst=%d", rl.burst)
	}
	lim := rl.limiter("k1")
	if rl.limiter("k1") != lim {
		t.Fatal("limiter not reused")
	}

	rl.mu.Lock()
	rl.ttl = time.Nanosecond
	rl.visitors["old"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)}
	rl.lookups = 4999
	rl.mu.Unlock()

	rl.limiter("new")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["old"]; ok {
		t.Fatal("stale visitor not swept")
	}
	if _, ok := rl.visitors["new"]; !ok {
		t.Fatal("new visitor missing")
	}
	if rl.lookups != 0 {
		t.Fatalf("lookups=%d", rl.lookups)
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.0001, 1, KeyBySessionOrIP(), "/health")
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Replay") != "" {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	}, rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(path string, replay bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "198.51.100.7:1000"
		if replay {
			req.Header.Set("X-Replay", "1")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := do("/x", false); w.Code != http.StatusOK {
		t.Fatalf("first=%d", w.Code)
	}
	w := do("/x", false)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("second=%d retry=%q", w.Code, w.Header().Get("Retry-After"))
	}
	if w := do("/x", true); w.Code != http.StatusOK {
		t.Fatalf("bypass=%d", w.Code)
	}
	for i := 0; i < 3; i++ {
		if w := do("/health", false); w.Code != http.StatusOK {
			t.Fatalf("skipped route=%d", w.Code)
		}
	}
}
