package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders(SecurityOptions{
		EnableHSTS:      true,
		HSTSMaxAge:      time.Hour,
		EnablePolicy:    true,
		NoStorePrefixes: []string{"/api/v1/session"},
	}))
	r.GET("/api/v1/session", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/meta", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.TLS = &tls.ConnectionState{}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	h := w.Header()
	checks := map[string]string{
		"X-Content-Type-Options":        "nosniff",
		"X-Frame-Options":               "DENY",
		"Referrer-Policy":               "no-referrer",
		"Cache-Control":                 "no-store",
		"Strict-Transport-Security":     "max-age=3600; includeSubDomains; preload",
		"Access-Control-Expose-Headers": "X-Request-ID",
	}
	for k, want := range checks {
		if got := h.Get(k); got != want {
			t.Errorf("%s=%q want %q", k, got, want)
		}
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/meta", nil))
	if w.Header().Get("Cache-Control") != "" {
		t.Fatal("no-store applied outside prefix")
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS on plain HTTP")
	}
}

func TestExposeHeader_NoDuplicates(t *testing.T) {
	h := http.Header{}
	exposeHeader(h, "X-Request-ID")
	exposeHeader(h, "ETag")
	exposeHeader(h, "x-request-id")
	if got := h.Get("Access-Control-Expose-Headers"); got != "X-Request-ID, ETag" {
		t.Fatalf("got %q", got)
	}
}
