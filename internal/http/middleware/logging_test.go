package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLogs redirects the global logger for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestRequestID_ReuseOrGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestIDHeader, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "rid-1" || w.Header().Get(requestIDHeader) != "rid-1" {
		t.Fatalf("propagation failed: %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if len(w.Body.String()) != 36 {
		t.Fatalf("expected uuid, got %q", w.Body.String())
	}
}

func TestLogger_LevelsAndFields(t *testing.T) {
	buf := captureLogs(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/ok", func(c *gin.Context) {
		c.Set(ctxKeyUserID, "alice@company.com")
		LoggerFrom(c).Info().Msg("inside")
		c.Status(http.StatusOK)
	})
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, p := range []string{"/ok", "/missing", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	var levels []string
	var sawUser, sawInside bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q", line)
		}
		if m["message"] == "inside" {
			sawInside = m["request_id"] != ""
			continue
		}
		levels = append(levels, m["level"].(string))
		if m["user_email"] == "alice@company.com" {
			sawUser = true
		}
	}
	if strings.Join(levels, ",") != "info,warn,error" {
		t.Fatalf("levels=%v", levels)
	}
	if !sawUser || !sawInside {
		t.Fatalf("user=%v inside=%v", sawUser, sawInside)
	}
}

func TestRecovery_JSON500(t *testing.T) {
	captureLogs(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(requestIDHeader, "rid-p")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["request_id"] != "rid-p" || body["code"] != "internal_error" {
		t.Fatalf("body=%v", body)
	}
}

func TestTruncate(t *testing.T) {
	if truncate("abc", 0) != "abc" || truncate("abc", 5) != "abc" {
		t.Fatal("no-op cases")
	}
	if got := truncate("abcdef", 3); got != "abc…" {
		t.Fatalf("got %q", got)
	}
}
