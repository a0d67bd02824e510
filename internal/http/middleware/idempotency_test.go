package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

type idemResult struct {
	key    string
	has    bool
	replay bool
	bypass bool
}

func newIdemRouter(loggedIn bool, opts IdempotencyOptions, lookup IdempotencyLookup) (*gin.Engine, *idemResult) {
	gin.SetMode(gin.TestMode)
	res := &idemResult{}
	r := gin.New()
	r.Use(Session(fixedSession(domain.User{Email: "alice@company.com"}, loggedIn, nil)))
	r.Use(IdempotencyValidator(opts, lookup))
	r.POST("/suggestions", func(c *gin.Context) {
		res.key, res.has = GetIdempotencyKey(c)
		res.replay = IsReplay(c)
		res.bypass = IsRateBypass(c)
		c.Status(http.StatusCreated)
	})
	return r, res
}

func postWithKey(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/suggestions", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_NoHeaderPassesThrough(t *testing.T) {
	r, res := newIdemRouter(true, IdempotencyOptions{}, nil)
	if w := postWithKey(r, ""); w.Code != http.StatusCreated {
		t.Fatalf("status=%d", w.Code)
	}
	if res.has || res.replay {
		t.Fatalf("unexpected %+v", res)
	}
}

func TestIdempotency_RejectsMalformedKeys(t *testing.T) {
	r, _ := newIdemRouter(true, IdempotencyOptions{MaxLen: 16}, nil)
	for _, key := range []string{"has space", "waytoolongkeyxxxx", "semi;colon"} {
		w := postWithKey(r, key)
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("key %q: status=%d body=%s", key, w.Code, w.Body.String())
		}
	}

	r2, _ := newIdemRouter(true, IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, nil)
	if w := postWithKey(r2, "abc"); w.Code != http.StatusBadRequest {
		t.Fatalf("custom pattern not applied: %d", w.Code)
	}
}

func TestIdempotency_ReplayFlagsRequest(t *testing.T) {
	var gotEmail, gotKey string
	lookup := func(_ context.Context, email, key string, now time.Time) (bool, error) {
		gotEmail, gotKey = email, key
		if now.IsZero() {
			t.Fatal("zero now")
		}
		return true, nil
	}
	r, res := newIdemRouter(true, IdempotencyOptions{}, lookup)
	postWithKey(r, "k-1")

	if gotEmail != "alice@company.com" || gotKey != "k-1" {
		t.Fatalf("lookup args %q %q", gotEmail, gotKey)
	}
	if !res.has || res.key != "k-1" || !res.replay || !res.bypass {
		t.Fatalf("flags %+v", res)
	}
}

func TestIdempotency_AnonymousSkipsLookup(t *testing.T) {
	called := false
	lookup := func(context.Context, string, string, time.Time) (bool, error) {
		called = true
		return true, nil
	}
	r, res := newIdemRouter(false, IdempotencyOptions{}, lookup)
	postWithKey(r, "k-1")
	if called || res.replay || !res.has {
		t.Fatalf("called=%v res=%+v", called, res)
	}
}
