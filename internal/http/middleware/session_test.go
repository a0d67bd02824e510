package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

func fixedSession(u domain.User, ok bool, err error) SessionLoader {
	return func(context.Context) (domain.User, bool, error) { return u, ok, err }
}

func newSessionRouter(load SessionLoader, guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Session(load))
	r.GET("/x", guard, func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"email": u.Email, "key": sessionEmail(c)})
	})
	return r
}

func TestSession_StashesUser(t *testing.T) {
	u := domain.User{Email: "alice@company.com", Role: domain.RoleUser}
	r := newSessionRouter(fixedSession(u, true, nil), func(c *gin.Context) { c.Next() })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["email"] != u.Email || body["key"] != u.Email {
		t.Fatalf("body=%v", body)
	}
}

func TestSession_LoaderErrorContinuesAnonymously(t *testing.T) {
	r := newSessionRouter(fixedSession(domain.User{}, false, errors.New("boom")), RequireSession())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "unauthorized" || body["request_id"] == "" {
		t.Fatalf("body=%v", body)
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name string
		user domain.User
		ok   bool
		want int
	}{
		{"anonymous", domain.User{}, false, http.StatusUnauthorized},
		{"user", domain.User{Email: "u@c.com", Role: domain.RoleUser}, true, http.StatusForbidden},
		{"admin", domain.User{Email: "a@c.com", Role: domain.RoleAdmin}, true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newSessionRouter(fixedSession(tt.user, tt.ok, nil), RequireAdmin())
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
			if w.Code != tt.want {
				t.Fatalf("status=%d want %d", w.Code, tt.want)
			}
		})
	}
}
