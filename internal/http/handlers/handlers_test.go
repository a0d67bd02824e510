package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suggestion-box/internal/aggregate"
	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/http/middleware"
	"github.com/tbourn/go-suggestion-box/internal/live"
	"github.com/tbourn/go-suggestion-box/internal/repo"
	"github.com/tbourn/go-suggestion-box/internal/services"
	"github.com/tbourn/go-suggestion-box/internal/store"
)

// ---------- test harness ----------

type harness struct {
	r      *gin.Engine
	st     *repo.Store
	svc    *services.Services
	broker *live.Broker
}

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// newHarness wires the real services over an initialized memory store and
// mounts every handler without rate limiting or admin guards.
func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	broker := live.NewBroker()
	st := repo.New(store.NewMemory(), repo.WithClock(func() time.Time { return testNow }), repo.WithBroker(broker))
	t.Cleanup(func() { broker.Close(); _ = st.Close() })
	if err := st.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	eng := aggregate.NewEngine(st, true)
	svc := services.New(st, eng, services.Options{Rand: rand.New(rand.NewSource(7))})

	h := New(Deps{
		Suggestions:   svc.Suggestions,
		Accounts:      svc.Accounts,
		Notifications: svc.Notifications,
		Settings:      svc.Settings,
		Insights:      eng,
		Records:       st,
		Events:        broker,
	}, Options{PollInterval: 1500 * time.Millisecond})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Session(st.Session.Get))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{},
		func(ctx context.Context, email, key string, now time.Time) (bool, error) {
			_, found, err := st.GetIdempotency(ctx, email, key, now)
			return found, err
		}))

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.GET("/session", h.GetSession)
	r.PATCH("/session", h.UpdateSession)
	r.GET("/users", h.ListUsers)
	r.PUT("/users/:email/role", h.SetUserRole)
	r.DELETE("/users", h.DeleteAllUsers)

	r.GET("/suggestions", h.ListSuggestions)
	r.POST("/suggestions", h.SubmitSuggestion)
	r.DELETE("/suggestions", h.DeleteAllSuggestions)
	r.GET("/suggestions/export.csv", h.ExportSuggestions)
	r.POST("/suggestions/bulk-status", h.BulkSetStatus)
	r.POST("/suggestions/recompute-sentiment", h.RecomputeSentiment)
	r.POST("/suggestions/seed", h.SeedDemo)
	r.GET("/suggestions/:id", h.GetSuggestion)
	r.PATCH("/suggestions/:id", h.UpdateSuggestion)
	r.DELETE("/suggestions/:id", h.DeleteSuggestion)
	r.POST("/suggestions/:id/vote", h.Vote)
	r.PUT("/suggestions/:id/status", h.SetStatus)
	r.GET("/suggestions/:id/similar", h.SimilarSuggestions)
	r.GET("/suggestions/:id/comments", h.ListComments)
	r.POST("/suggestions/:id/comments", h.CreateComment)
	r.DELETE("/comments/:id", h.DeleteComment)

	r.GET("/notifications", h.ListNotifications)
	r.GET("/notifications/unread-count", h.UnreadCount)
	r.POST("/notifications/read-all", h.MarkAllNotificationsRead)
	r.POST("/notifications/:id/read", h.MarkNotificationRead)
	r.GET("/settings", h.GetSettings)
	r.PATCH("/settings", h.UpdateSettings)

	r.GET("/leaderboard", h.Leaderboard)
	r.GET("/analytics", h.Analytics)
	r.GET("/analytics/export.csv", h.ExportAnalytics)
	r.GET("/dashboard", h.Dashboard)
	r.GET("/admin/kpis", h.AdminKPIs)
	r.GET("/meta", h.Meta)
	r.GET("/live", h.Live)
	r.POST("/reset", h.Reset)

	return &harness{r: r, st: st, svc: svc, broker: broker}
}

func (hs *harness) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	hs.r.ServeHTTP(w, req)
	return w
}

func (hs *harness) login(t *testing.T, email, password string) {
	t.Helper()
	w := hs.do(t, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, w.Code, w.Body.String())
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (%s)", v, err, w.Body.String())
	}
	return v
}

func wantCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status=%d want %d body=%s", w.Code, status, w.Body.String())
	}
	if code == "" {
		return
	}
	if got := decode[ErrorResponse](t, w); got.Code != code {
		t.Fatalf("code=%q want %q", got.Code, code)
	}
}

func submitInput(title string) services.SubmitInput {
	return services.SubmitInput{
		Title:    title,
		Problem:  "Forklifts queue at dock 3 every morning",
		Solution: "Stagger shift start by fifteen minutes",
		Category: "Process Improvement",
		Tags:     []string{"logistics"},
	}
}

func (hs *harness) submit(t *testing.T, title string) domain.Suggestion {
	t.Helper()
	w := hs.do(t, http.MethodPost, "/suggestions", submitInput(title))
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}
	return decode[domain.Suggestion](t, w)
}
