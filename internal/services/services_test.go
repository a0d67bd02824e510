package services

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/tbourn/go-suggestion-box/internal/aggregate"
	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/repo"
	"github.com/tbourn/go-suggestion-box/internal/store"
)

// ---------- test helpers ----------

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestServices(t *testing.T) (*Services, *repo.Store, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	st := repo.New(store.NewMemory(), repo.WithClock(clk.now))
	t.Cleanup(func() { _ = st.Close() })
	eng := aggregate.NewEngine(st, true)
	return New(st, eng, Options{Rand: rand.New(rand.NewSource(1))}), st, clk
}

func loginAs(t *testing.T, st *repo.Store, u domain.User) {
	t.Helper()
	if err := st.Session.Set(context.Background(), u); err != nil {
		t.Fatalf("session set: %v", err)
	}
}

func mustCreate(t *testing.T, st *repo.Store, s domain.Suggestion) domain.Suggestion {
	t.Helper()
	out, err := st.Suggestions.Create(context.Background(), s)
	if err != nil {
		t.Fatalf("create suggestion: %v", err)
	}
	return out
}

func mustStoreUser(t *testing.T, st *repo.Store, u domain.User) {
	t.Helper()
	if _, err := st.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
}

var (
	alice = domain.User{ID: "user_a", Name: "Alice", Email: "alice@x.com", Department: "Logistics", Role: domain.RoleUser}
	bob   = domain.User{ID: "user_b", Name: "Bob", Email: "bob@x.com", Department: "Marketing", Role: domain.RoleUser}
)

func aliceSuggestion() domain.Suggestion {
	return domain.Suggestion{
		Title:    "Better badges",
		Problem:  "Badges fail to scan",
		Solution: "Replace readers",
		Category: "Technology",
		Author:   alice.AuthorSnapshot(),
		Status:   domain.StatusPending,
	}
}

func notificationsFor(t *testing.T, svc *Services, who string) []domain.Notification {
	t.Helper()
	ns, err := svc.Notifications.ListFor(context.Background(), who)
	if err != nil {
		t.Fatalf("ListFor: %v", err)
	}
	return ns
}
