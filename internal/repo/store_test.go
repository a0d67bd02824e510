package repo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/live"
	"github.com/tbourn/go-suggestion-box/internal/store"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func newTestStore(t *testing.T, opts ...Option) (*Store, *fixedClock) {
	t.Helper()
	clk := &fixedClock{t: time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)}
	st := New(store.NewMemory(), append([]Option{WithClock(clk.now)}, opts...)...)
	t.Cleanup(func() { _ = st.Close() })
	return st, clk
}

func TestNewID_Format(t *testing.T) {
	re := regexp.MustCompile(`^suggestion_\d+_[0-9a-z]{9}$`)
	seen := map[string]bool{}
	for i := 0; i < 2000; i++ {
		id := NewID(PrefixSuggestion)
		if !re.MatchString(id) {
			t.Fatalf("bad id %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestCollection_CRUD(t *testing.T) {
	st, clk := newTestStore(t)
	ctx := context.Background()

	all, err := st.Suggestions.GetAll(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("empty GetAll = %v, %v", all, err)
	}

	s, err := st.Suggestions.Create(ctx, domain.Suggestion{Title: "A"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID == "" || !s.CreatedAt.Equal(clk.t) || s.VotedBy == nil || s.Tags == nil {
		t.Fatalf("create did not stamp: %+v", s)
	}

	clk.t = clk.t.Add(time.Hour)
	up, ok, err := st.Suggestions.Update(ctx, s.ID, func(x *domain.Suggestion) { x.Title = "B" })
	if err != nil || !ok {
		t.Fatalf("Update = %v, %v", ok, err)
	}
	if up.Title != "B" || !up.UpdatedAt.Equal(clk.t) || !up.CreatedAt.Equal(s.CreatedAt) {
		t.Fatalf("update result %+v", up)
	}

	if _, ok, err := st.Suggestions.Update(ctx, "missing", func(*domain.Suggestion) {}); ok || err != nil {
		t.Fatalf("update missing = %v, %v", ok, err)
	}

	got, ok, _ := st.Suggestions.GetByID(ctx, s.ID)
	if !ok || got.Title != "B" {
		t.Fatalf("GetByID = %+v %v", got, ok)
	}

	if ok, _ := st.Suggestions.Delete(ctx, "missing"); ok {
		t.Fatalf("delete missing reported true")
	}
	if ok, _ := st.Suggestions.Delete(ctx, s.ID); !ok {
		t.Fatalf("delete existing reported false")
	}
}

func TestCollection_UpdatedAtNeverBeforeCreatedAt(t *testing.T) {
	st, clk := newTestStore(t)
	ctx := context.Background()
	s, _ := st.Suggestions.Create(ctx, domain.Suggestion{Title: "A"})
	clk.t = clk.t.Add(-time.Hour) // clock skew
	up, _, _ := st.Suggestions.Update(ctx, s.ID, func(*domain.Suggestion) {})
	if up.UpdatedAt.Before(up.CreatedAt) {
		t.Fatalf("updatedAt %v before createdAt %v", up.UpdatedAt, up.CreatedAt)
	}
}

func TestCollection_ReplaceAndDeleteAll(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	if err := st.Comments.ReplaceAll(ctx, []domain.Comment{{ID: "c1"}, {ID: "c2"}}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	n, err := st.Comments.DeleteAll(ctx)
	if err != nil || n != 2 {
		t.Fatalf("DeleteAll = %d, %v", n, err)
	}
	all, _ := st.Comments.GetAll(ctx)
	if len(all) != 0 {
		t.Fatalf("collection not empty: %v", all)
	}
}

func TestCollection_MutateSkipsWriteWhenUnchanged(t *testing.T) {
	var events []live.Event
	st, _ := newTestStore(t, WithWriteHook(func(ev live.Event) { events = append(events, ev) }))
	ctx := context.Background()
	err := st.Users.Mutate(ctx, func(items []domain.User, _ time.Time) ([]domain.User, bool, error) {
		return items, false, nil
	})
	if err != nil || len(events) != 0 {
		t.Fatalf("Mutate unchanged = %v, events %v", err, events)
	}
	boom := errors.New("boom")
	if err := st.Users.Mutate(ctx, func(items []domain.User, _ time.Time) ([]domain.User, bool, error) {
		return nil, true, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("Mutate err = %v", err)
	}
}

func TestStore_WriteHookPublishes(t *testing.T) {
	b := live.NewBroker()
	ch, cancel := b.Subscribe(8)
	defer cancel()
	st, _ := newTestStore(t, WithBroker(b))

	c, _ := st.Comments.Create(context.Background(), domain.Comment{Content: "hi"})
	ev := <-ch
	if ev.Collection != store.KeyComments || ev.Action != live.ActionCreate || ev.ID != c.ID {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestStore_InitializeOnlyFillsAbsentKeys(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	if err := st.Users.ReplaceAll(ctx, []domain.User{{ID: "u", Email: "x@y.z"}}); err != nil {
		t.Fatalf("seed users: %v", err)
	}
	if err := st.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	users, _ := st.Users.GetAll(ctx)
	if len(users) != 1 || users[0].Email != "x@y.z" {
		t.Fatalf("existing users overwritten: %+v", users)
	}
	sugs, _ := st.Suggestions.GetAll(ctx)
	if len(sugs) != 3 || sugs[0].ID != "1" || sugs[2].Status != domain.StatusImplemented {
		t.Fatalf("default suggestions = %+v", sugs)
	}
	set, _ := st.Settings.Get(ctx)
	if set != domain.DefaultSettings() {
		t.Fatalf("settings = %+v", set)
	}
}

func TestStore_FullReset(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	_ = st.Initialize(ctx)
	_ = st.Session.Set(ctx, DefaultUsers()[0])

	if err := st.FullReset(ctx); err != nil {
		t.Fatalf("FullReset: %v", err)
	}
	if _, ok, _ := st.Session.Get(ctx); ok {
		t.Fatalf("session survived reset")
	}
	users, _ := st.Users.GetAll(ctx)
	if len(users) != 0 {
		t.Fatalf("users survived reset: %v", users)
	}
}

func TestSession(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := st.Session.Update(ctx, func(*domain.User) {}); !errors.Is(err, ErrNoCurrentUser) {
		t.Fatalf("update without session err = %v", err)
	}

	if err := st.Session.Set(ctx, domain.User{ID: "u1", Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	u, ok, _ := st.Session.Get(ctx)
	if !ok || u.Password != "" {
		t.Fatalf("session = %+v ok=%v", u, ok)
	}
	u, err := st.Session.Update(ctx, func(u *domain.User) { u.Points += 5 })
	if err != nil || u.Points != 5 {
		t.Fatalf("Update = %+v %v", u, err)
	}
	_ = st.Session.Clear(ctx)
	if _, ok, _ := st.Session.Get(ctx); ok {
		t.Fatalf("session not cleared")
	}
}

func TestSettings_UpdateMerges(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	s, err := st.Settings.Update(ctx, func(s *domain.Settings) { s.Theme = domain.ThemeDark })
	if err != nil || s.Theme != domain.ThemeDark || !s.Notifications || s.Language != "en" {
		t.Fatalf("Update = %+v %v", s, err)
	}
}

func TestIdempotency(t *testing.T) {
	st, clk := newTestStore(t)
	ctx := context.Background()

	rec, err := st.CreateIdempotency(ctx, "a@b.c", "k1", "s1", time.Minute)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := st.CreateIdempotency(ctx, "a@b.c", "k1", "s2", time.Minute); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate err = %v", err)
	}
	got, ok, _ := st.GetIdempotency(ctx, "a@b.c", "k1", clk.t)
	if !ok || got.SuggestionID != rec.SuggestionID {
		t.Fatalf("Get = %+v %v", got, ok)
	}
	if _, ok, _ := st.GetIdempotency(ctx, "other@b.c", "k1", clk.t); ok {
		t.Fatalf("key leaked across users")
	}

	clk.t = clk.t.Add(2 * time.Minute)
	if _, ok, _ := st.GetIdempotency(ctx, "a@b.c", "k1", clk.t); ok {
		t.Fatalf("expired record returned")
	}
	n, err := st.PurgeExpiredIdempotency(ctx)
	if err != nil || n != 1 {
		t.Fatalf("purge = %d %v", n, err)
	}
}

func TestSuggestionsStats(t *testing.T) {
	st, clk := newTestStore(t)
	ctx := context.Background()
	if n, ts, err := st.SuggestionsStats(ctx); n != 0 || ts != nil || err != nil {
		t.Fatalf("empty stats = %d %v %v", n, ts, err)
	}
	a, _ := st.Suggestions.Create(ctx, domain.Suggestion{})
	clk.t = clk.t.Add(time.Minute)
	_, _ = st.Suggestions.Create(ctx, domain.Suggestion{})
	clk.t = clk.t.Add(time.Minute)
	_, _, _ = st.Suggestions.Update(ctx, a.ID, func(*domain.Suggestion) {})

	n, ts, err := st.SuggestionsStats(ctx)
	if err != nil || n != 2 || ts == nil || !ts.Equal(clk.t) {
		t.Fatalf("stats = %d %v %v", n, ts, err)
	}
}
