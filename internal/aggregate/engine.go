package aggregate

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/live"
	"github.com/tbourn/go-suggestion-box/internal/repo"
	"github.com/tbourn/go-suggestion-box/internal/store"
)

// Engine serves aggregates from a record store. With caching enabled the
// effective user list is memoized until the next write to users or
// suggestions; reads never invalidate it.
type Engine struct {
	st    *repo.Store
	cache bool

	mu    sync.Mutex
	gen   uint64
	users []domain.User
	valid bool
}

// NewEngine builds an engine over st and registers the invalidation hook.
func NewEngine(st *repo.Store, cache bool) *Engine {
	e := &Engine{st: st, cache: cache}
	st.OnWrite(e.observe)
	return e
}

func (e *Engine) observe(ev live.Event) {
	switch ev.Collection {
	case store.KeyUsers, store.KeySuggestions, "*":
		e.Invalidate()
	}
}

// Invalidate drops the cached user list.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.gen++
	e.valid = false
	e.users = nil
	e.mu.Unlock()
}

// Users returns the effective user list.
func (e *Engine) Users(ctx context.Context) ([]domain.User, error) {
	ctx, span := otel.Tracer("aggregate").Start(ctx, "Engine.Users")
	defer span.End()

	e.mu.Lock()
	if e.cache && e.valid {
		out := append([]domain.User(nil), e.users...)
		e.mu.Unlock()
		return out, nil
	}
	gen := e.gen
	e.mu.Unlock()

	stored, err := e.st.Users.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	suggestions, err := e.st.Suggestions.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	users := EffectiveUsers(stored, suggestions)

	if e.cache {
		e.mu.Lock()
		// a write landed while computing; leave the cache empty
		if e.gen == gen {
			e.users = append([]domain.User(nil), users...)
			e.valid = true
		}
		e.mu.Unlock()
	}
	return users, nil
}

func (e *Engine) current(ctx context.Context) (*domain.User, error) {
	u, ok, err := e.st.Session.Get(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// Analytics computes the report for f.
func (e *Engine) Analytics(ctx context.Context, f Filter) (Analytics, error) {
	ctx, span := otel.Tracer("aggregate").Start(ctx, "Engine.Analytics")
	defer span.End()

	suggestions, err := e.st.Suggestions.GetAll(ctx)
	if err != nil {
		return Analytics{}, err
	}
	users, err := e.Users(ctx)
	if err != nil {
		return Analytics{}, err
	}
	now := e.st.Now()
	return ComputeAnalytics(Apply(suggestions, f, now), users, now), nil
}

// Leaderboard builds the ranking page for the session user.
func (e *Engine) Leaderboard(ctx context.Context, opts LeaderboardOptions) (Leaderboard, error) {
	ctx, span := otel.Tracer("aggregate").Start(ctx, "Engine.Leaderboard")
	defer span.End()

	users, err := e.Users(ctx)
	if err != nil {
		return Leaderboard{}, err
	}
	suggestions, err := e.st.Suggestions.GetAll(ctx)
	if err != nil {
		return Leaderboard{}, err
	}
	cur, err := e.current(ctx)
	if err != nil {
		return Leaderboard{}, err
	}
	return BuildLeaderboard(users, suggestions, cur, opts), nil
}

// AdminKPIs computes review-queue indicators.
func (e *Engine) AdminKPIs(ctx context.Context) (AdminKPIs, error) {
	suggestions, err := e.st.Suggestions.GetAll(ctx)
	if err != nil {
		return AdminKPIs{}, err
	}
	return ComputeAdminKPIs(suggestions, e.st.Now()), nil
}

// Dashboard computes the headline counters.
func (e *Engine) Dashboard(ctx context.Context) (DashboardStats, error) {
	suggestions, err := e.st.Suggestions.GetAll(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	users, err := e.Users(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	cur, err := e.current(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	return ComputeDashboard(suggestions, users, cur), nil
}
