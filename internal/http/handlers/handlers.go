// Package handlers is the HTTP transport of the suggestion box.
//
// Handlers are transport-thin: they parse input, read the session user
// stashed by middleware.Session, call a service and translate the result
// (or error) into a response. Service contracts are declared here as
// interfaces so handler tests can run against the real services over an
// in-memory store or against fakes.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suggestion-box/internal/aggregate"
	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/http/middleware"
	"github.com/tbourn/go-suggestion-box/internal/live"
	"github.com/tbourn/go-suggestion-box/internal/services"
	"github.com/tbourn/go-suggestion-box/internal/utils"
)

//
// Service contracts (context-aware)
//

// SuggestionService is the suggestion lifecycle consumed by the handlers.
type SuggestionService interface {
	Submit(ctx context.Context, in services.SubmitInput, idemKey string) (domain.Suggestion, bool, error)
	Get(ctx context.Context, id string) (domain.Suggestion, error)
	List(ctx context.Context, q services.ListQuery) ([]domain.Suggestion, int, error)
	Update(ctx context.Context, id string, p services.SuggestionPatch) (domain.Suggestion, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteAll(ctx context.Context) (int, error)
	Vote(ctx context.Context, id, voter string) (services.VoteResult, error)
	Comment(ctx context.Context, id string, author domain.Author, content string) (domain.Comment, error)
	ListComments(ctx context.Context, id string) ([]domain.Comment, error)
	DeleteComment(ctx context.Context, commentID string) (bool, error)
	SetStatus(ctx context.Context, id string, status domain.Status, remark string) (domain.Suggestion, error)
	BulkSetStatus(ctx context.Context, ids []string, status domain.Status) (int, error)
	RecomputeSentiments(ctx context.Context) (int, error)
	SeedDemo(ctx context.Context, n int) (int, error)
	SimilarTo(ctx context.Context, id string, k int) ([]services.Similar, error)
}

// AccountService covers registration, login and the session profile.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.User, error)
	Logout(ctx context.Context) error
	UpdateCurrent(ctx context.Context, p services.ProfilePatch) (domain.User, error)
	SetRole(ctx context.Context, email, role string) (domain.User, error)
	DeleteAllUsers(ctx context.Context) (int, error)
	Users(ctx context.Context) ([]domain.User, error)
}

// NotificationService is the per-user notification inbox.
type NotificationService interface {
	ListFor(ctx context.Context, recipient string) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, recipient string) (int, error)
	MarkRead(ctx context.Context, id string) (bool, error)
	MarkAllRead(ctx context.Context, recipient string) (int, error)
}

// SettingsService reads and patches the preferences singleton.
type SettingsService interface {
	Get(ctx context.Context) (domain.Settings, error)
	Update(ctx context.Context, p services.SettingsPatch) (domain.Settings, error)
}

// Insights is the read-only aggregation surface.
type Insights interface {
	Analytics(ctx context.Context, f aggregate.Filter) (aggregate.Analytics, error)
	Leaderboard(ctx context.Context, opts aggregate.LeaderboardOptions) (aggregate.Leaderboard, error)
	AdminKPIs(ctx context.Context) (aggregate.AdminKPIs, error)
	Dashboard(ctx context.Context) (aggregate.DashboardStats, error)
}

// Records exposes the store-level operations that have no service.
type Records interface {
	SuggestionsStats(ctx context.Context) (int, *time.Time, error)
	FullReset(ctx context.Context) error
	Now() time.Time
}

// Subscriber is the write-event feed behind the live endpoint.
type Subscriber interface {
	Subscribe(buffer int) (<-chan live.Event, func())
}

//
// Handler wiring
//

// Deps are the collaborators of Handlers.
type Deps struct {
	Suggestions   SuggestionService
	Accounts      AccountService
	Notifications NotificationService
	Settings      SettingsService
	Insights      Insights
	Records       Records
	Events        Subscriber
}

// Options tunes transport behavior.
type Options struct {
	// PollInterval is advertised by /meta to clients without websockets.
	PollInterval time.Duration
	// AllowedOrigins restricts websocket upgrades. Empty allows any origin.
	AllowedOrigins []string
}

// Handlers groups every HTTP endpoint.
type Handlers struct {
	Deps
	opts Options
}

// New constructs Handlers. A zero PollInterval defaults to 2s.
func New(d Deps, opts Options) *Handlers {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &Handlers{Deps: d, opts: opts}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// CountResponse reports how many records an operation touched.
type CountResponse struct {
	Count int `json:"count" example:"3"`
}

//
// Helpers
//

// clampPagination parses page and page_size with defaults 1 and 20 and a
// page size cap of 100.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = max(utils.AtoiDefault(c.Query("page"), defaultPage), 1)
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	pageSize = min(max(pageSize, 1), maxPageSize)
	return
}

func paginate(page, pageSize, total int) Pagination {
	pages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}

// sessionUser returns the logged-in user or writes 401.
func sessionUser(c *gin.Context) (domain.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "login required")
	}
	return u, ok
}

// bindJSON decodes the body or writes 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	return true
}
