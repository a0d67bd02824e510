// Read-only aggregation endpoints:
//   - GET /leaderboard
//   - GET /analytics
//   - GET /analytics/export.csv
//   - GET /dashboard
//   - GET /admin/kpis (admin)
//   - GET /meta
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suggestion-box/internal/aggregate"
	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/export"
	"github.com/tbourn/go-suggestion-box/internal/services"
	"github.com/tbourn/go-suggestion-box/internal/utils"
)

// MetaResponse lists the closed vocabularies and the refresh cadence.
type MetaResponse struct {
	PollIntervalMs int64              `json:"pollIntervalMs" example:"2000"`
	Categories     []string           `json:"categories"`
	Departments    []string           `json:"departments"`
	Statuses       []domain.Status    `json:"statuses"`
	Windows        []aggregate.Window `json:"windows"`
}

// Leaderboard godoc
// @ID          leaderboard
// @Summary     Ranked contributors
// @Description Ranks effective users by points, then filters by department and name and re-sorts for display. Ranks keep the points order.
// @Tags        Insights
// @Produce     json
// @Param       department  query     string  false  "Department or all"
// @Param       q           query     string  false  "Name search"
// @Param       sort        query     string  false  "rank|points|ideas|implemented|name"
// @Param       desc        query     bool    false  "Descending"
// @Success     200         {object}  aggregate.Leaderboard
// @Router      /leaderboard [get]
func (h *Handlers) Leaderboard(c *gin.Context) {
	lb, err := h.Insights.Leaderboard(c.Request.Context(), aggregate.LeaderboardOptions{
		Department: c.Query("department"),
		Query:      c.Query("q"),
		SortBy:     c.Query("sort"),
		Desc:       utils.BoolDefault(c.Query("desc"), false),
	})
	if err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, lb)
}

// Analytics godoc
// @ID          analytics
// @Summary     Analytics report
// @Description Computed over suggestions inside the window (default 30days) and the other filters.
// @Tags        Insights
// @Produce     json
// @Param       window      query     string  false  "7days|30days|90days|1year"  default(30days)
// @Param       category    query     string  false  "Category or all"
// @Param       status      query     string  false  "Status or all"
// @Param       department  query     string  false  "Department or all"
// @Success     200         {object}  aggregate.Analytics
// @Router      /analytics [get]
func (h *Handlers) Analytics(c *gin.Context) {
	a, err := h.Insights.Analytics(c.Request.Context(), filterFromQuery(c, aggregate.Window30Days))
	if err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, a)
}

// ExportAnalytics godoc
// @ID          exportAnalytics
// @Summary     Download one analytics table as CSV
// @Tags        Insights
// @Produce     text/csv
// @Param       table   query     string  true   "categories|series|funnel|tags"
// @Param       window  query     string  false  "Analytics window"  default(30days)
// @Success     200     {string}  string  "CSV"
// @Failure     400     {object}  handlers.ErrorResponse  "Unknown table"
// @Router      /analytics/export.csv [get]
func (h *Handlers) ExportAnalytics(c *gin.Context) {
	name := c.Query("table")
	a, err := h.Insights.Analytics(c.Request.Context(), filterFromQuery(c, aggregate.Window30Days))
	if err != nil {
		serviceError(c, err, ErrCodeExportFailed)
		return
	}
	t, found := export.AnalyticsTable(a, name)
	if !found {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "table must be one of categories, series, funnel, tags")
		return
	}
	writeCSV(c, export.AnalyticsFilename(name), t)
}

// Dashboard godoc
// @ID          dashboard
// @Summary     Headline counters for the home page
// @Tags        Insights
// @Produce     json
// @Success     200  {object}  aggregate.DashboardStats
// @Router      /dashboard [get]
func (h *Handlers) Dashboard(c *gin.Context) {
	d, err := h.Insights.Dashboard(c.Request.Context())
	if err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, d)
}

// AdminKPIs godoc
// @ID          adminKPIs
// @Summary     Review queue KPIs
// @Tags        Insights
// @Produce     json
// @Success     200  {object}  aggregate.AdminKPIs
// @Failure     403  {object}  handlers.ErrorResponse  "Admin only"
// @Router      /admin/kpis [get]
func (h *Handlers) AdminKPIs(c *gin.Context) {
	k, err := h.Insights.AdminKPIs(c.Request.Context())
	if err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, k)
}

// Meta godoc
// @ID          meta
// @Summary     Vocabularies and polling cadence
// @Tags        Meta
// @Produce     json
// @Success     200  {object}  handlers.MetaResponse
// @Router      /meta [get]
func (h *Handlers) Meta(c *gin.Context) {
	ok(c, http.StatusOK, MetaResponse{
		PollIntervalMs: h.opts.PollInterval.Milliseconds(),
		Categories:     services.Categories,
		Departments:    aggregate.Departments,
		Statuses:       domain.Statuses,
		Windows: []aggregate.Window{
			aggregate.Window7Days, aggregate.Window30Days, aggregate.Window90Days, aggregate.Window1Year,
		},
	})
}

// Reset godoc
// @ID          reset
// @Summary     Wipe every collection and the session
// @Description Defaults are not re-seeded until the next start with SEED_DEFAULTS.
// @Tags        Admin
// @Success     204
// @Failure     403  {object}  handlers.ErrorResponse  "Admin only"
// @Router      /reset [post]
func (h *Handlers) Reset(c *gin.Context) {
	if err := h.Records.FullReset(c.Request.Context()); err != nil {
		serviceError(c, err, ErrCodeResetFailed)
		return
	}
	noContent(c)
}
