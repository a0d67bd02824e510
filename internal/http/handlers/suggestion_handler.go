// Suggestion HTTP handlers.
//
// This file exposes the suggestion lifecycle:
//   - GET    /suggestions                    (list, filtered, paginated, ETag)
//   - POST   /suggestions                    (submit, Idempotency-Key aware)
//   - GET    /suggestions/{id}
//   - PATCH  /suggestions/{id}               (admin)
//   - DELETE /suggestions/{id}               (admin)
//   - DELETE /suggestions                    (admin)
//   - POST   /suggestions/{id}/vote          (toggle)
//   - PUT    /suggestions/{id}/status        (admin)
//   - POST   /suggestions/bulk-status        (admin)
//   - POST   /suggestions/recompute-sentiment (admin)
//   - POST   /suggestions/seed               (admin)
//   - GET    /suggestions/{id}/similar
//   - GET    /suggestions/export.csv         (admin)
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suggestion-box/internal/aggregate"
	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/export"
	"github.com/tbourn/go-suggestion-box/internal/http/middleware"
	"github.com/tbourn/go-suggestion-box/internal/services"
	"github.com/tbourn/go-suggestion-box/internal/utils"
)

//
// DTOs
//

// ListSuggestionsResponse wraps a page of suggestions.
type ListSuggestionsResponse struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
	Pagination  Pagination          `json:"pagination"`
}

// StatusRequest is the JSON payload for an admin status change.
type StatusRequest struct {
	Status string `json:"status" example:"approved"`
	// AdminRemark replaces the stored remark when non-empty.
	AdminRemark string `json:"adminRemark,omitempty" example:"Scheduled for Q3"`
}

// BulkStatusRequest moves several suggestions to one status.
type BulkStatusRequest struct {
	IDs    []string `json:"ids" example:"sugg-1,sugg-2"`
	Status string   `json:"status" example:"review_pending"`
}

// SeedRequest asks for n demo suggestions.
type SeedRequest struct {
	Count int `json:"count" example:"60"`
}

// SimilarResponse lists suggestions ranked by word overlap.
type SimilarResponse struct {
	Similar []services.Similar `json:"similar"`
}

//
// Helpers
//

// filterFromQuery reads window, category, status, department and q. The
// list endpoints default to every window; analytics passes its own default.
func filterFromQuery(c *gin.Context, defWindow aggregate.Window) aggregate.Filter {
	return aggregate.Filter{
		Window:     aggregate.Window(c.DefaultQuery("window", string(defWindow))),
		Category:   c.Query("category"),
		Status:     c.Query("status"),
		Department: c.Query("department"),
		Query:      c.Query("q"),
	}
}

func parseStatusOr400(c *gin.Context, raw string) (domain.Status, bool) {
	st, err := domain.ParseStatus(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return "", false
	}
	return st, true
}

//
// Handlers
//

// ListSuggestions godoc
// @ID          listSuggestions
// @Summary     List suggestions (filtered, paginated)
// @Description Filters by window, category, status, department and free text, then sorts. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Suggestions
// @Produce     json
// @Param       window         query   string  false  "7days|30days|90days|1year|all"  default(all)
// @Param       category       query   string  false  "Category or all"
// @Param       status         query   string  false  "Status or all"
// @Param       department     query   string  false  "Author department or all"
// @Param       q              query   string  false  "Case-insensitive text search"
// @Param       sort           query   string  false  "recent|popular|commented|relevant"  default(recent)
// @Param       page           query   int     false  "Page number"  default(1)
// @Param       page_size      query   int     false  "Items per page (max 100)"  default(20)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.ListSuggestionsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /suggestions [get]
func (h *Handlers) ListSuggestions(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if count, latest, err := h.Records.SuggestionsStats(ctx); err == nil {
		var ts int64
		if latest != nil {
			ts = latest.UnixNano()
		}
		etag := fmt.Sprintf(`W/"suggestions:%d:%d"`, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	page, size := clampPagination(c)
	items, total, err := h.Suggestions.List(ctx, services.ListQuery{
		Filter:   filterFromQuery(c, aggregate.WindowAll),
		Sort:     c.DefaultQuery("sort", aggregate.SortRecent),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		serviceError(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListSuggestionsResponse{
		Suggestions: items,
		Pagination:  paginate(page, size, total),
	})
}

// SubmitSuggestion godoc
// @ID          submitSuggestion
// @Summary     Submit a suggestion
// @Description Stores a pending suggestion by the session user with a computed sentiment. A repeated Idempotency-Key within the TTL returns the original with 200 and Idempotency-Replayed: true.
// @Tags        Suggestions
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                 false  "Idempotency key for safe retries"
// @Param       body             body    services.SubmitInput   true   "Submission form"
// @Success     201  {object}  domain.Suggestion
// @Success     200  {object}  domain.Suggestion  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Router      /suggestions [post]
func (h *Handlers) SubmitSuggestion(c *gin.Context) {
	var in services.SubmitInput
	if !bindJSON(c, &in) {
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	sg, replayed, err := h.Suggestions.Submit(c.Request.Context(), in, key)
	if err != nil {
		serviceError(c, err, ErrCodeSubmitFailed)
		return
	}
	if replayed {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, sg)
		return
	}
	ok(c, http.StatusCreated, sg)
}

// GetSuggestion godoc
// @ID          getSuggestion
// @Summary     Get a suggestion
// @Tags        Suggestions
// @Produce     json
// @Param       id   path      string  true  "Suggestion ID"
// @Success     200  {object}  domain.Suggestion
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /suggestions/{id} [get]
func (h *Handlers) GetSuggestion(c *gin.Context) {
	sg, err := h.Suggestions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, sg)
}

// UpdateSuggestion godoc
// @ID          updateSuggestion
// @Summary     Edit a suggestion
// @Description Partial admin edit. Required fields cannot be blanked; sentiment is not recomputed.
// @Tags        Suggestions
// @Accept      json
// @Produce     json
// @Param       id    path      string                    true  "Suggestion ID"
// @Param       body  body      services.SuggestionPatch  true  "Patch"
// @Success     200   {object}  domain.Suggestion
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404   {object}  handlers.ErrorResponse  "Not found"
// @Router      /suggestions/{id} [patch]
func (h *Handlers) UpdateSuggestion(c *gin.Context) {
	var p services.SuggestionPatch
	if !bindJSON(c, &p) {
		return
	}
	sg, err := h.Suggestions.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		serviceError(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, sg)
}

// DeleteSuggestion godoc
// @ID          deleteSuggestion
// @Summary     Delete a suggestion
// @Tags        Suggestions
// @Param       id   path  string  true  "Suggestion ID"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /suggestions/{id} [delete]
func (h *Handlers) DeleteSuggestion(c *gin.Context) {
	found, err := h.Suggestions.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err, ErrCodeDeleteFailed)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "suggestion not found")
		return
	}
	noContent(c)
}

// DeleteAllSuggestions godoc
// @ID          deleteAllSuggestions
// @Summary     Delete every suggestion
// @Description Also resets the stored users' points and counters.
// @Tags        Suggestions
// @Produce     json
// @Success     200  {object}  handlers.CountResponse
// @Router      /suggestions [delete]
func (h *Handlers) DeleteAllSuggestions(c *gin.Context) {
	n, err := h.Suggestions.DeleteAll(c.Request.Context())
	if err != nil {
		serviceError(c, err, ErrCodeDeleteFailed)
		return
	}
	ok(c, http.StatusOK, CountResponse{Count: n})
}

// Vote godoc
// @ID          voteSuggestion
// @Summary     Toggle the session user's vote
// @Tags        Suggestions
// @Produce     json
// @Param       id   path      string  true  "Suggestion ID"
// @Success     200  {object}  services.VoteResult
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /suggestions/{id}/vote [post]
func (h *Handlers) Vote(c *gin.Context) {
	u, ok := sessionUser(c)
	if !ok {
		return
	}
	res, err := h.Suggestions.Vote(c.Request.Context(), c.Param("id"), u.Email)
	if err != nil {
		serviceError(c, err, ErrCodeVoteFailed)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SetStatus godoc
// @ID          setSuggestionStatus
// @Summary     Change a suggestion's status
// @Description Any status may move to any other. The author's stored points change by the status point difference.
// @Tags        Suggestions
// @Accept      json
// @Produce     json
// @Param       id    path      string                  true  "Suggestion ID"
// @Param       body  body      handlers.StatusRequest  true  "New status"
// @Success     200   {object}  domain.Suggestion
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid status"
// @Failure     404   {object}  handlers.ErrorResponse  "Not found"
// @Router      /suggestions/{id}/status [put]
func (h *Handlers) SetStatus(c *gin.Context) {
	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	st, good := parseStatusOr400(c, req.Status)
	if !good {
		return
	}
	sg, err := h.Suggestions.SetStatus(c.Request.Context(), c.Param("id"), st, strings.TrimSpace(req.AdminRemark))
	if err != nil {
		serviceError(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, sg)
}

// BulkSetStatus godoc
// @ID          bulkSetSuggestionStatus
// @Summary     Change the status of several suggestions
// @Description Unknown IDs are skipped; the response counts the suggestions changed.
// @Tags        Suggestions
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.BulkStatusRequest  true  "IDs and status"
// @Success     200   {object}  handlers.CountResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid status"
// @Router      /suggestions/bulk-status [post]
func (h *Handlers) BulkSetStatus(c *gin.Context) {
	var req BulkStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	st, good := parseStatusOr400(c, req.Status)
	if !good {
		return
	}
	n, err := h.Suggestions.BulkSetStatus(c.Request.Context(), req.IDs, st)
	if err != nil {
		serviceError(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, CountResponse{Count: n})
}

// RecomputeSentiment godoc
// @ID          recomputeSentiment
// @Summary     Reclassify every suggestion's sentiment
// @Tags        Suggestions
// @Produce     json
// @Success     200  {object}  handlers.CountResponse
// @Router      /suggestions/recompute-sentiment [post]
func (h *Handlers) RecomputeSentiment(c *gin.Context) {
	n, err := h.Suggestions.RecomputeSentiments(c.Request.Context())
	if err != nil {
		serviceError(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, CountResponse{Count: n})
}

// SeedDemo godoc
// @ID          seedDemo
// @Summary     Append demo suggestions
// @Description Body is optional; a count <= 0 seeds 60.
// @Tags        Suggestions
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.SeedRequest  false  "Count"
// @Success     201   {object}  handlers.CountResponse
// @Router      /suggestions/seed [post]
func (h *Handlers) SeedDemo(c *gin.Context) {
	var req SeedRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	n, err := h.Suggestions.SeedDemo(c.Request.Context(), req.Count)
	if err != nil {
		serviceError(c, err, ErrCodeSeedFailed)
		return
	}
	ok(c, http.StatusCreated, CountResponse{Count: n})
}

// SimilarSuggestions godoc
// @ID          similarSuggestions
// @Summary     Suggestions similar to one
// @Description Ranks the other suggestions by Jaccard overlap of their words.
// @Tags        Suggestions
// @Produce     json
// @Param       id   path      string  true   "Suggestion ID"
// @Param       k    query     int     false  "How many"  default(3)
// @Success     200  {object}  handlers.SimilarResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /suggestions/{id}/similar [get]
func (h *Handlers) SimilarSuggestions(c *gin.Context) {
	k := min(utils.AtoiDefault(c.Query("k"), 3), 20)
	res, err := h.Suggestions.SimilarTo(c.Request.Context(), c.Param("id"), k)
	if err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, SimilarResponse{Similar: res})
}

// ExportSuggestions godoc
// @ID          exportSuggestions
// @Summary     Download the admin review queue as CSV
// @Description Accepts the list filters and sort. Dates are rendered relative to now.
// @Tags        Suggestions
// @Produce     text/csv
// @Param       status    query  string  false  "Status or all"
// @Param       category  query  string  false  "Category or all"
// @Param       q         query  string  false  "Text search"
// @Param       sort      query  string  false  "recent|popular|commented"
// @Success     200  {string}  string  "CSV"
// @Router      /suggestions/export.csv [get]
func (h *Handlers) ExportSuggestions(c *gin.Context) {
	items, _, err := h.Suggestions.List(c.Request.Context(), services.ListQuery{
		Filter: filterFromQuery(c, aggregate.WindowAll),
		Sort:   c.DefaultQuery("sort", aggregate.SortRecent),
	})
	if err != nil {
		serviceError(c, err, ErrCodeExportFailed)
		return
	}
	writeCSV(c, "admin_review_queue.csv", export.AdminQueue(items, h.Records.Now()))
}

// writeCSV renders t fully before answering so a failure can still be
// reported as JSON.
func writeCSV(c *gin.Context, filename string, t export.Table) {
	var buf bytes.Buffer
	if err := t.Write(&buf); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
