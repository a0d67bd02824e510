// Comment endpoints:
//   - GET    /suggestions/{id}/comments
//   - POST   /suggestions/{id}/comments
//   - DELETE /comments/{id} (admin)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

// CommentRequest is the JSON payload for a new comment.
type CommentRequest struct {
	Content string `json:"content" example:"We tried this on line 2, it works."`
}

// ListCommentsResponse wraps a suggestion's comments, oldest first.
type ListCommentsResponse struct {
	Comments []domain.Comment `json:"comments"`
}

// ListComments godoc
// @ID          listComments
// @Summary     List comments on a suggestion
// @Tags        Comments
// @Produce     json
// @Param       id   path      string  true  "Suggestion ID"
// @Success     200  {object}  handlers.ListCommentsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Suggestion not found"
// @Router      /suggestions/{id}/comments [get]
func (h *Handlers) ListComments(c *gin.Context) {
	items, err := h.Suggestions.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListCommentsResponse{Comments: items})
}

// CreateComment godoc
// @ID          createComment
// @Summary     Comment on a suggestion
// @Description Authored by the session user. The suggestion's author is notified unless they wrote the comment.
// @Tags        Comments
// @Accept      json
// @Produce     json
// @Param       id    path      string                   true  "Suggestion ID"
// @Param       body  body      handlers.CommentRequest  true  "Comment"
// @Success     201   {object}  domain.Comment
// @Failure     400   {object}  handlers.ErrorResponse  "Empty comment"
// @Failure     401   {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     404   {object}  handlers.ErrorResponse  "Suggestion not found"
// @Router      /suggestions/{id}/comments [post]
func (h *Handlers) CreateComment(c *gin.Context) {
	u, good := sessionUser(c)
	if !good {
		return
	}
	var req CommentRequest
	if !bindJSON(c, &req) {
		return
	}
	cm, err := h.Suggestions.Comment(c.Request.Context(), c.Param("id"), u.AuthorSnapshot(), req.Content)
	if err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusCreated, cm)
}

// DeleteComment godoc
// @ID          deleteComment
// @Summary     Delete a comment
// @Tags        Comments
// @Param       id   path  string  true  "Comment ID"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /comments/{id} [delete]
func (h *Handlers) DeleteComment(c *gin.Context) {
	found, err := h.Suggestions.DeleteComment(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err, ErrCodeDeleteFailed)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "comment not found")
		return
	}
	noContent(c)
}
