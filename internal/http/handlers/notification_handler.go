// Notification endpoints for the session user:
//   - GET  /notifications
//   - GET  /notifications/unread-count
//   - POST /notifications/{id}/read
//   - POST /notifications/read-all
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

// ListNotificationsResponse wraps the inbox, newest first.
type ListNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

// UnreadResponse carries the unread badge count.
type UnreadResponse struct {
	Unread int `json:"unread" example:"2"`
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     The session user's notifications
// @Tags        Notifications
// @Produce     json
// @Success     200  {object}  handlers.ListNotificationsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	u, good := sessionUser(c)
	if !good {
		return
	}
	items, err := h.Notifications.ListFor(c.Request.Context(), u.Email)
	if err != nil {
		serviceError(c, err, ErrCodeListFailed)
		return
	}
	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}
	ok(c, http.StatusOK, ListNotificationsResponse{Notifications: items, Unread: unread})
}

// UnreadCount godoc
// @ID          unreadNotifications
// @Summary     Unread notification count
// @Tags        Notifications
// @Produce     json
// @Success     200  {object}  handlers.UnreadResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Router      /notifications/unread-count [get]
func (h *Handlers) UnreadCount(c *gin.Context) {
	u, good := sessionUser(c)
	if !good {
		return
	}
	n, err := h.Notifications.UnreadCount(c.Request.Context(), u.Email)
	if err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, UnreadResponse{Unread: n})
}

// MarkNotificationRead godoc
// @ID          markNotificationRead
// @Summary     Mark one notification read
// @Tags        Notifications
// @Param       id   path  string  true  "Notification ID"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /notifications/{id}/read [post]
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	found, err := h.Notifications.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err, ErrCodeUpdateFailed)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "notification not found")
		return
	}
	noContent(c)
}

// MarkAllNotificationsRead godoc
// @ID          markAllNotificationsRead
// @Summary     Mark every notification of the session user read
// @Tags        Notifications
// @Produce     json
// @Success     200  {object}  handlers.CountResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Router      /notifications/read-all [post]
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	u, good := sessionUser(c)
	if !good {
		return
	}
	n, err := h.Notifications.MarkAllRead(c.Request.Context(), u.Email)
	if err != nil {
		serviceError(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, CountResponse{Count: n})
}
