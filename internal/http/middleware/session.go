package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

const (
	ctxKeySessionUser = "session.user"
	// ctxKeyUserID holds the session email; logging and rate limiting key on it.
	ctxKeyUserID = "userID"
)

// SessionLoader returns the logged-in user, if any.
type SessionLoader func(ctx context.Context) (domain.User, bool, error)

// Session loads the current user once per request and stashes it for
// handlers and downstream middleware. A lookup failure is logged and the
// request continues anonymously.
func Session(load SessionLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok, err := load(c.Request.Context())
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("session lookup failed")
		}
		if ok {
			c.Set(ctxKeySessionUser, u)
			c.Set(ctxKeyUserID, u.Email)
		}
		c.Next()
	}
}

// CurrentUser returns the user stashed by Session.
func CurrentUser(c *gin.Context) (domain.User, bool) {
	v, ok := c.Get(ctxKeySessionUser)
	if !ok {
		return domain.User{}, false
	}
	u, ok := v.(domain.User)
	return u, ok
}

// RequireSession rejects anonymous requests with 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "login required")
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "login required")
			return
		}
		if !u.IsAdmin() {
			abortJSON(c, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		c.Next()
	}
}

// abortJSON writes the compact error envelope shared by all middleware.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}

func sessionEmail(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
