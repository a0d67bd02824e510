// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint. Errors
// always use the ErrorResponse envelope with a stable code; 5xx responses
// are logged with the request-scoped logger.
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "suggestion not found"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suggestion-box/internal/http/middleware"
	"github.com/tbourn/go-suggestion-box/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"suggestion not found"`
}

func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail, used by the router for NoRoute and
// NoMethod.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// serviceError maps a service error to its HTTP status and code. Errors
// that are not part of the service contract become 500 with fallback.
func serviceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrPasswordMismatch),
		errors.Is(err, services.ErrEmptyComment),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidTheme),
		errors.Is(err, services.ErrInvalidLanguage):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrUserExists):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, err.Error())
	case errors.Is(err, services.ErrNoCurrentUser):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "login required")
	case errors.Is(err, services.ErrSuggestionNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		fail(c, http.StatusInternalServerError, fallback, err.Error())
	}
}
