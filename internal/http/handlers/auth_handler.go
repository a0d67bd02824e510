// Account and session endpoints:
//   - POST  /auth/register
//   - POST  /auth/login
//   - POST  /auth/logout
//   - GET   /session
//   - PATCH /session
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/http/middleware"
	"github.com/tbourn/go-suggestion-box/internal/services"
)

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Email    string `json:"email" example:"admin@company.com"`
	Password string `json:"password" example:"admin123"`
}

// SessionResponse wraps the session user; User is null when logged out.
type SessionResponse struct {
	User *domain.User `json:"user"`
}

// Register godoc
// @ID          register
// @Summary     Register a user
// @Description Creates a stored user and logs them in. Emails are unique case-insensitively.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      services.RegisterInput  true  "Registration form"
// @Success     201   {object}  domain.User
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     409   {object}  handlers.ErrorResponse  "Email already registered"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var in services.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.Accounts.Register(c.Request.Context(), in)
	if err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusCreated, u)
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Matches email and password against effective users and opens the session.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  domain.User
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid credentials"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, u)
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Tags        Auth
// @Success     204
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.Accounts.Logout(c.Request.Context()); err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}

// GetSession godoc
// @ID          getSession
// @Summary     Current session user
// @Tags        Auth
// @Produce     json
// @Success     200  {object}  handlers.SessionResponse
// @Router      /session [get]
func (h *Handlers) GetSession(c *gin.Context) {
	var resp SessionResponse
	if u, ok := middleware.CurrentUser(c); ok {
		resp.User = &u
	}
	ok(c, http.StatusOK, resp)
}

// UpdateSession godoc
// @ID          updateSession
// @Summary     Update the session profile
// @Description Changes name, avatar or department of the session snapshot only.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      services.ProfilePatch  true  "Profile patch"
// @Success     200   {object}  domain.User
// @Failure     401   {object}  handlers.ErrorResponse  "Not logged in"
// @Router      /session [patch]
func (h *Handlers) UpdateSession(c *gin.Context) {
	var p services.ProfilePatch
	if !bindJSON(c, &p) {
		return
	}
	u, err := h.Accounts.UpdateCurrent(c.Request.Context(), p)
	if err != nil {
		serviceError(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, u)
}
