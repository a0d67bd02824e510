// User registry endpoints:
//   - GET    /users              (effective users)
//   - PUT    /users/{email}/role (admin)
//   - DELETE /users              (admin)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

// RoleRequest is the JSON payload for changing a role.
type RoleRequest struct {
	Role string `json:"role" example:"admin"`
}

// ListUsersResponse wraps the effective users, sorted by points.
type ListUsersResponse struct {
	Users []domain.User `json:"users"`
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List effective users
// @Description Stored users merged with authors inferred from suggestions, with derived points. Passwords are never returned.
// @Tags        Users
// @Produce     json
// @Success     200  {object}  handlers.ListUsersResponse
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.Accounts.Users(c.Request.Context())
	if err != nil {
		serviceError(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListUsersResponse{Users: users})
}

// SetUserRole godoc
// @ID          setUserRole
// @Summary     Change a stored user's role
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       email  path      string                true  "User email"
// @Param       body   body      handlers.RoleRequest  true  "New role"
// @Success     200    {object}  domain.User
// @Failure     400    {object}  handlers.ErrorResponse  "Invalid role"
// @Failure     403    {object}  handlers.ErrorResponse  "Admin only"
// @Failure     404    {object}  handlers.ErrorResponse  "User not stored"
// @Router      /users/{email}/role [put]
func (h *Handlers) SetUserRole(c *gin.Context) {
	var req RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Accounts.SetRole(c.Request.Context(), c.Param("email"), req.Role)
	if err != nil {
		serviceError(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteAllUsers godoc
// @ID          deleteAllUsers
// @Summary     Delete every stored user
// @Description Empties the registry and ends the session. Authors inferred from suggestions remain.
// @Tags        Users
// @Produce     json
// @Success     200  {object}  handlers.CountResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Admin only"
// @Router      /users [delete]
func (h *Handlers) DeleteAllUsers(c *gin.Context) {
	n, err := h.Accounts.DeleteAllUsers(c.Request.Context())
	if err != nil {
		serviceError(c, err, ErrCodeDeleteFailed)
		return
	}
	ok(c, http.StatusOK, CountResponse{Count: n})
}
