package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suggestion-box/internal/services"
)

// GetSettings godoc
// @ID          getSettings
// @Summary     Read preferences
// @Tags        Settings
// @Produce     json
// @Success     200  {object}  domain.Settings
// @Router      /settings [get]
func (h *Handlers) GetSettings(c *gin.Context) {
	s, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, s)
}

// UpdateSettings godoc
// @ID          updateSettings
// @Summary     Patch preferences
// @Description Theme must be light, dark or system; language must be a BCP 47 tag.
// @Tags        Settings
// @Accept      json
// @Produce     json
// @Param       body  body      services.SettingsPatch  true  "Patch"
// @Success     200   {object}  domain.Settings
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid theme or language"
// @Router      /settings [patch]
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var p services.SettingsPatch
	if !bindJSON(c, &p) {
		return
	}
	s, err := h.Settings.Update(c.Request.Context(), p)
	if err != nil {
		serviceError(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, s)
}
