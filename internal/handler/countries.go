package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
)

// SelectCountryRequest はeIDAS国選択リクエスト。
type SelectCountryRequest struct {
	CountryEntityID string `json:"country_entity_id" binding:"required"`
	Registering     bool   `json:"registering"`
	RequestedLoa    string `json:"requested_level_of_assurance" binding:"required"`
}

// HandleEnabledCountries はGET /policy/countries/:sessionId のハンドラー。
func (h *PolicyHandler) HandleEnabledCountries(c *gin.Context) {
	countries, err := h.countries.EnabledCountries(c.Request.Context(), sessionID(c))
	if err != nil {
		h.handleError(c, "COUNTRIES_GET_ERR", err)
		return
	}
	c.JSON(http.StatusOK, countries)
}

// HandleSelectCountry はPOST /policy/countries/:sessionId/select のハンドラー。
func (h *PolicyHandler) HandleSelectCountry(c *gin.Context) {
	var req SelectCountryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "COUNTRY_SELECT_ERR", err)
		return
	}

	loa, err := domain.ParseLevelOfAssurance(req.RequestedLoa)
	if err != nil {
		h.badRequest(c, "COUNTRY_SELECT_ERR", err)
		return
	}

	if err := h.countries.SelectCountry(c.Request.Context(), sessionID(c), req.CountryEntityID, req.Registering, loa); err != nil {
		h.handleError(c, "COUNTRY_SELECT_ERR", err)
		return
	}
	c.Status(http.StatusNoContent)
}
