package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/verify-hub-sub002/internal/service"
)

// HandleIdpResponse はPOST /policy/session/:sessionId/idp-authn-response のハンドラー。
func (h *PolicyHandler) HandleIdpResponse(c *gin.Context) {
	var container service.SamlResponseContainer
	if err := c.ShouldBindJSON(&container); err != nil {
		h.badRequest(c, "IDP_RESPONSE_ERR", err)
		return
	}

	action, err := h.idpResponses.ReceiveAuthnResponseFromIdp(c.Request.Context(), sessionID(c), container)
	if err != nil {
		h.handleError(c, "IDP_RESPONSE_ERR", err)
		return
	}
	c.JSON(http.StatusOK, action)
}

// HandleCountryResponse はPOST /policy/session/:sessionId/country-authn-response のハンドラー。
func (h *PolicyHandler) HandleCountryResponse(c *gin.Context) {
	var container service.SamlResponseContainer
	if err := c.ShouldBindJSON(&container); err != nil {
		h.badRequest(c, "COUNTRY_RESPONSE_ERR", err)
		return
	}

	action, err := h.countryResponses.ReceiveAuthnResponseFromCountry(c.Request.Context(), sessionID(c), container)
	if err != nil {
		h.handleError(c, "COUNTRY_RESPONSE_ERR", err)
		return
	}
	c.JSON(http.StatusOK, action)
}

// HandlePausedRegistration はPOST /policy/session/:sessionId/paused のハンドラー。
func (h *PolicyHandler) HandlePausedRegistration(c *gin.Context) {
	action, err := h.idpResponses.PauseRegistration(c.Request.Context(), sessionID(c))
	if err != nil {
		h.handleError(c, "PAUSE_REGISTRATION_ERR", err)
		return
	}
	c.JSON(http.StatusOK, action)
}
