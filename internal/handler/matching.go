package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AttributeQueryResponseRequest はsaml-soap-proxyが中継するマッチングサービス応答。
type AttributeQueryResponseRequest struct {
	SamlResponse string `json:"saml_response" binding:"required"`
}

// HandleAttributeQueryResponse はPOST /policy/session/:sessionId/attribute-query-response のハンドラー。
func (h *PolicyHandler) HandleAttributeQueryResponse(c *gin.Context) {
	var req AttributeQueryResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "MS_RESPONSE_ERR", err)
		return
	}

	action, err := h.matching.ReceiveMatchingServiceResponse(c.Request.Context(), sessionID(c), req.SamlResponse)
	if err != nil {
		h.handleError(c, "MS_RESPONSE_ERR", err)
		return
	}
	c.JSON(http.StatusOK, action)
}

// HandleResponseProcessingDetails はGET /policy/session/:sessionId/response-processing-details のハンドラー。
func (h *PolicyHandler) HandleResponseProcessingDetails(c *gin.Context) {
	details, err := h.matching.ResponseProcessingDetails(c.Request.Context(), sessionID(c))
	if err != nil {
		h.handleError(c, "MS_RESPONSE_POLL_ERR", err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// HandleMatchingServiceRequestFailure はPOST /policy/session/:sessionId/matching-service-request-failure のハンドラー。
func (h *PolicyHandler) HandleMatchingServiceRequestFailure(c *gin.Context) {
	action, err := h.matching.ReceiveMatchingServiceRequestFailure(c.Request.Context(), sessionID(c))
	if err != nil {
		h.handleError(c, "MS_REQUEST_FAILURE_ERR", err)
		return
	}
	c.JSON(http.StatusOK, action)
}
