package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleResponseFromHub はGET /policy/session/:sessionId/response-from-hub のハンドラー。
// 終端状態に到達したセッションのRP向けSAML Responseを返す。
func (h *PolicyHandler) HandleResponseFromHub(c *gin.Context) {
	response, err := h.sessions.ResponseFromHub(c.Request.Context(), sessionID(c))
	if err != nil {
		h.handleError(c, "RESPONSE_FROM_HUB_ERR", err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// HandleErrorResponseFromHub はGET /policy/session/:sessionId/error-response-from-hub のハンドラー。
func (h *PolicyHandler) HandleErrorResponseFromHub(c *gin.Context) {
	response, err := h.sessions.ErrorResponseFromHub(c.Request.Context(), sessionID(c))
	if err != nil {
		h.handleError(c, "ERROR_RESPONSE_FROM_HUB_ERR", err)
		return
	}
	c.JSON(http.StatusOK, response)
}
