package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
)

// HandleCycle3AttributeRequest はGET /policy/session/:sessionId/cycle-3-attribute のハンドラー。
func (h *PolicyHandler) HandleCycle3AttributeRequest(c *gin.Context) {
	data, err := h.cycle3.GetCycle3AttributeRequestData(c.Request.Context(), sessionID(c))
	if err != nil {
		h.handleError(c, "CYCLE3_GET_ERR", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// HandleCycle3Submit はPOST /policy/session/:sessionId/cycle-3-attribute/submit のハンドラー。
func (h *PolicyHandler) HandleCycle3Submit(c *gin.Context) {
	var input domain.Cycle3UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, "CYCLE3_SUBMIT_ERR", err)
		return
	}

	action, err := h.cycle3.SubmitCycle3Data(c.Request.Context(), sessionID(c), input)
	if err != nil {
		h.handleError(c, "CYCLE3_SUBMIT_ERR", err)
		return
	}
	c.JSON(http.StatusOK, action)
}

// HandleCycle3Cancel はPOST /policy/session/:sessionId/cycle-3-attribute/cancel のハンドラー。
func (h *PolicyHandler) HandleCycle3Cancel(c *gin.Context) {
	action, err := h.cycle3.CancelCycle3Data(c.Request.Context(), sessionID(c))
	if err != nil {
		h.handleError(c, "CYCLE3_CANCEL_ERR", err)
		return
	}
	c.JSON(http.StatusOK, action)
}
