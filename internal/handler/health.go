package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse はヘルスチェックのレスポンス。
type HealthResponse struct {
	Status string `json:"status"`
}

// HandleHealth はGET /health のハンドラー。
func (h *PolicyHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
