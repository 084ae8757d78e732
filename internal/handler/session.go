package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/service"
	"github.com/alphagov/verify-hub-sub002/pkg/httputil"
)

// SessionIDResponse はセッションIDのみを返すレスポンス。
type SessionIDResponse struct {
	SessionID domain.SessionID `json:"session_id"`
}

// SelectIdpRequest はIdP選択リクエスト。
type SelectIdpRequest struct {
	IdpEntityID        string `json:"idp_entity_id" binding:"required"`
	Registering        bool   `json:"registering"`
	RequestedLoa       string `json:"requested_level_of_assurance" binding:"required"`
	PrincipalIPAddress string `json:"principal_ip_address_as_seen_by_hub"`
}

// LevelOfAssuranceResponse は達成済みLOAのレスポンス。
type LevelOfAssuranceResponse struct {
	LevelOfAssurance domain.LevelOfAssurance `json:"level_of_assurance"`
}

// HandleCreateSession はPOST /policy/session のハンドラー。
func (h *PolicyHandler) HandleCreateSession(c *gin.Context) {
	traceID, _ := c.Get(TraceIDKey)

	var req service.SessionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "SESSION_CREATE_ERR", err)
		return
	}

	id, err := h.sessions.Create(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, "SESSION_CREATE_ERR", err)
		return
	}

	slog.Info("session created",
		"trace_id", traceID,
		"event_id", "SESSION_CREATE_OK",
		"session_id", id,
	)
	c.JSON(http.StatusCreated, SessionIDResponse{SessionID: id})
}

// HandleSessionExists はGET /policy/session/:sessionId のハンドラー。
func (h *PolicyHandler) HandleSessionExists(c *gin.Context) {
	id := sessionID(c)
	exists, err := h.sessions.SessionExists(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "SESSION_GET_ERR", err)
		return
	}
	if !exists {
		httputil.WriteError(c, httputil.NotFound("session not found"))
		return
	}
	c.JSON(http.StatusOK, SessionIDResponse{SessionID: id})
}

// HandleSelectIdp はPOST /policy/session/:sessionId/select-identity-provider のハンドラー。
func (h *PolicyHandler) HandleSelectIdp(c *gin.Context) {
	var req SelectIdpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "IDP_SELECT_ERR", err)
		return
	}

	loa, err := domain.ParseLevelOfAssurance(req.RequestedLoa)
	if err != nil {
		h.badRequest(c, "IDP_SELECT_ERR", err)
		return
	}

	if err := h.sessions.SelectIdp(c.Request.Context(), sessionID(c), req.IdpEntityID, req.Registering, loa); err != nil {
		h.handleError(c, "IDP_SELECT_ERR", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleRestartJourney はPOST /policy/session/:sessionId/restart-journey のハンドラー。
func (h *PolicyHandler) HandleRestartJourney(c *gin.Context) {
	if err := h.sessions.RestartJourney(c.Request.Context(), sessionID(c)); err != nil {
		h.handleError(c, "JOURNEY_RESTART_ERR", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleIdpAuthnRequest はGET /policy/session/:sessionId/idp-authn-request のハンドラー。
func (h *PolicyHandler) HandleIdpAuthnRequest(c *gin.Context) {
	request, err := h.sessions.IdpAuthnRequest(c.Request.Context(), sessionID(c))
	if err != nil {
		h.handleError(c, "IDP_AUTHN_REQUEST_ERR", err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// HandleLevelOfAssurance はGET /policy/session/:sessionId/loa のハンドラー。
func (h *PolicyHandler) HandleLevelOfAssurance(c *gin.Context) {
	loa, achieved, err := h.sessions.LevelOfAssurance(c.Request.Context(), sessionID(c))
	if err != nil {
		h.handleError(c, "LOA_GET_ERR", err)
		return
	}
	if !achieved {
		httputil.WriteError(c, httputil.NotFound("level of assurance not yet achieved"))
		return
	}
	c.JSON(http.StatusOK, LevelOfAssuranceResponse{LevelOfAssurance: loa})
}
