// Package handler はHTTPリクエストハンドラーを提供する。
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/internal/service"
	"github.com/alphagov/verify-hub-sub002/internal/session"
	"github.com/alphagov/verify-hub-sub002/pkg/httputil"
)

// TraceIDKey はコンテキストにTraceIDを格納するキー。
const TraceIDKey = "trace_id"

// PolicyHandler はセッションライフサイクルAPIのハンドラー。
type PolicyHandler struct {
	sessions         *service.SessionService
	idpResponses     *service.AuthnResponseFromIdpService
	countryResponses *service.AuthnResponseFromCountryService
	matching         *service.MatchingServiceResponseService
	cycle3           *service.Cycle3Service
	countries        *service.CountriesService
}

// NewPolicyHandler は新しいPolicyHandlerを生成する。
func NewPolicyHandler(
	sessions *service.SessionService,
	idpResponses *service.AuthnResponseFromIdpService,
	countryResponses *service.AuthnResponseFromCountryService,
	matching *service.MatchingServiceResponseService,
	cycle3 *service.Cycle3Service,
	countries *service.CountriesService,
) *PolicyHandler {
	return &PolicyHandler{
		sessions:         sessions,
		idpResponses:     idpResponses,
		countryResponses: countryResponses,
		matching:         matching,
		cycle3:           cycle3,
		countries:        countries,
	}
}

// sessionID はパスパラメータからセッションIDを取り出す。
func sessionID(c *gin.Context) domain.SessionID {
	return domain.SessionID(c.Param("sessionId"))
}

// handleError はサービス層のエラーをProblemDetailに写像する。
func (h *PolicyHandler) handleError(c *gin.Context, eventID string, err error) {
	traceID, _ := c.Get(TraceIDKey)
	problem := problemFor(err)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(c.Request.Context(), level, "request failed",
		"trace_id", traceID,
		"event_id", eventID,
		"http_status", problem.Status,
		"error", err.Error(),
	)
	httputil.WriteError(c, problem)
}

// problemFor はエラー種別ごとのHTTPステータスを決める。
func problemFor(err error) *httputil.ProblemDetail {
	var (
		timeout       *session.TimeoutError
		invalidState  *session.InvalidStateError
		validation    *domain.StateProcessingValidationError
		creation      *domain.SessionCreationFailureError
		notSupported  *domain.EidasCountryNotSupportedError
		apiErr        *proxy.APIError
		connectionErr *proxy.ConnectionError
	)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return httputil.NotFound("session not found")
	case errors.As(err, &timeout):
		return httputil.BadRequest("session has timed out")
	case errors.As(err, &invalidState):
		return httputil.BadRequest(err.Error())
	case errors.As(err, &validation):
		return httputil.BadRequest(err.Error())
	case errors.As(err, &creation):
		return httputil.BadRequest(err.Error())
	case errors.As(err, &notSupported):
		return httputil.BadRequest(err.Error())
	case errors.Is(err, domain.ErrEidasNotSupported):
		return httputil.NewProblemDetail(http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrIdpDisabled):
		return httputil.BadRequest(err.Error())
	case errors.Is(err, session.ErrSessionExists):
		return httputil.NewProblemDetail(http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, session.ErrConcurrentUpdate):
		return httputil.NewProblemDetail(http.StatusConflict, "Conflict", "session was concurrently updated")
	case errors.Is(err, proxy.ErrCircuitOpen):
		return httputil.ServiceUnavailable("upstream service unavailable")
	case errors.As(err, &connectionErr):
		return httputil.BadGateway(err.Error())
	case errors.As(err, &apiErr):
		return httputil.BadGateway(err.Error())
	case errors.Is(err, session.ErrRedisUnavailable):
		return httputil.ServiceUnavailable("session store unavailable")
	default:
		return httputil.InternalServerError("An unexpected error occurred")
	}
}

// badRequest はバインド失敗時の定型レスポンスを返す。
func (h *PolicyHandler) badRequest(c *gin.Context, eventID string, err error) {
	traceID, _ := c.Get(TraceIDKey)
	slog.Warn("invalid request body",
		"trace_id", traceID,
		"event_id", eventID,
		"error", err.Error(),
	)
	httputil.WriteError(c, httputil.BadRequest("Invalid request body"))
}
