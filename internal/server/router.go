package server

import (
	"github.com/gin-gonic/gin"

	"github.com/alphagov/verify-hub-sub002/internal/handler"
)

// SetupRouter はルーティングを設定する。
func SetupRouter(engine *gin.Engine, h *handler.PolicyHandler) {
	// ヘルスチェック
	engine.GET("/health", h.HandleHealth)

	policy := engine.Group("/policy")
	{
		policy.POST("/session", h.HandleCreateSession)

		session := policy.Group("/session/:sessionId")
		{
			session.GET("", h.HandleSessionExists)
			session.GET("/loa", h.HandleLevelOfAssurance)

			session.POST("/select-identity-provider", h.HandleSelectIdp)
			session.GET("/idp-authn-request", h.HandleIdpAuthnRequest)
			session.POST("/idp-authn-response", h.HandleIdpResponse)
			session.POST("/country-authn-response", h.HandleCountryResponse)
			session.POST("/paused", h.HandlePausedRegistration)
			session.POST("/restart-journey", h.HandleRestartJourney)

			session.GET("/cycle-3-attribute", h.HandleCycle3AttributeRequest)
			session.POST("/cycle-3-attribute/submit", h.HandleCycle3Submit)
			session.POST("/cycle-3-attribute/cancel", h.HandleCycle3Cancel)

			session.POST("/attribute-query-response", h.HandleAttributeQueryResponse)
			session.GET("/response-processing-details", h.HandleResponseProcessingDetails)
			session.POST("/matching-service-request-failure", h.HandleMatchingServiceRequestFailure)

			session.GET("/response-from-hub", h.HandleResponseFromHub)
			session.GET("/error-response-from-hub", h.HandleErrorResponseFromHub)
		}

		countries := policy.Group("/countries/:sessionId")
		{
			countries.GET("", h.HandleEnabledCountries)
			countries.POST("/select", h.HandleSelectCountry)
		}
	}
}
