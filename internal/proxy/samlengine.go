package proxy

import (
	"context"
	"log/slog"
)

// SamlEngineClient はsaml-engineへの型付きクライアント。
// SAMLメッセージの翻訳と生成をsaml-engineに委譲する。
type SamlEngineClient struct {
	*baseClient
}

// NewSamlEngineClient はSamlEngineClientを生成する。
func NewSamlEngineClient(baseURL string, logger *slog.Logger) *SamlEngineClient {
	return &SamlEngineClient{baseClient: newBaseClient("saml-engine", baseURL, logger)}
}

// TranslateRpAuthnRequest はRPからのAuthnRequestを検証・翻訳する。
func (c *SamlEngineClient) TranslateRpAuthnRequest(ctx context.Context, req SamlAuthnRequestTranslation) (*TranslatedAuthnRequest, error) {
	var out TranslatedAuthnRequest
	if err := c.postJSON(ctx, "/saml-engine/translate-rp-authn-request", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateIdpAuthnRequest は選択されたIdP向けのAuthnRequestを生成する。
func (c *SamlEngineClient) GenerateIdpAuthnRequest(ctx context.Context, req IdpAuthnRequestGeneration) (*SamlRequestWithDestination, error) {
	var out SamlRequestWithDestination
	if err := c.postJSON(ctx, "/saml-engine/generate-idp-authn-request", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TranslateIdpAuthnResponse はIdPからのResponseを検証・翻訳する。
func (c *SamlEngineClient) TranslateIdpAuthnResponse(ctx context.Context, req SamlAuthnResponseTranslation) (*InboundResponseFromIdp, error) {
	var out InboundResponseFromIdp
	if err := c.postJSON(ctx, "/saml-engine/translate-idp-authn-response", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TranslateCountryAuthnResponse はeIDAS国からのResponseを検証・翻訳する。
func (c *SamlEngineClient) TranslateCountryAuthnResponse(ctx context.Context, req SamlAuthnResponseTranslation) (*InboundResponseFromCountry, error) {
	var out InboundResponseFromCountry
	if err := c.postJSON(ctx, "/saml-engine/translate-country-authn-response", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateRpAuthnResponse はRP向けの最終Responseを生成する。
func (c *SamlEngineClient) GenerateRpAuthnResponse(ctx context.Context, req ResponseFromHubGeneration) (*AuthnResponseFromHubContainer, error) {
	var out AuthnResponseFromHubContainer
	if err := c.postJSON(ctx, "/saml-engine/generate-rp-authn-response", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateRpErrorResponse はRP向けのエラーResponseを生成する。
func (c *SamlEngineClient) GenerateRpErrorResponse(ctx context.Context, req ResponseFromHubGeneration) (*AuthnResponseFromHubContainer, error) {
	var out AuthnResponseFromHubContainer
	if err := c.postJSON(ctx, "/saml-engine/generate-rp-error-response", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateAttributeQuery はマッチングサービス照会（AttributeQuery）を生成する。
func (c *SamlEngineClient) GenerateAttributeQuery(ctx context.Context, req AttributeQueryRequest) (*AttributeQueryContainer, error) {
	var out AttributeQueryContainer
	if err := c.postJSON(ctx, "/saml-engine/generate-attribute-query", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateEidasAttributeQuery はeIDAS経路のマッチングサービス照会を生成する。
func (c *SamlEngineClient) GenerateEidasAttributeQuery(ctx context.Context, req EidasAttributeQueryRequest) (*AttributeQueryContainer, error) {
	var out AttributeQueryContainer
	if err := c.postJSON(ctx, "/saml-engine/generate-eidas-attribute-query", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TranslateMatchingServiceResponse はマッチングサービスからのResponseを検証・翻訳する。
func (c *SamlEngineClient) TranslateMatchingServiceResponse(ctx context.Context, req SamlResponseContainer) (*InboundResponseFromMatchingService, error) {
	var out InboundResponseFromMatchingService
	if err := c.postJSON(ctx, "/saml-engine/translate-matching-service-response", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
