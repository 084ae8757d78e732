// Package service はHTTPユースケース単位のオーケストレーションを提供する。
//
// 各サービスは(リポジトリから状態取得 → SAMLエンジンで翻訳 → コントローラ
// 操作 → 次状態の保存 → 照会の送出)という一連の流れを1ユースケース分だけ
// 担う。状態遷移の計算はコントローラに、永続化はリポジトリに委譲する。
package service

import (
	"context"

	"github.com/alphagov/verify-hub-sub002/internal/controller"
	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
)

// SamlEngine はSAMLエンジンの翻訳・生成操作。
type SamlEngine interface {
	TranslateRpAuthnRequest(ctx context.Context, req proxy.SamlAuthnRequestTranslation) (*proxy.TranslatedAuthnRequest, error)
	GenerateIdpAuthnRequest(ctx context.Context, req proxy.IdpAuthnRequestGeneration) (*proxy.SamlRequestWithDestination, error)
	TranslateIdpAuthnResponse(ctx context.Context, req proxy.SamlAuthnResponseTranslation) (*proxy.InboundResponseFromIdp, error)
	TranslateCountryAuthnResponse(ctx context.Context, req proxy.SamlAuthnResponseTranslation) (*proxy.InboundResponseFromCountry, error)
	GenerateRpAuthnResponse(ctx context.Context, req proxy.ResponseFromHubGeneration) (*proxy.AuthnResponseFromHubContainer, error)
	GenerateRpErrorResponse(ctx context.Context, req proxy.ResponseFromHubGeneration) (*proxy.AuthnResponseFromHubContainer, error)
	GenerateAttributeQuery(ctx context.Context, req proxy.AttributeQueryRequest) (*proxy.AttributeQueryContainer, error)
	GenerateEidasAttributeQuery(ctx context.Context, req proxy.EidasAttributeQueryRequest) (*proxy.AttributeQueryContainer, error)
	TranslateMatchingServiceResponse(ctx context.Context, req proxy.SamlResponseContainer) (*proxy.InboundResponseFromMatchingService, error)
}

// SoapProxy はマッチングサービス照会の送出操作。
type SoapProxy interface {
	SendHubMatchingServiceRequest(ctx context.Context, sessionID domain.SessionID, query proxy.AttributeQueryContainer) error
}

// ConfigService は設定サービスの読み出し操作。
// コントローラが参照する操作に加え、セッション生成とeIDAS国選択で
// 必要な読み出しを含む。
type ConfigService interface {
	controller.ConfigService
	AssertionConsumerServiceURI(ctx context.Context, transactionEntityID string, index *int) (string, error)
	EidasCountries(ctx context.Context) ([]proxy.EidasCountry, error)
	TransactionEidasCountries(ctx context.Context, transactionEntityID string) ([]string, error)
}
