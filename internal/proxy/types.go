package proxy

import (
	"time"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
)

// SamlAuthnRequestTranslation はRPからのAuthnRequest翻訳要求を表す
type SamlAuthnRequestTranslation struct {
	SamlMessage        string `json:"saml_message"`
	PrincipalIPAddress string `json:"principal_ip_address_as_seen_by_hub"`
}

// TranslatedAuthnRequest はsaml-engineが翻訳したRPのAuthnRequestを表す
type TranslatedAuthnRequest struct {
	RequestID                     string                    `json:"request_id"`
	Issuer                        string                    `json:"issuer"`
	AssertionConsumerServiceURL   string                    `json:"assertion_consumer_service_url,omitempty"`
	AssertionConsumerServiceIndex *int                      `json:"assertion_consumer_service_index,omitempty"`
	LevelsOfAssurance             []domain.LevelOfAssurance `json:"levels_of_assurance"`
	ForceAuthentication           *bool                     `json:"force_authentication,omitempty"`
	SessionExpiryTimestamp        time.Time                 `json:"session_expiry_timestamp"`
}

// IdpAuthnRequestGeneration はIdP向けAuthnRequest生成要求を表す
type IdpAuthnRequestGeneration struct {
	IdpEntityID            string                    `json:"idp_entity_id"`
	LevelsOfAssurance      []domain.LevelOfAssurance `json:"levels_of_assurance"`
	ForceAuthentication    *bool                     `json:"force_authentication,omitempty"`
	SessionExpiryTimestamp time.Time                 `json:"session_expiry_timestamp"`
	RegistrationRequest    bool                      `json:"registration_request"`
}

// SamlRequestWithDestination は送出可能なSAMLリクエストと宛先を表す
type SamlRequestWithDestination struct {
	SamlRequest string `json:"saml_request"`
	SsoURI      string `json:"sso_uri"`
}

// SamlAuthnResponseTranslation はIdP/国からのResponse翻訳要求を表す
type SamlAuthnResponseTranslation struct {
	SamlResponse            string                  `json:"saml_response"`
	SessionID               domain.SessionID        `json:"session_id"`
	PrincipalIPAddress      string                  `json:"principal_ip_address_as_seen_by_hub"`
	MatchingServiceEntityID string                  `json:"matching_service_entity_id,omitempty"`
	ExpectedLoa             domain.LevelOfAssurance `json:"expected_loa,omitempty"`
}

// IdpResponseStatus はIdPレスポンスの判定結果を表す
type IdpResponseStatus string

const (
	IdpStatusSuccess                 IdpResponseStatus = "SUCCESS"
	IdpStatusRequesterError          IdpResponseStatus = "REQUESTER_ERROR"
	IdpStatusNoAuthenticationContext IdpResponseStatus = "NO_AUTHENTICATION_CONTEXT"
	IdpStatusAuthenticationFailed    IdpResponseStatus = "AUTHENTICATION_FAILED"
	IdpStatusAuthenticationCancelled IdpResponseStatus = "AUTHENTICATION_CANCELLED"
	IdpStatusAuthenticationPending   IdpResponseStatus = "AUTHENTICATION_PENDING"
	IdpStatusUpliftFailed            IdpResponseStatus = "UPLIFT_FAILED"
)

// InboundResponseFromIdp はIdPレスポンスの翻訳結果を表す。
// 不正イベントはLevelOfAssuranceがLEVEL_Xとなることで示される。
type InboundResponseFromIdp struct {
	Issuer                            string                   `json:"issuer"`
	Status                            IdpResponseStatus        `json:"status"`
	StatusMessage                     string                   `json:"status_message,omitempty"`
	PersistentID                      *domain.PersistentID     `json:"persistent_id,omitempty"`
	AuthnStatementAssertion           string                   `json:"authn_statement_assertion,omitempty"`
	EncryptedMatchingDatasetAssertion string                   `json:"encrypted_matching_dataset_assertion,omitempty"`
	LevelOfAssurance                  *domain.LevelOfAssurance `json:"level_of_assurance,omitempty"`
	PrincipalIPAddressAsSeenByIdp     string                   `json:"principal_ip_address_as_seen_by_idp,omitempty"`
	FraudEventID                      string                   `json:"fraud_event_id,omitempty"`
	FraudIndicator                    string                   `json:"fraud_indicator,omitempty"`
	NotOnOrAfter                      *time.Time               `json:"not_on_or_after,omitempty"`
}

// InboundResponseFromCountry はeIDAS国レスポンスの翻訳結果を表す
type InboundResponseFromCountry struct {
	Issuer                     string                   `json:"issuer"`
	Status                     IdpResponseStatus        `json:"status"`
	PersistentID               *domain.PersistentID     `json:"persistent_id,omitempty"`
	EncryptedIdentityAssertion string                   `json:"encrypted_identity_assertion,omitempty"`
	LevelOfAssurance           *domain.LevelOfAssurance `json:"level_of_assurance,omitempty"`
}

// ResponseFromHubGeneration はRP向けResponse生成要求を表す
type ResponseFromHubGeneration struct {
	AuthnRequestIssuerEntityID  string           `json:"authn_request_issuer_entity_id"`
	InResponseTo                string           `json:"in_response_to"`
	SessionID                   domain.SessionID `json:"session_id"`
	Status                      string           `json:"status"`
	MatchingServiceAssertion    string           `json:"matching_service_assertion,omitempty"`
	EncryptedAssertions         []string         `json:"encrypted_assertions,omitempty"`
	RelayState                  string           `json:"relay_state,omitempty"`
	AssertionConsumerServiceURI string           `json:"assertion_consumer_service_uri"`
}

// AuthnResponseFromHubContainer は生成済みのRP向けResponseを表す
type AuthnResponseFromHubContainer struct {
	SamlResponse string `json:"saml_response"`
	PostEndpoint string `json:"post_endpoint"`
	RelayState   string `json:"relay_state,omitempty"`
	ResponseID   string `json:"response_id"`
}

// AttributeQueryRequest はマッチングサービス照会の生成要求を表す
type AttributeQueryRequest struct {
	RequestID                         string                  `json:"request_id"`
	SessionID                         domain.SessionID        `json:"session_id"`
	EncryptedMatchingDatasetAssertion string                  `json:"encrypted_matching_dataset_assertion"`
	AuthnStatementAssertion           string                  `json:"authn_statement_assertion"`
	Cycle3Dataset                     *domain.Cycle3Dataset   `json:"cycle3_dataset,omitempty"`
	UserAccountCreationAttributes     []string                `json:"user_account_creation_attributes,omitempty"`
	AuthnRequestIssuerEntityID        string                  `json:"authn_request_issuer_entity_id"`
	AssertionConsumerServiceURI       string                  `json:"assertion_consumer_service_uri"`
	LevelOfAssurance                  domain.LevelOfAssurance `json:"level_of_assurance"`
	PersistentID                      domain.PersistentID     `json:"persistent_id"`
	MatchingServiceEntityID           string                  `json:"matching_service_entity_id"`
	OnboardingRequest                 bool                    `json:"onboarding_request"`
}

// EidasAttributeQueryRequest はeIDAS経路のマッチングサービス照会生成要求を表す
type EidasAttributeQueryRequest struct {
	RequestID                     string                  `json:"request_id"`
	SessionID                     domain.SessionID        `json:"session_id"`
	EncryptedIdentityAssertion    string                  `json:"encrypted_identity_assertion"`
	Cycle3Dataset                 *domain.Cycle3Dataset   `json:"cycle3_dataset,omitempty"`
	UserAccountCreationAttributes []string                `json:"user_account_creation_attributes,omitempty"`
	AuthnRequestIssuerEntityID    string                  `json:"authn_request_issuer_entity_id"`
	AssertionConsumerServiceURI   string                  `json:"assertion_consumer_service_uri"`
	LevelOfAssurance              domain.LevelOfAssurance `json:"level_of_assurance"`
	PersistentID                  domain.PersistentID     `json:"persistent_id"`
	MatchingServiceEntityID       string                  `json:"matching_service_entity_id"`
	OnboardingRequest             bool                    `json:"onboarding_request"`
}

// AttributeQueryContainer は送出可能なマッチングサービス照会を表す
type AttributeQueryContainer struct {
	ID                            string `json:"id"`
	Issuer                        string `json:"issuer"`
	SamlRequest                   string `json:"saml_request"`
	MatchingServiceURI            string `json:"matching_service_uri"`
	AttributeQueryClientTimeoutMs int64  `json:"attribute_query_client_timeout_ms"`
	OnboardingRequest             bool   `json:"onboarding_request"`
}

// SamlResponseContainer はマッチングサービスからの生レスポンスを表す
type SamlResponseContainer struct {
	SamlResponse            string           `json:"saml_response"`
	SessionID               domain.SessionID `json:"session_id"`
	MatchingServiceEntityID string           `json:"matching_service_entity_id"`
}

// MatchingServiceResponseStatus はマッチングサービスレスポンスの判定結果を表す
type MatchingServiceResponseStatus string

const (
	MatchingServiceStatusMatch                     MatchingServiceResponseStatus = "MATCH"
	MatchingServiceStatusNoMatch                   MatchingServiceResponseStatus = "NO_MATCH"
	MatchingServiceStatusUserAccountCreated        MatchingServiceResponseStatus = "USER_ACCOUNT_CREATED"
	MatchingServiceStatusUserAccountCreationFailed MatchingServiceResponseStatus = "USER_ACCOUNT_CREATION_FAILED"
	MatchingServiceStatusRequesterError            MatchingServiceResponseStatus = "REQUESTER_ERROR"
)

// InboundResponseFromMatchingService はマッチングサービスレスポンスの翻訳結果を表す
type InboundResponseFromMatchingService struct {
	Issuer                   string                        `json:"issuer"`
	InResponseTo             string                        `json:"in_response_to"`
	Status                   MatchingServiceResponseStatus `json:"status"`
	MatchingServiceAssertion string                        `json:"matching_service_assertion,omitempty"`
}

// IdpConfig は設定サービスが保持するIdP設定を表す
type IdpConfig struct {
	EntityID                   string                    `json:"entity_id"`
	SimpleID                   string                    `json:"simple_id"`
	EnabledForRegistration     bool                      `json:"enabled_for_registration"`
	SupportedLevelsOfAssurance []domain.LevelOfAssurance `json:"supported_levels_of_assurance"`
}

// EidasCountry は設定サービスが保持するeIDAS対応国を表す
type EidasCountry struct {
	EntityID         string `json:"entity_id"`
	SimpleID         string `json:"simple_id"`
	Enabled          bool   `json:"enabled"`
	OverriddenSsoURL string `json:"overridden_sso_url,omitempty"`
}

// MatchingProcess はRPのマッチング手続き設定（cycle-3属性名）を表す
type MatchingProcess struct {
	AttributeName string `json:"attribute_name,omitempty"`
}

// TransactionConfig は設定サービスが保持するRP設定のうちpolicyが参照する項目を表す
type TransactionConfig struct {
	EntityID                      string `json:"entity_id"`
	SimpleID                      string `json:"simple_id"`
	MatchingServiceEntityID       string `json:"matching_service_entity_id"`
	ShouldHubSignResponseMessages bool   `json:"should_hub_sign_response_messages"`
	UsingMatching                 bool   `json:"using_matching"`
	EidasEnabled                  bool   `json:"eidas_enabled"`
}

// MatchingServiceConfig は設定サービスが保持するマッチングサービス設定を表す
type MatchingServiceConfig struct {
	EntityID               string `json:"entity_id"`
	TransactionEntityID    string `json:"transaction_entity_id"`
	URI                    string `json:"uri"`
	UserAccountCreationURI string `json:"user_account_creation_uri,omitempty"`
	Onboarding             bool   `json:"onboarding"`
}

// Event はevent-sinkへ送出する監査イベントを表す
type Event struct {
	EventID            string            `json:"event_id"`
	EventType          string            `json:"event_type"`
	Timestamp          time.Time         `json:"timestamp"`
	OriginatingService string            `json:"originating_service"`
	SessionID          domain.SessionID  `json:"session_id,omitempty"`
	Details            map[string]string `json:"details,omitempty"`
}
