package domain

// PersistentID はIdPが発行したnameIdをラップする。
// Matching Serviceへの照会キーとして使われる。
type PersistentID struct {
	NameID string `json:"nameId"`
}

// FraudDetectedDetails はIdPが報告した不正イベントの詳細。
type FraudDetectedDetails struct {
	EventID        string `json:"eventId"`
	FraudIndicator string `json:"fraudIndicator"`
}

// SuccessFromIdp はSAMLエンジンが翻訳したIdP認証成功応答を表す。
type SuccessFromIdp struct {
	Issuer                            string
	EncryptedMatchingDatasetAssertion string
	AuthnStatementAssertion           string
	PersistentID                      PersistentID
	LevelOfAssurance                  LevelOfAssurance
	PrincipalIPAddressAsSeenByHub     string
	PrincipalIPAddressAsSeenByIdp     string
}

// FraudFromIdp はIdPからの不正イベント応答を表す。
type FraudFromIdp struct {
	Issuer                        string
	PrincipalIPAddressAsSeenByHub string
	PersistentID                  PersistentID
	FraudDetails                  FraudDetectedDetails
	PrincipalIPAddressAsSeenByIdp string
}

// AuthenticationErrorResponse はIdPからの認証失敗/コンテキスト無し応答を表す。
type AuthenticationErrorResponse struct {
	Issuer                        string
	PrincipalIPAddressAsSeenByHub string
}

// RequesterErrorResponse はIdPからのリクエスタエラー応答を表す。
type RequesterErrorResponse struct {
	Issuer                        string
	ErrorMessage                  string
	PrincipalIPAddressAsSeenByHub string
}

// MatchFromMatchingService はMatching Serviceからの照合成功応答を表す。
type MatchFromMatchingService struct {
	Issuer                   string
	InResponseTo             string
	MatchingServiceAssertion string
	LevelOfAssurance         LevelOfAssurance
}

// NoMatchFromMatchingService はMatching Serviceからの照合不成立応答を表す。
type NoMatchFromMatchingService struct {
	Issuer       string
	InResponseTo string
}

// UserAccountCreatedFromMatchingService はアカウント作成成功応答を表す。
type UserAccountCreatedFromMatchingService struct {
	Issuer                   string
	InResponseTo             string
	MatchingServiceAssertion string
	LevelOfAssurance         LevelOfAssurance
}

// SuccessFromCountry はeIDASノードからの認証成功応答（翻訳済み）を表す。
type SuccessFromCountry struct {
	Issuer                         string
	PersistentID                   PersistentID
	LevelOfAssurance               LevelOfAssurance
	EncryptedIdentityAssertionBlob string
	PrincipalIPAddressAsSeenByHub  string
}

// ResponseFromHub はRPへ返すSAML応答の生成に必要な情報を表す。
type ResponseFromHub struct {
	ResponseID                  string   `json:"responseId"`
	InResponseTo                string   `json:"inResponseTo"`
	AuthnRequestIssuerEntityID  string   `json:"authnRequestIssuerEntityId"`
	AssertionConsumerServiceURI string   `json:"assertionConsumerServiceUri"`
	RelayState                  string   `json:"relayState,omitempty"`
	Status                      string   `json:"status"`
	MatchingServiceAssertion    string   `json:"matchingServiceAssertion,omitempty"`
	EncryptedAssertions         []string `json:"encryptedAssertions,omitempty"`
}

// ResponseFromHub のステータス値
const (
	HubStatusSuccess        = "Success"
	HubStatusNoAuthnContext = "NoAuthenticationContext"
	HubStatusNoMatch        = "NoMatchingServiceMatchFromHub"
	HubStatusRequesterError = "RequesterError"
	HubStatusAuthnFailed    = "AuthenticationFailed"
)
