// Package state はセッション状態機械の状態定義と遷移テーブルを提供する。
//
// 各状態は Core を埋め込んだ構造体として表現され、Kind タグ付きの
// JSONエンベロープでRedisに永続化される。遷移の妥当性検証は
// transitions.go の遷移テーブルが担う。
package state

import (
	"time"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
)

// State はセッション状態機械における単一の状態を表す。
type State interface {
	// Kind は状態の種別タグを返す。
	Kind() Kind
	// Common は全状態で共通する中核フィールドを返す。
	Common() *Core
}

// Core は全状態が保持する共通フィールド。
// セッション生成時に確定し、以後の遷移で変化しない。
type Core struct {
	SessionID                   domain.SessionID `json:"session_id"`
	RequestID                   string           `json:"request_id"`
	RequestIssuerEntityID       string           `json:"request_issuer_entity_id"`
	SessionExpiryTimestamp      time.Time        `json:"session_expiry_timestamp"`
	AssertionConsumerServiceURI string           `json:"assertion_consumer_service_uri"`
	TransactionSupportsEidas    bool             `json:"transaction_supports_eidas"`
}

func (c *Core) Common() *Core { return c }

// SessionStarted はRPからのAuthnRequest受理直後、IdP未選択の初期状態。
type SessionStarted struct {
	Core
	RelayState          string `json:"relay_state,omitempty"`
	ForceAuthentication *bool  `json:"force_authentication,omitempty"`
}

func (s *SessionStarted) Kind() Kind { return KindSessionStarted }

// IdpSelected はユーザーがIdPを選択し、IdPへの認証要求送出を待つ状態。
type IdpSelected struct {
	Core
	IdpEntityID                string                  `json:"idp_entity_id"`
	RelayState                 string                  `json:"relay_state,omitempty"`
	Registering                bool                    `json:"registering"`
	RequestedLoa               domain.LevelOfAssurance `json:"requested_loa"`
	AvailableIdentityProviders []string                `json:"available_identity_providers"`
	ForceAuthentication        *bool                   `json:"force_authentication,omitempty"`
}

func (s *IdpSelected) Kind() Kind { return KindIdpSelected }

// EidasCountrySelected はeIDAS経路で認証国を選択した状態。
type EidasCountrySelected struct {
	Core
	CountryEntityID string                  `json:"country_entity_id"`
	RelayState      string                  `json:"relay_state,omitempty"`
	Registering     bool                    `json:"registering"`
	RequestedLoa    domain.LevelOfAssurance `json:"requested_loa"`
}

func (s *EidasCountrySelected) Kind() Kind { return KindEidasCountrySelected }

// AwaitingCycle3Data はIdP認証成功後、追加属性(cycle-3)の入力を待つ状態。
type AwaitingCycle3Data struct {
	Core
	IdpEntityID                       string                  `json:"idp_entity_id"`
	MatchingServiceEntityID           string                  `json:"matching_service_entity_id"`
	RelayState                        string                  `json:"relay_state,omitempty"`
	EncryptedMatchingDatasetAssertion string                  `json:"encrypted_matching_dataset_assertion"`
	AuthnStatementAssertion           string                  `json:"authn_statement_assertion"`
	PersistentID                      domain.PersistentID     `json:"persistent_id"`
	LevelOfAssurance                  domain.LevelOfAssurance `json:"level_of_assurance"`
	Registering                       bool                    `json:"registering"`
}

func (s *AwaitingCycle3Data) Kind() Kind { return KindAwaitingCycle3Data }

// EidasAwaitingCycle3Data はeIDAS経路でcycle-3属性の入力を待つ状態。
type EidasAwaitingCycle3Data struct {
	Core
	CountryEntityID            string                  `json:"country_entity_id"`
	MatchingServiceEntityID    string                  `json:"matching_service_entity_id"`
	RelayState                 string                  `json:"relay_state,omitempty"`
	EncryptedIdentityAssertion string                  `json:"encrypted_identity_assertion"`
	PersistentID               domain.PersistentID     `json:"persistent_id"`
	LevelOfAssurance           domain.LevelOfAssurance `json:"level_of_assurance"`
	Registering                bool                    `json:"registering"`
}

func (s *EidasAwaitingCycle3Data) Kind() Kind { return KindEidasAwaitingCycle3Data }

// WaitingForMatchingServiceResponse はマッチングサービスへの照会送出後、
// 応答を待つ状態。経路(IdP/eIDAS)とcycle-3実施有無はフラグで区別する。
type WaitingForMatchingServiceResponse struct {
	Core
	IdpEntityID                       string                  `json:"idp_entity_id"`
	MatchingServiceEntityID           string                  `json:"matching_service_entity_id"`
	RelayState                        string                  `json:"relay_state,omitempty"`
	RequestSentTime                   time.Time               `json:"request_sent_time"`
	IdpLevelOfAssurance               domain.LevelOfAssurance `json:"idp_level_of_assurance"`
	Registering                       bool                    `json:"registering"`
	ViaEidas                          bool                    `json:"via_eidas"`
	Cycle3Performed                   bool                    `json:"cycle3_performed"`
	EncryptedMatchingDatasetAssertion string                  `json:"encrypted_matching_dataset_assertion,omitempty"`
	AuthnStatementAssertion           string                  `json:"authn_statement_assertion,omitempty"`
	EncryptedIdentityAssertion        string                  `json:"encrypted_identity_assertion,omitempty"`
	PersistentID                      domain.PersistentID     `json:"persistent_id"`
}

func (s *WaitingForMatchingServiceResponse) Kind() Kind {
	return KindWaitingForMatchingServiceResponse
}

// UserAccountCreationRequestSent はマッチング不成立後、
// アカウント作成要求をマッチングサービスに送出した状態。
type UserAccountCreationRequestSent struct {
	Core
	IdpEntityID             string                  `json:"idp_entity_id"`
	MatchingServiceEntityID string                  `json:"matching_service_entity_id"`
	RelayState              string                  `json:"relay_state,omitempty"`
	RequestSentTime         time.Time               `json:"request_sent_time"`
	IdpLevelOfAssurance     domain.LevelOfAssurance `json:"idp_level_of_assurance"`
	Registering             bool                    `json:"registering"`
}

func (s *UserAccountCreationRequestSent) Kind() Kind { return KindUserAccountCreationRequestSent }

// SuccessfulMatch はマッチング成立の終端状態。RPへの成功応答を生成できる。
type SuccessfulMatch struct {
	Core
	IdpEntityID               string                  `json:"idp_entity_id"`
	MatchingServiceAssertion  string                  `json:"matching_service_assertion"`
	RelayState                string                  `json:"relay_state,omitempty"`
	LevelOfAssurance          domain.LevelOfAssurance `json:"level_of_assurance"`
	Registering               bool                    `json:"registering"`
	CountrySignedResponseSent bool                    `json:"country_signed_response_sent,omitempty"`
}

func (s *SuccessfulMatch) Kind() Kind { return KindSuccessfulMatch }

// UserAccountCreated はアカウント作成成功の終端状態。
type UserAccountCreated struct {
	Core
	IdpEntityID              string                  `json:"idp_entity_id"`
	MatchingServiceAssertion string                  `json:"matching_service_assertion"`
	RelayState               string                  `json:"relay_state,omitempty"`
	LevelOfAssurance         domain.LevelOfAssurance `json:"level_of_assurance"`
	Registering              bool                    `json:"registering"`
}

func (s *UserAccountCreated) Kind() Kind { return KindUserAccountCreated }

// NonMatchingJourneySuccess はマッチングを経ない成功の終端状態。
// IdPのアサーションをそのままRP応答に載せ替える。
type NonMatchingJourneySuccess struct {
	Core
	IdpEntityID         string   `json:"idp_entity_id"`
	RelayState          string   `json:"relay_state,omitempty"`
	EncryptedAssertions []string `json:"encrypted_assertions"`
}

func (s *NonMatchingJourneySuccess) Kind() Kind { return KindNonMatchingJourneySuccess }

// NoMatch はマッチング不成立(フォールバック不可)の終端状態。
type NoMatch struct {
	Core
	IdpEntityID string `json:"idp_entity_id"`
	RelayState  string `json:"relay_state,omitempty"`
}

func (s *NoMatch) Kind() Kind { return KindNoMatch }

// UserAccountCreationFailed はアカウント作成失敗の終端状態。
type UserAccountCreationFailed struct {
	Core
	RelayState string `json:"relay_state,omitempty"`
}

func (s *UserAccountCreationFailed) Kind() Kind { return KindUserAccountCreationFailed }

// AuthnFailedError はIdP認証失敗状態。別IdPの再選択で復帰できるため
// 終端ではない。
type AuthnFailedError struct {
	Core
	RelayState          string `json:"relay_state,omitempty"`
	IdpEntityID         string `json:"idp_entity_id,omitempty"`
	ForceAuthentication *bool  `json:"force_authentication,omitempty"`
}

func (s *AuthnFailedError) Kind() Kind { return KindAuthnFailedError }

// RequesterError はRP側の要求不備による終端状態。
type RequesterError struct {
	Core
	RelayState string `json:"relay_state,omitempty"`
}

func (s *RequesterError) Kind() Kind { return KindRequesterError }

// FraudEventDetected は不正検知による終端状態。
type FraudEventDetected struct {
	Core
	IdpEntityID         string `json:"idp_entity_id"`
	RelayState          string `json:"relay_state,omitempty"`
	Registering         bool   `json:"registering"`
	ForceAuthentication *bool  `json:"force_authentication,omitempty"`
}

func (s *FraudEventDetected) Kind() Kind { return KindFraudEventDetected }

// PausedRegistration は登録手続き保留(IdPがPENDINGを返した)の終端状態。
type PausedRegistration struct {
	Core
	RelayState string `json:"relay_state,omitempty"`
}

func (s *PausedRegistration) Kind() Kind { return KindPausedRegistration }

// Cycle3DataInputCancelled はcycle-3入力をユーザーが取り消した終端状態。
type Cycle3DataInputCancelled struct {
	Core
	RelayState  string `json:"relay_state,omitempty"`
	IdpEntityID string `json:"idp_entity_id,omitempty"`
}

func (s *Cycle3DataInputCancelled) Kind() Kind { return KindCycle3DataInputCancelled }

// MatchingServiceRequestError はマッチングサービス照会の失敗による終端状態。
type MatchingServiceRequestError struct {
	Core
	IdpEntityID string `json:"idp_entity_id,omitempty"`
	RelayState  string `json:"relay_state,omitempty"`
	Registering bool   `json:"registering"`
}

func (s *MatchingServiceRequestError) Kind() Kind { return KindMatchingServiceRequestError }

// Timeout はセッション期限切れを表す終端状態。期限切れセッションの
// 読み出し時にリポジトリが合成し、ストアへ書き戻す。
type Timeout struct {
	Core
}

func (s *Timeout) Kind() Kind { return KindTimeout }
