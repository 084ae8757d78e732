// Package controller はセッション状態ごとの操作を提供する。
//
// 各コントローラは自状態で合法な操作だけを公開し、操作の結果として
// 次状態とResponseActionを計算して返す。永続化は行わない。計算した
// 次状態のコミットは呼び出し側(サービス層)の責務であり、コミット前の
// 失敗は既存状態を変化させない。
package controller

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/events"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// ConfigService はコントローラが参照する設定サービスの読み出し操作。
type ConfigService interface {
	TransactionConfig(ctx context.Context, transactionEntityID string) (*proxy.TransactionConfig, error)
	MatchingProcess(ctx context.Context, transactionEntityID string) (*proxy.MatchingProcess, error)
	UserAccountCreationAttributes(ctx context.Context, transactionEntityID string) ([]string, error)
	EnabledIdentityProviders(ctx context.Context, transactionEntityID string, registering bool, loa domain.LevelOfAssurance) ([]string, error)
	MatchingServiceConfig(ctx context.Context, matchingServiceEntityID string) (*proxy.MatchingServiceConfig, error)
}

// Outcome は単一のコントローラ操作の結果を表す。
// Nextがnilの場合、状態遷移は発生しない(保留応答など)。
// AttributeQuery/EidasAttributeQueryが非nilの場合、呼び出し側は
// SAMLエンジンで照会を生成しマッチングサービスへ送出する。
type Outcome struct {
	Next                state.State
	ResponseAction      domain.ResponseAction
	AttributeQuery      *proxy.AttributeQueryRequest
	EidasAttributeQuery *proxy.EidasAttributeQueryRequest
}

// Factory は状態インスタンスから対応するコントローラを構築する。
type Factory struct {
	config ConfigService
	events *events.HubEventLogger
	clock  clockwork.Clock
}

// NewFactory はFactoryを生成する。
func NewFactory(config ConfigService, eventLogger *events.HubEventLogger, clock clockwork.Clock) *Factory {
	return &Factory{config: config, events: eventLogger, clock: clock}
}

// SessionStarted はSessionStarted状態のコントローラを返す。
func (f *Factory) SessionStarted(st *state.SessionStarted) *SessionStartedController {
	return &SessionStartedController{st: st, config: f.config, events: f.events}
}

// IdpSelected はIdpSelected状態のコントローラを返す。
func (f *Factory) IdpSelected(st *state.IdpSelected) *IdpSelectedController {
	return &IdpSelectedController{st: st, config: f.config, events: f.events, clock: f.clock}
}

// EidasCountrySelected はEidasCountrySelected状態のコントローラを返す。
func (f *Factory) EidasCountrySelected(st *state.EidasCountrySelected) *EidasCountrySelectedController {
	return &EidasCountrySelectedController{st: st, config: f.config, events: f.events, clock: f.clock}
}

// AwaitingCycle3Data はIdP経路のcycle-3入力待ち状態のコントローラを返す。
func (f *Factory) AwaitingCycle3Data(st *state.AwaitingCycle3Data) *AwaitingCycle3DataController {
	return &AwaitingCycle3DataController{idp: st, config: f.config, events: f.events, clock: f.clock}
}

// EidasAwaitingCycle3Data はeIDAS経路のcycle-3入力待ち状態のコントローラを返す。
func (f *Factory) EidasAwaitingCycle3Data(st *state.EidasAwaitingCycle3Data) *AwaitingCycle3DataController {
	return &AwaitingCycle3DataController{eidas: st, config: f.config, events: f.events, clock: f.clock}
}

// WaitingForMatchingServiceResponse はマッチングサービス応答待ち状態のコントローラを返す。
func (f *Factory) WaitingForMatchingServiceResponse(st *state.WaitingForMatchingServiceResponse) *WaitingForMatchingServiceResponseController {
	return &WaitingForMatchingServiceResponseController{st: st, config: f.config, events: f.events, clock: f.clock}
}

// UserAccountCreationRequestSent はアカウント作成要求送出済み状態のコントローラを返す。
func (f *Factory) UserAccountCreationRequestSent(st *state.UserAccountCreationRequestSent) *UserAccountCreationRequestSentController {
	return &UserAccountCreationRequestSentController{st: st, events: f.events, clock: f.clock}
}

// AuthnFailedError はIdP認証失敗状態のコントローラを返す。
func (f *Factory) AuthnFailedError(st *state.AuthnFailedError) *AuthnFailedErrorController {
	return &AuthnFailedErrorController{st: st, config: f.config, events: f.events}
}
