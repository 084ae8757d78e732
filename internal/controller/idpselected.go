package controller

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/events"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// IdpSelectedController はIdP選択済み状態で合法な操作を提供する。
// SAMLエンジンが分類したIdP応答の結果ごとにハンドラを持つ。
type IdpSelectedController struct {
	st     *state.IdpSelected
	config ConfigService
	events *events.HubEventLogger
	clock  clockwork.Clock

	// matchingServiceEntityIDはコントローラ生存期間中キャッシュする
	matchingServiceEntityID string
}

// IsRegistrationContext は登録ジャーニーかどうかを返す。
func (c *IdpSelectedController) IsRegistrationContext() bool {
	return c.st.Registering
}

// SelectIdp はIdPの選択し直しを処理し、新しいIdpSelected状態を返す。
// IdPへ遷移する前であれば、ユーザーは別のIdPを選び直せる。
func (c *IdpSelectedController) SelectIdp(ctx context.Context, idpEntityID string, registering bool, requestedLoa domain.LevelOfAssurance) (*state.IdpSelected, error) {
	next, err := buildIdpSelected(ctx, c.config, c.st.Core, c.st.RelayState, c.st.ForceAuthentication, idpEntityID, registering, requestedLoa)
	if err != nil {
		return nil, err
	}
	c.events.IdpSelected(ctx, c.st.SessionID, idpEntityID, requestedLoa)
	return next, nil
}

// MatchingServiceEntityID はこのRPに紐づくマッチングサービスのエンティティIDを返す。
func (c *IdpSelectedController) MatchingServiceEntityID(ctx context.Context) (string, error) {
	if c.matchingServiceEntityID != "" {
		return c.matchingServiceEntityID, nil
	}
	txConfig, err := c.config.TransactionConfig(ctx, c.st.RequestIssuerEntityID)
	if err != nil {
		return "", err
	}
	c.matchingServiceEntityID = txConfig.MatchingServiceEntityID
	return c.matchingServiceEntityID, nil
}

// HandleSuccessResponse はIdP認証成功応答を処理する。
// 達成LOAが要求LOAを下回る場合は遷移せず失敗する。cycle-3属性が
// 必要な場合は入力待ち状態へ、不要な場合はマッチングサービス照会を
// 生成して応答待ち状態へ遷移する。
func (c *IdpSelectedController) HandleSuccessResponse(ctx context.Context, success domain.SuccessFromIdp) (*Outcome, error) {
	if !success.LevelOfAssurance.AtLeast(c.st.RequestedLoa) {
		return nil, domain.WrongLevelOfAssuranceError(c.st.RequestID, success.LevelOfAssurance, []domain.LevelOfAssurance{c.st.RequestedLoa})
	}

	c.events.IdpAuthnSucceeded(ctx, c.st.SessionID, c.st.IdpEntityID, success.PersistentID, success.LevelOfAssurance, success.PrincipalIPAddressAsSeenByIdp)

	matchingServiceEntityID, err := c.MatchingServiceEntityID(ctx)
	if err != nil {
		return nil, err
	}

	matchingProcess, err := c.config.MatchingProcess(ctx, c.st.RequestIssuerEntityID)
	if err != nil {
		return nil, err
	}
	if matchingProcess.AttributeName != "" {
		c.events.WaitingForCycle3Attributes(ctx, c.st.SessionID)
		next := &state.AwaitingCycle3Data{
			Core:                              c.st.Core,
			IdpEntityID:                       c.st.IdpEntityID,
			MatchingServiceEntityID:           matchingServiceEntityID,
			RelayState:                        c.st.RelayState,
			EncryptedMatchingDatasetAssertion: success.EncryptedMatchingDatasetAssertion,
			AuthnStatementAssertion:           success.AuthnStatementAssertion,
			PersistentID:                      success.PersistentID,
			LevelOfAssurance:                  success.LevelOfAssurance,
			Registering:                       c.st.Registering,
		}
		return &Outcome{
			Next:           next,
			ResponseAction: domain.SuccessResponseAction(c.st.SessionID, c.st.Registering, success.LevelOfAssurance),
		}, nil
	}

	query, err := buildAttributeQuery(ctx, c.config, c.st.Core, matchingServiceEntityID, attributeQuerySource{
		encryptedMatchingDatasetAssertion: success.EncryptedMatchingDatasetAssertion,
		authnStatementAssertion:           success.AuthnStatementAssertion,
		persistentID:                      success.PersistentID,
		levelOfAssurance:                  success.LevelOfAssurance,
	})
	if err != nil {
		return nil, err
	}

	next := &state.WaitingForMatchingServiceResponse{
		Core:                              c.st.Core,
		IdpEntityID:                       c.st.IdpEntityID,
		MatchingServiceEntityID:           matchingServiceEntityID,
		RelayState:                        c.st.RelayState,
		RequestSentTime:                   c.clock.Now(),
		IdpLevelOfAssurance:               success.LevelOfAssurance,
		Registering:                       c.st.Registering,
		EncryptedMatchingDatasetAssertion: success.EncryptedMatchingDatasetAssertion,
		AuthnStatementAssertion:           success.AuthnStatementAssertion,
		PersistentID:                      success.PersistentID,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.SuccessResponseAction(c.st.SessionID, c.st.Registering, success.LevelOfAssurance),
		AttributeQuery: query,
	}, nil
}

// HandleFraudResponse はIdPからの不正イベント応答を処理する。
// 監査イベントのみ記録し、照会は送出せず不正検知の終端状態へ遷移する。
func (c *IdpSelectedController) HandleFraudResponse(ctx context.Context, fraud domain.FraudFromIdp) *Outcome {
	c.events.FraudDetected(ctx, c.st.SessionID, c.st.IdpEntityID, fraud.FraudDetails)
	next := &state.FraudEventDetected{
		Core:                c.st.Core,
		IdpEntityID:         c.st.IdpEntityID,
		RelayState:          c.st.RelayState,
		Registering:         c.st.Registering,
		ForceAuthentication: c.st.ForceAuthentication,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.OtherResponseAction(c.st.SessionID, c.st.Registering),
	}
}

// HandleAuthenticationFailedResponse はIdPでの認証失敗応答を処理する。
func (c *IdpSelectedController) HandleAuthenticationFailedResponse(ctx context.Context) *Outcome {
	c.events.IdpAuthnFailed(ctx, c.st.SessionID, c.st.IdpEntityID)
	next := &state.AuthnFailedError{
		Core:                c.st.Core,
		RelayState:          c.st.RelayState,
		IdpEntityID:         c.st.IdpEntityID,
		ForceAuthentication: c.st.ForceAuthentication,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.OtherResponseAction(c.st.SessionID, c.st.Registering),
	}
}

// HandleNoAuthenticationContextResponse は認証コンテキスト無し応答を処理する。
// 登録ジャーニーではユーザーのキャンセルとみなし初期状態へ巻き戻す。
// サインインでは認証失敗として扱う。
func (c *IdpSelectedController) HandleNoAuthenticationContextResponse(ctx context.Context) *Outcome {
	c.events.NoAuthnContext(ctx, c.st.SessionID, c.st.IdpEntityID)
	if c.st.Registering {
		next := &state.SessionStarted{
			Core:                c.st.Core,
			RelayState:          c.st.RelayState,
			ForceAuthentication: c.st.ForceAuthentication,
		}
		return &Outcome{
			Next:           next,
			ResponseAction: domain.CancelResponseAction(c.st.SessionID, c.st.Registering),
		}
	}
	next := &state.AuthnFailedError{
		Core:                c.st.Core,
		RelayState:          c.st.RelayState,
		IdpEntityID:         c.st.IdpEntityID,
		ForceAuthentication: c.st.ForceAuthentication,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.OtherResponseAction(c.st.SessionID, c.st.Registering),
	}
}

// HandleAuthenticationCancelledResponse はユーザーによるIdP認証の取り消しを処理する。
func (c *IdpSelectedController) HandleAuthenticationCancelledResponse(ctx context.Context) *Outcome {
	c.events.NoAuthnContext(ctx, c.st.SessionID, c.st.IdpEntityID)
	next := &state.SessionStarted{
		Core:                c.st.Core,
		RelayState:          c.st.RelayState,
		ForceAuthentication: c.st.ForceAuthentication,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.CancelResponseAction(c.st.SessionID, c.st.Registering),
	}
}

// HandleUpliftFailedResponse はLOA引き上げ失敗応答を処理する。
func (c *IdpSelectedController) HandleUpliftFailedResponse(ctx context.Context) *Outcome {
	c.events.IdpAuthnFailed(ctx, c.st.SessionID, c.st.IdpEntityID)
	next := &state.AuthnFailedError{
		Core:                c.st.Core,
		RelayState:          c.st.RelayState,
		IdpEntityID:         c.st.IdpEntityID,
		ForceAuthentication: c.st.ForceAuthentication,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.FailedUpliftResponseAction(c.st.SessionID, c.st.Registering),
	}
}

// HandleRequesterErrorResponse はRP側の要求不備を示す応答を処理する。
func (c *IdpSelectedController) HandleRequesterErrorResponse(ctx context.Context, resp domain.RequesterErrorResponse) *Outcome {
	c.events.IdpRequesterError(ctx, c.st.SessionID, resp.ErrorMessage)
	next := &state.RequesterError{
		Core:       c.st.Core,
		RelayState: c.st.RelayState,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.OtherResponseAction(c.st.SessionID, c.st.Registering),
	}
}

// HandlePendingResponse は再認証保留応答を処理する。
// 状態遷移は発生しない。セッションはIdP選択済みのまま維持され、
// IdPでのジャーニーを再試行できる。
func (c *IdpSelectedController) HandlePendingResponse(ctx context.Context) *Outcome {
	c.events.IdpAuthnPending(ctx, c.st.SessionID, c.st.IdpEntityID)
	return &Outcome{
		ResponseAction: domain.PendingResponseAction(c.st.SessionID),
	}
}

// HandlePausedRegistration は登録手続きの中断保存を処理する。
func (c *IdpSelectedController) HandlePausedRegistration(ctx context.Context) *Outcome {
	c.events.IdpAuthnPending(ctx, c.st.SessionID, c.st.IdpEntityID)
	next := &state.PausedRegistration{
		Core:       c.st.Core,
		RelayState: c.st.RelayState,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.PendingResponseAction(c.st.SessionID),
	}
}

// attributeQuerySource はマッチングサービス照会の生成に必要なIdP応答由来の値。
type attributeQuerySource struct {
	encryptedMatchingDatasetAssertion string
	authnStatementAssertion           string
	persistentID                      domain.PersistentID
	levelOfAssurance                  domain.LevelOfAssurance
	cycle3Dataset                     *domain.Cycle3Dataset
	userAccountCreationAttributes     []string
}

// buildAttributeQuery はSAMLエンジンに渡す照会生成要求を構築する。
func buildAttributeQuery(ctx context.Context, config ConfigService, core state.Core, matchingServiceEntityID string, src attributeQuerySource) (*proxy.AttributeQueryRequest, error) {
	msConfig, err := config.MatchingServiceConfig(ctx, matchingServiceEntityID)
	if err != nil {
		return nil, err
	}
	return &proxy.AttributeQueryRequest{
		RequestID:                         core.RequestID,
		SessionID:                         core.SessionID,
		EncryptedMatchingDatasetAssertion: src.encryptedMatchingDatasetAssertion,
		AuthnStatementAssertion:           src.authnStatementAssertion,
		Cycle3Dataset:                     src.cycle3Dataset,
		UserAccountCreationAttributes:     src.userAccountCreationAttributes,
		AuthnRequestIssuerEntityID:        core.RequestIssuerEntityID,
		AssertionConsumerServiceURI:       core.AssertionConsumerServiceURI,
		LevelOfAssurance:                  src.levelOfAssurance,
		PersistentID:                      src.persistentID,
		MatchingServiceEntityID:           matchingServiceEntityID,
		OnboardingRequest:                 msConfig.Onboarding,
	}, nil
}
