package controller

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/alphagov/verify-hub-sub002/internal/config"
	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/events"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// WaitingForMatchingServiceResponseController はマッチングサービス応答待ち
// 状態で合法な操作を提供する。応答のステータスを対応する次状態へ分類する。
type WaitingForMatchingServiceResponseController struct {
	st     *state.WaitingForMatchingServiceResponse
	config ConfigService
	events *events.HubEventLogger
	clock  clockwork.Clock
}

// Overdue は照会送出からの経過時間が応答待ち上限を超えたかどうかを返す。
func (c *WaitingForMatchingServiceResponseController) Overdue() bool {
	return c.clock.Now().After(c.st.RequestSentTime.Add(config.MatchingServiceResponseWaitPeriod))
}

// HandleMatchResponse はマッチング成立応答を処理し、終端の成立状態へ遷移する。
func (c *WaitingForMatchingServiceResponseController) HandleMatchResponse(ctx context.Context, match domain.MatchFromMatchingService) (*Outcome, error) {
	if err := c.validateResponse(match.Issuer, match.InResponseTo); err != nil {
		return nil, err
	}
	next := &state.SuccessfulMatch{
		Core:                      c.st.Core,
		IdpEntityID:               c.st.IdpEntityID,
		MatchingServiceAssertion:  match.MatchingServiceAssertion,
		RelayState:                c.st.RelayState,
		LevelOfAssurance:          c.st.IdpLevelOfAssurance,
		Registering:               c.st.Registering,
		CountrySignedResponseSent: c.st.ViaEidas,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.SuccessResponseAction(c.st.SessionID, c.st.Registering, c.st.IdpLevelOfAssurance),
	}, nil
}

// HandleNoMatchResponse はマッチング不成立応答を処理する。
// cycle-3が未実施かつRPに設定があればcycle-3入力待ちへ、登録ジャーニーで
// アカウント作成属性があれば作成要求を送出し、どちらも不可なら終端の
// 不成立状態へ遷移する。
func (c *WaitingForMatchingServiceResponseController) HandleNoMatchResponse(ctx context.Context, noMatch domain.NoMatchFromMatchingService) (*Outcome, error) {
	if err := c.validateResponse(noMatch.Issuer, noMatch.InResponseTo); err != nil {
		return nil, err
	}

	if !c.st.Cycle3Performed {
		matchingProcess, err := c.config.MatchingProcess(ctx, c.st.RequestIssuerEntityID)
		if err != nil {
			return nil, err
		}
		if matchingProcess.AttributeName != "" {
			return c.fallbackToCycle3(ctx), nil
		}
	}

	if c.st.Registering {
		attributes, err := c.config.UserAccountCreationAttributes(ctx, c.st.RequestIssuerEntityID)
		if err != nil {
			return nil, err
		}
		if len(attributes) > 0 {
			return c.sendUserAccountCreationRequest(ctx, attributes)
		}
	}

	next := &state.NoMatch{
		Core:        c.st.Core,
		IdpEntityID: c.st.IdpEntityID,
		RelayState:  c.st.RelayState,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.OtherResponseAction(c.st.SessionID, c.st.Registering),
	}, nil
}

// HandleRequestFailure はマッチングサービス照会の失敗を処理し、
// セッションを照会失敗の終端状態へ遷移させる。
func (c *WaitingForMatchingServiceResponseController) HandleRequestFailure(ctx context.Context) *Outcome {
	next := &state.MatchingServiceRequestError{
		Core:        c.st.Core,
		IdpEntityID: c.st.IdpEntityID,
		RelayState:  c.st.RelayState,
		Registering: c.st.Registering,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.OtherResponseAction(c.st.SessionID, c.st.Registering),
	}
}

// fallbackToCycle3 は経路に応じたcycle-3入力待ち状態を構築する。
func (c *WaitingForMatchingServiceResponseController) fallbackToCycle3(ctx context.Context) *Outcome {
	c.events.WaitingForCycle3Attributes(ctx, c.st.SessionID)

	var next state.State
	if c.st.ViaEidas {
		next = &state.EidasAwaitingCycle3Data{
			Core:                       c.st.Core,
			CountryEntityID:            c.st.IdpEntityID,
			MatchingServiceEntityID:    c.st.MatchingServiceEntityID,
			RelayState:                 c.st.RelayState,
			EncryptedIdentityAssertion: c.st.EncryptedIdentityAssertion,
			PersistentID:               c.st.PersistentID,
			LevelOfAssurance:           c.st.IdpLevelOfAssurance,
			Registering:                c.st.Registering,
		}
	} else {
		next = &state.AwaitingCycle3Data{
			Core:                              c.st.Core,
			IdpEntityID:                       c.st.IdpEntityID,
			MatchingServiceEntityID:           c.st.MatchingServiceEntityID,
			RelayState:                        c.st.RelayState,
			EncryptedMatchingDatasetAssertion: c.st.EncryptedMatchingDatasetAssertion,
			AuthnStatementAssertion:           c.st.AuthnStatementAssertion,
			PersistentID:                      c.st.PersistentID,
			LevelOfAssurance:                  c.st.IdpLevelOfAssurance,
			Registering:                       c.st.Registering,
		}
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.SuccessResponseAction(c.st.SessionID, c.st.Registering, c.st.IdpLevelOfAssurance),
	}
}

// sendUserAccountCreationRequest はアカウント作成属性付きの照会を生成し、
// 作成要求送出済み状態へ遷移する。
func (c *WaitingForMatchingServiceResponseController) sendUserAccountCreationRequest(ctx context.Context, attributes []string) (*Outcome, error) {
	c.events.UserAccountCreationRequestSent(ctx, c.st.SessionID)

	next := &state.UserAccountCreationRequestSent{
		Core:                    c.st.Core,
		IdpEntityID:             c.st.IdpEntityID,
		MatchingServiceEntityID: c.st.MatchingServiceEntityID,
		RelayState:              c.st.RelayState,
		RequestSentTime:         c.clock.Now(),
		IdpLevelOfAssurance:     c.st.IdpLevelOfAssurance,
		Registering:             c.st.Registering,
	}
	outcome := &Outcome{
		Next:           next,
		ResponseAction: domain.OtherResponseAction(c.st.SessionID, c.st.Registering),
	}

	if c.st.ViaEidas {
		query, err := buildEidasAttributeQuery(ctx, c.config, c.st.Core, c.st.MatchingServiceEntityID, eidasAttributeQuerySource{
			encryptedIdentityAssertion:    c.st.EncryptedIdentityAssertion,
			persistentID:                  c.st.PersistentID,
			levelOfAssurance:              c.st.IdpLevelOfAssurance,
			userAccountCreationAttributes: attributes,
		})
		if err != nil {
			return nil, err
		}
		outcome.EidasAttributeQuery = query
		return outcome, nil
	}

	query, err := buildAttributeQuery(ctx, c.config, c.st.Core, c.st.MatchingServiceEntityID, attributeQuerySource{
		encryptedMatchingDatasetAssertion: c.st.EncryptedMatchingDatasetAssertion,
		authnStatementAssertion:           c.st.AuthnStatementAssertion,
		persistentID:                      c.st.PersistentID,
		levelOfAssurance:                  c.st.IdpLevelOfAssurance,
		userAccountCreationAttributes:     attributes,
	})
	if err != nil {
		return nil, err
	}
	outcome.AttributeQuery = query
	return outcome, nil
}

func (c *WaitingForMatchingServiceResponseController) validateResponse(issuer, inResponseTo string) error {
	if issuer != c.st.MatchingServiceEntityID {
		return domain.WrongResponseIssuerError(c.st.RequestID, issuer, c.st.MatchingServiceEntityID)
	}
	if inResponseTo != c.st.RequestID {
		return domain.WrongInResponseToError(c.st.RequestID, inResponseTo)
	}
	return nil
}

// UserAccountCreationRequestSentController はアカウント作成要求送出済み状態で
// 合法な操作を提供する。
type UserAccountCreationRequestSentController struct {
	st     *state.UserAccountCreationRequestSent
	events *events.HubEventLogger
	clock  clockwork.Clock
}

// Overdue は照会送出からの経過時間が応答待ち上限を超えたかどうかを返す。
func (c *UserAccountCreationRequestSentController) Overdue() bool {
	return c.clock.Now().After(c.st.RequestSentTime.Add(config.MatchingServiceResponseWaitPeriod))
}

// HandleUserAccountCreatedResponse はアカウント作成成功応答を処理する。
func (c *UserAccountCreationRequestSentController) HandleUserAccountCreatedResponse(ctx context.Context, created domain.UserAccountCreatedFromMatchingService) (*Outcome, error) {
	if err := c.validateResponse(created.Issuer, created.InResponseTo); err != nil {
		return nil, err
	}
	next := &state.UserAccountCreated{
		Core:                     c.st.Core,
		IdpEntityID:              c.st.IdpEntityID,
		MatchingServiceAssertion: created.MatchingServiceAssertion,
		RelayState:               c.st.RelayState,
		LevelOfAssurance:         c.st.IdpLevelOfAssurance,
		Registering:              c.st.Registering,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.SuccessResponseAction(c.st.SessionID, c.st.Registering, c.st.IdpLevelOfAssurance),
	}, nil
}

// HandleUserAccountCreationFailedResponse はアカウント作成失敗応答を処理する。
func (c *UserAccountCreationRequestSentController) HandleUserAccountCreationFailedResponse(ctx context.Context, issuer, inResponseTo string) (*Outcome, error) {
	if err := c.validateResponse(issuer, inResponseTo); err != nil {
		return nil, err
	}
	next := &state.UserAccountCreationFailed{
		Core:       c.st.Core,
		RelayState: c.st.RelayState,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.OtherResponseAction(c.st.SessionID, c.st.Registering),
	}, nil
}

// HandleRequestFailure はアカウント作成要求の失敗を処理する。
func (c *UserAccountCreationRequestSentController) HandleRequestFailure(ctx context.Context) *Outcome {
	next := &state.MatchingServiceRequestError{
		Core:        c.st.Core,
		IdpEntityID: c.st.IdpEntityID,
		RelayState:  c.st.RelayState,
		Registering: c.st.Registering,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.OtherResponseAction(c.st.SessionID, c.st.Registering),
	}
}

func (c *UserAccountCreationRequestSentController) validateResponse(issuer, inResponseTo string) error {
	if issuer != c.st.MatchingServiceEntityID {
		return domain.WrongResponseIssuerError(c.st.RequestID, issuer, c.st.MatchingServiceEntityID)
	}
	if inResponseTo != c.st.RequestID {
		return domain.WrongInResponseToError(c.st.RequestID, inResponseTo)
	}
	return nil
}
