package controller

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/events"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// AwaitingCycle3DataController はcycle-3属性の入力待ち状態で合法な操作を
// 提供する。IdP経路とeIDAS経路の両方の入力待ち状態を扱う。
type AwaitingCycle3DataController struct {
	idp    *state.AwaitingCycle3Data
	eidas  *state.EidasAwaitingCycle3Data
	config ConfigService
	events *events.HubEventLogger
	clock  clockwork.Clock
}

func (c *AwaitingCycle3DataController) core() state.Core {
	if c.eidas != nil {
		return c.eidas.Core
	}
	return c.idp.Core
}

func (c *AwaitingCycle3DataController) registering() bool {
	if c.eidas != nil {
		return c.eidas.Registering
	}
	return c.idp.Registering
}

// Cycle3AttributeRequestData はRPに追加入力を求める属性の名前と発行者を返す。
// 読み出しのみで状態は変化しない。
func (c *AwaitingCycle3DataController) Cycle3AttributeRequestData(ctx context.Context) (*domain.Cycle3AttributeRequestData, error) {
	core := c.core()
	matchingProcess, err := c.config.MatchingProcess(ctx, core.RequestIssuerEntityID)
	if err != nil {
		return nil, err
	}
	if matchingProcess.AttributeName == "" {
		return nil, domain.MissingMandatoryAttributeError(core.RequestID, "cycle3 attribute name")
	}
	return &domain.Cycle3AttributeRequestData{
		AttributeName:   matchingProcess.AttributeName,
		RequestIssuerID: core.RequestIssuerEntityID,
	}, nil
}

// HandleCycle3DataSubmitted はユーザーが入力したcycle-3属性を処理し、
// 属性付きのマッチングサービス照会を生成して応答待ち状態へ遷移する。
func (c *AwaitingCycle3DataController) HandleCycle3DataSubmitted(ctx context.Context, input domain.Cycle3UserInput) (*Outcome, error) {
	requestData, err := c.Cycle3AttributeRequestData(ctx)
	if err != nil {
		return nil, err
	}
	dataset := domain.NewCycle3Dataset(requestData.AttributeName, input.Cycle3Input)
	core := c.core()

	c.events.Cycle3DataObtained(ctx, core.SessionID, requestData.AttributeName, input.PrincipalIPAddress)

	if c.eidas != nil {
		query, err := buildEidasAttributeQuery(ctx, c.config, core, c.eidas.MatchingServiceEntityID, eidasAttributeQuerySource{
			encryptedIdentityAssertion: c.eidas.EncryptedIdentityAssertion,
			persistentID:               c.eidas.PersistentID,
			levelOfAssurance:           c.eidas.LevelOfAssurance,
			cycle3Dataset:              &dataset,
		})
		if err != nil {
			return nil, err
		}
		next := &state.WaitingForMatchingServiceResponse{
			Core:                       core,
			IdpEntityID:                c.eidas.CountryEntityID,
			MatchingServiceEntityID:    c.eidas.MatchingServiceEntityID,
			RelayState:                 c.eidas.RelayState,
			RequestSentTime:            c.clock.Now(),
			IdpLevelOfAssurance:        c.eidas.LevelOfAssurance,
			Registering:                c.eidas.Registering,
			ViaEidas:                   true,
			Cycle3Performed:            true,
			EncryptedIdentityAssertion: c.eidas.EncryptedIdentityAssertion,
			PersistentID:               c.eidas.PersistentID,
		}
		return &Outcome{
			Next:                next,
			ResponseAction:      domain.SuccessResponseAction(core.SessionID, c.eidas.Registering, c.eidas.LevelOfAssurance),
			EidasAttributeQuery: query,
		}, nil
	}

	query, err := buildAttributeQuery(ctx, c.config, core, c.idp.MatchingServiceEntityID, attributeQuerySource{
		encryptedMatchingDatasetAssertion: c.idp.EncryptedMatchingDatasetAssertion,
		authnStatementAssertion:           c.idp.AuthnStatementAssertion,
		persistentID:                      c.idp.PersistentID,
		levelOfAssurance:                  c.idp.LevelOfAssurance,
		cycle3Dataset:                     &dataset,
	})
	if err != nil {
		return nil, err
	}
	next := &state.WaitingForMatchingServiceResponse{
		Core:                              core,
		IdpEntityID:                       c.idp.IdpEntityID,
		MatchingServiceEntityID:           c.idp.MatchingServiceEntityID,
		RelayState:                        c.idp.RelayState,
		RequestSentTime:                   c.clock.Now(),
		IdpLevelOfAssurance:               c.idp.LevelOfAssurance,
		Registering:                       c.idp.Registering,
		Cycle3Performed:                   true,
		EncryptedMatchingDatasetAssertion: c.idp.EncryptedMatchingDatasetAssertion,
		AuthnStatementAssertion:           c.idp.AuthnStatementAssertion,
		PersistentID:                      c.idp.PersistentID,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.SuccessResponseAction(core.SessionID, c.idp.Registering, c.idp.LevelOfAssurance),
		AttributeQuery: query,
	}, nil
}

// HandleCycle3Cancelled はユーザーによるcycle-3入力の取り消しを処理する。
func (c *AwaitingCycle3DataController) HandleCycle3Cancelled(ctx context.Context) *Outcome {
	core := c.core()
	c.events.Cycle3Cancelled(ctx, core.SessionID)

	next := &state.Cycle3DataInputCancelled{Core: core}
	if c.eidas != nil {
		next.RelayState = c.eidas.RelayState
		next.IdpEntityID = c.eidas.CountryEntityID
	} else {
		next.RelayState = c.idp.RelayState
		next.IdpEntityID = c.idp.IdpEntityID
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.CancelResponseAction(core.SessionID, c.registering()),
	}
}
