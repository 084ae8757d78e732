package controller

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/events"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// EidasCountrySelectedController はeIDAS国選択済み状態で合法な操作を提供する。
type EidasCountrySelectedController struct {
	st     *state.EidasCountrySelected
	config ConfigService
	events *events.HubEventLogger
	clock  clockwork.Clock
}

// IsMatchingJourney はこのRPがマッチングサービスを利用するかどうかを返す。
// 利用しない場合、国からの成功応答はマッチングを経ずRPへ直接返される。
func (c *EidasCountrySelectedController) IsMatchingJourney(ctx context.Context) (bool, error) {
	txConfig, err := c.config.TransactionConfig(ctx, c.st.RequestIssuerEntityID)
	if err != nil {
		return false, err
	}
	return txConfig.UsingMatching, nil
}

// SelectCountry は認証国の選択し直しを処理し、新しいEidasCountrySelected
// 状態を返す。国が選択可能かどうかの検証は呼び出し側(CountriesService)が行う。
func (c *EidasCountrySelectedController) SelectCountry(ctx context.Context, countryEntityID string, registering bool, requestedLoa domain.LevelOfAssurance) (*state.EidasCountrySelected, error) {
	if !c.st.TransactionSupportsEidas {
		return nil, domain.ErrEidasNotSupported
	}
	next := &state.EidasCountrySelected{
		Core:            c.st.Core,
		CountryEntityID: countryEntityID,
		RelayState:      c.st.RelayState,
		Registering:     registering,
		RequestedLoa:    requestedLoa,
	}
	c.events.CountrySelected(ctx, c.st.SessionID, countryEntityID)
	return next, nil
}

// Restart はジャーニーをIdP/国未選択の初期状態へ巻き戻す。
func (c *EidasCountrySelectedController) Restart() *state.SessionStarted {
	return &state.SessionStarted{
		Core:       c.st.Core,
		RelayState: c.st.RelayState,
	}
}

// HandleMatchingJourneySuccessResponse は国からの認証成功応答を
// マッチングジャーニーとして処理する。cycle-3属性が必要な場合は
// 入力待ち状態へ、不要な場合はeIDAS照会を生成して応答待ち状態へ遷移する。
func (c *EidasCountrySelectedController) HandleMatchingJourneySuccessResponse(ctx context.Context, success domain.SuccessFromCountry) (*Outcome, error) {
	if !success.LevelOfAssurance.AtLeast(c.st.RequestedLoa) {
		return nil, domain.WrongLevelOfAssuranceError(c.st.RequestID, success.LevelOfAssurance, []domain.LevelOfAssurance{c.st.RequestedLoa})
	}

	c.events.IdpAuthnSucceeded(ctx, c.st.SessionID, c.st.CountryEntityID, success.PersistentID, success.LevelOfAssurance, "")

	txConfig, err := c.config.TransactionConfig(ctx, c.st.RequestIssuerEntityID)
	if err != nil {
		return nil, err
	}

	matchingProcess, err := c.config.MatchingProcess(ctx, c.st.RequestIssuerEntityID)
	if err != nil {
		return nil, err
	}
	if matchingProcess.AttributeName != "" {
		c.events.WaitingForCycle3Attributes(ctx, c.st.SessionID)
		next := &state.EidasAwaitingCycle3Data{
			Core:                       c.st.Core,
			CountryEntityID:            c.st.CountryEntityID,
			MatchingServiceEntityID:    txConfig.MatchingServiceEntityID,
			RelayState:                 c.st.RelayState,
			EncryptedIdentityAssertion: success.EncryptedIdentityAssertionBlob,
			PersistentID:               success.PersistentID,
			LevelOfAssurance:           success.LevelOfAssurance,
			Registering:                c.st.Registering,
		}
		return &Outcome{
			Next:           next,
			ResponseAction: domain.SuccessResponseAction(c.st.SessionID, c.st.Registering, success.LevelOfAssurance),
		}, nil
	}

	query, err := buildEidasAttributeQuery(ctx, c.config, c.st.Core, txConfig.MatchingServiceEntityID, eidasAttributeQuerySource{
		encryptedIdentityAssertion: success.EncryptedIdentityAssertionBlob,
		persistentID:               success.PersistentID,
		levelOfAssurance:           success.LevelOfAssurance,
	})
	if err != nil {
		return nil, err
	}

	next := &state.WaitingForMatchingServiceResponse{
		Core:                       c.st.Core,
		IdpEntityID:                c.st.CountryEntityID,
		MatchingServiceEntityID:    txConfig.MatchingServiceEntityID,
		RelayState:                 c.st.RelayState,
		RequestSentTime:            c.clock.Now(),
		IdpLevelOfAssurance:        success.LevelOfAssurance,
		Registering:                c.st.Registering,
		ViaEidas:                   true,
		EncryptedIdentityAssertion: success.EncryptedIdentityAssertionBlob,
		PersistentID:               success.PersistentID,
	}
	return &Outcome{
		Next:                next,
		ResponseAction:      domain.SuccessResponseAction(c.st.SessionID, c.st.Registering, success.LevelOfAssurance),
		EidasAttributeQuery: query,
	}, nil
}

// HandleNonMatchingJourneySuccessResponse は国からの認証成功応答を
// マッチング省略ジャーニーとして処理する。暗号化済みアサーションを
// そのまま保持し、RPへの直接応答に使う。
func (c *EidasCountrySelectedController) HandleNonMatchingJourneySuccessResponse(ctx context.Context, success domain.SuccessFromCountry) (*Outcome, error) {
	if !success.LevelOfAssurance.AtLeast(c.st.RequestedLoa) {
		return nil, domain.WrongLevelOfAssuranceError(c.st.RequestID, success.LevelOfAssurance, []domain.LevelOfAssurance{c.st.RequestedLoa})
	}

	c.events.IdpAuthnSucceeded(ctx, c.st.SessionID, c.st.CountryEntityID, success.PersistentID, success.LevelOfAssurance, "")

	next := &state.NonMatchingJourneySuccess{
		Core:                c.st.Core,
		IdpEntityID:         c.st.CountryEntityID,
		RelayState:          c.st.RelayState,
		EncryptedAssertions: []string{success.EncryptedIdentityAssertionBlob},
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.NonMatchingJourneySuccessResponseAction(c.st.SessionID, c.st.Registering, success.LevelOfAssurance),
	}, nil
}

// HandleAuthenticationFailedResponse は国での認証失敗応答を処理する。
func (c *EidasCountrySelectedController) HandleAuthenticationFailedResponse(ctx context.Context) *Outcome {
	c.events.IdpAuthnFailed(ctx, c.st.SessionID, c.st.CountryEntityID)
	next := &state.AuthnFailedError{
		Core:        c.st.Core,
		RelayState:  c.st.RelayState,
		IdpEntityID: c.st.CountryEntityID,
	}
	return &Outcome{
		Next:           next,
		ResponseAction: domain.OtherResponseAction(c.st.SessionID, c.st.Registering),
	}
}

// eidasAttributeQuerySource はeIDAS照会の生成に必要な国応答由来の値。
type eidasAttributeQuerySource struct {
	encryptedIdentityAssertion    string
	persistentID                  domain.PersistentID
	levelOfAssurance              domain.LevelOfAssurance
	cycle3Dataset                 *domain.Cycle3Dataset
	userAccountCreationAttributes []string
}

// buildEidasAttributeQuery はSAMLエンジンに渡すeIDAS照会生成要求を構築する。
func buildEidasAttributeQuery(ctx context.Context, config ConfigService, core state.Core, matchingServiceEntityID string, src eidasAttributeQuerySource) (*proxy.EidasAttributeQueryRequest, error) {
	msConfig, err := config.MatchingServiceConfig(ctx, matchingServiceEntityID)
	if err != nil {
		return nil, err
	}
	return &proxy.EidasAttributeQueryRequest{
		RequestID:                     core.RequestID,
		SessionID:                     core.SessionID,
		EncryptedIdentityAssertion:    src.encryptedIdentityAssertion,
		Cycle3Dataset:                 src.cycle3Dataset,
		UserAccountCreationAttributes: src.userAccountCreationAttributes,
		AuthnRequestIssuerEntityID:    core.RequestIssuerEntityID,
		AssertionConsumerServiceURI:   core.AssertionConsumerServiceURI,
		LevelOfAssurance:              src.levelOfAssurance,
		PersistentID:                  src.persistentID,
		MatchingServiceEntityID:       matchingServiceEntityID,
		OnboardingRequest:             msConfig.Onboarding,
	}, nil
}
