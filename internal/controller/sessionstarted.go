package controller

import (
	"context"
	"fmt"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/events"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// SessionStartedController はIdP/国未選択の初期状態で合法な操作を提供する。
type SessionStartedController struct {
	st     *state.SessionStarted
	config ConfigService
	events *events.HubEventLogger
}

// SelectIdp はIdP選択を処理し、IdpSelected状態を返す。
// 選択されたIdPがこのRP・目的・保証レベルで有効でない場合は失敗する。
func (c *SessionStartedController) SelectIdp(ctx context.Context, idpEntityID string, registering bool, requestedLoa domain.LevelOfAssurance) (*state.IdpSelected, error) {
	next, err := buildIdpSelected(ctx, c.config, c.st.Core, c.st.RelayState, c.st.ForceAuthentication, idpEntityID, registering, requestedLoa)
	if err != nil {
		return nil, err
	}
	c.events.IdpSelected(ctx, c.st.SessionID, idpEntityID, requestedLoa)
	return next, nil
}

// SelectCountry はeIDAS国選択を処理し、EidasCountrySelected状態を返す。
// 国が選択可能かどうかの検証は呼び出し側(CountriesService)が行う。
func (c *SessionStartedController) SelectCountry(ctx context.Context, countryEntityID string, registering bool, requestedLoa domain.LevelOfAssurance) (*state.EidasCountrySelected, error) {
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

// AuthnFailedErrorController はIdP認証失敗状態で合法な操作を提供する。
// 別のIdPを再選択してジャーニーを継続できる。
type AuthnFailedErrorController struct {
	st     *state.AuthnFailedError
	config ConfigService
	events *events.HubEventLogger
}

// SelectIdp は認証失敗後のIdP再選択を処理し、IdpSelected状態を返す。
func (c *AuthnFailedErrorController) SelectIdp(ctx context.Context, idpEntityID string, registering bool, requestedLoa domain.LevelOfAssurance) (*state.IdpSelected, error) {
	next, err := buildIdpSelected(ctx, c.config, c.st.Core, c.st.RelayState, c.st.ForceAuthentication, idpEntityID, registering, requestedLoa)
	if err != nil {
		return nil, err
	}
	c.events.IdpSelected(ctx, c.st.SessionID, idpEntityID, requestedLoa)
	return next, nil
}

// Restart はジャーニーをIdP未選択の初期状態へ巻き戻す。
func (c *AuthnFailedErrorController) Restart() *state.SessionStarted {
	return &state.SessionStarted{
		Core:                c.st.Core,
		RelayState:          c.st.RelayState,
		ForceAuthentication: c.st.ForceAuthentication,
	}
}

// buildIdpSelected は設定サービスで有効IdP一覧を解決し、選択されたIdPが
// 含まれることを検証したうえでIdpSelected状態を構築する。
func buildIdpSelected(ctx context.Context, config ConfigService, core state.Core, relayState string, forceAuthn *bool, idpEntityID string, registering bool, requestedLoa domain.LevelOfAssurance) (*state.IdpSelected, error) {
	if !requestedLoa.IsValid() {
		return nil, &domain.StateProcessingValidationError{
			RequestID: core.RequestID,
			Message:   fmt.Sprintf("invalid requested level of assurance %q", requestedLoa),
		}
	}

	available, err := config.EnabledIdentityProviders(ctx, core.RequestIssuerEntityID, registering, requestedLoa)
	if err != nil {
		return nil, err
	}
	enabled := false
	for _, entityID := range available {
		if entityID == idpEntityID {
			enabled = true
			break
		}
	}
	if !enabled {
		return nil, fmt.Errorf("idp %s for transaction %s: %w", idpEntityID, core.RequestIssuerEntityID, domain.ErrIdpDisabled)
	}

	return &state.IdpSelected{
		Core:                       core,
		IdpEntityID:                idpEntityID,
		RelayState:                 relayState,
		Registering:                registering,
		RequestedLoa:               requestedLoa,
		AvailableIdentityProviders: available,
		ForceAuthentication:        forceAuthn,
	}, nil
}
