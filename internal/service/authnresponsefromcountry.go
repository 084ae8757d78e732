package service

import (
	"context"
	"fmt"

	"github.com/alphagov/verify-hub-sub002/internal/controller"
	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/internal/session"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// AuthnResponseFromCountryService はeIDAS国からの認証応答の受理を担う。
type AuthnResponseFromCountryService struct {
	repo           *session.Repository
	factory        *controller.Factory
	samlEngine     SamlEngine
	attributeQuery *AttributeQueryService
}

// NewAuthnResponseFromCountryService はAuthnResponseFromCountryServiceを生成する。
func NewAuthnResponseFromCountryService(repo *session.Repository, factory *controller.Factory, samlEngine SamlEngine, attributeQuery *AttributeQueryService) *AuthnResponseFromCountryService {
	return &AuthnResponseFromCountryService{
		repo:           repo,
		factory:        factory,
		samlEngine:     samlEngine,
		attributeQuery: attributeQuery,
	}
}

// ReceiveAuthnResponseFromCountry は国からのSAML応答を受理して処理する。
// RPがマッチングサービスを利用する場合は照会を送出し、利用しない場合は
// 暗号化済みアサーションを保持したままRPへの直接応答に備える。
func (s *AuthnResponseFromCountryService) ReceiveAuthnResponseFromCountry(ctx context.Context, sessionID domain.SessionID, container SamlResponseContainer) (domain.ResponseAction, error) {
	st, version, err := s.repo.GetState(ctx, sessionID, state.KindEidasCountrySelected)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	selected := st.(*state.EidasCountrySelected)
	ctrl := s.factory.EidasCountrySelected(selected)

	inbound, err := s.samlEngine.TranslateCountryAuthnResponse(ctx, proxy.SamlAuthnResponseTranslation{
		SamlResponse:       container.SamlResponse,
		SessionID:          sessionID,
		PrincipalIPAddress: container.PrincipalIPAddress,
		ExpectedLoa:        selected.RequestedLoa,
	})
	if err != nil {
		return domain.ResponseAction{}, err
	}
	if inbound.Issuer != selected.CountryEntityID {
		return domain.ResponseAction{}, domain.WrongResponseIssuerError(selected.RequestID, inbound.Issuer, selected.CountryEntityID)
	}

	outcome, err := s.dispatch(ctx, ctrl, container, inbound)
	if err != nil {
		return domain.ResponseAction{}, err
	}

	if outcome.Next != nil {
		if err := s.repo.Save(ctx, outcome.Next, version); err != nil {
			return domain.ResponseAction{}, err
		}
	}
	if err := s.attributeQuery.SendFromOutcome(ctx, sessionID, outcome); err != nil {
		return domain.ResponseAction{}, err
	}
	return outcome.ResponseAction, nil
}

func (s *AuthnResponseFromCountryService) dispatch(ctx context.Context, ctrl *controller.EidasCountrySelectedController, container SamlResponseContainer, inbound *proxy.InboundResponseFromCountry) (*controller.Outcome, error) {
	switch inbound.Status {
	case proxy.IdpStatusSuccess:
		success, err := successFromCountry(container, inbound)
		if err != nil {
			return nil, err
		}
		matching, err := ctrl.IsMatchingJourney(ctx)
		if err != nil {
			return nil, err
		}
		if matching {
			return ctrl.HandleMatchingJourneySuccessResponse(ctx, success)
		}
		return ctrl.HandleNonMatchingJourneySuccessResponse(ctx, success)
	case proxy.IdpStatusAuthenticationFailed, proxy.IdpStatusNoAuthenticationContext:
		return ctrl.HandleAuthenticationFailedResponse(ctx), nil
	default:
		return nil, &domain.StateProcessingValidationError{
			Message: fmt.Sprintf("unknown country response status %q", inbound.Status),
		}
	}
}

func successFromCountry(container SamlResponseContainer, inbound *proxy.InboundResponseFromCountry) (domain.SuccessFromCountry, error) {
	if inbound.PersistentID == nil {
		return domain.SuccessFromCountry{}, domain.MissingMandatoryAttributeError("", "persistent_id")
	}
	if inbound.LevelOfAssurance == nil {
		return domain.SuccessFromCountry{}, domain.MissingMandatoryAttributeError("", "level_of_assurance")
	}
	return domain.SuccessFromCountry{
		Issuer:                         inbound.Issuer,
		PersistentID:                   *inbound.PersistentID,
		LevelOfAssurance:               *inbound.LevelOfAssurance,
		EncryptedIdentityAssertionBlob: inbound.EncryptedIdentityAssertion,
		PrincipalIPAddressAsSeenByHub:  container.PrincipalIPAddress,
	}, nil
}
