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

// SamlResponseContainer はトランスポート層から渡されるIdP/国の生SAML応答。
type SamlResponseContainer struct {
	SamlResponse       string `json:"saml_response" binding:"required"`
	PrincipalIPAddress string `json:"principal_ip_address_as_seen_by_hub"`
}

// AuthnResponseFromIdpService はIdPからの認証応答の受理を担う。
// SAMLエンジンの分類結果ごとに対応するコントローラハンドラを呼び分ける。
type AuthnResponseFromIdpService struct {
	repo           *session.Repository
	factory        *controller.Factory
	samlEngine     SamlEngine
	attributeQuery *AttributeQueryService
}

// NewAuthnResponseFromIdpService はAuthnResponseFromIdpServiceを生成する。
func NewAuthnResponseFromIdpService(repo *session.Repository, factory *controller.Factory, samlEngine SamlEngine, attributeQuery *AttributeQueryService) *AuthnResponseFromIdpService {
	return &AuthnResponseFromIdpService{
		repo:           repo,
		factory:        factory,
		samlEngine:     samlEngine,
		attributeQuery: attributeQuery,
	}
}

// ReceiveAuthnResponseFromIdp はIdPからのSAML応答を受理して処理する。
func (s *AuthnResponseFromIdpService) ReceiveAuthnResponseFromIdp(ctx context.Context, sessionID domain.SessionID, container SamlResponseContainer) (domain.ResponseAction, error) {
	st, version, err := s.repo.GetState(ctx, sessionID, state.KindIdpSelected)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	selected := st.(*state.IdpSelected)
	ctrl := s.factory.IdpSelected(selected)

	matchingServiceEntityID, err := ctrl.MatchingServiceEntityID(ctx)
	if err != nil {
		return domain.ResponseAction{}, err
	}

	inbound, err := s.samlEngine.TranslateIdpAuthnResponse(ctx, proxy.SamlAuthnResponseTranslation{
		SamlResponse:            container.SamlResponse,
		SessionID:               sessionID,
		PrincipalIPAddress:      container.PrincipalIPAddress,
		MatchingServiceEntityID: matchingServiceEntityID,
		ExpectedLoa:             selected.RequestedLoa,
	})
	if err != nil {
		return domain.ResponseAction{}, err
	}
	if inbound.Issuer != selected.IdpEntityID {
		return domain.ResponseAction{}, domain.WrongResponseIssuerError(selected.RequestID, inbound.Issuer, selected.IdpEntityID)
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

// PauseRegistration は登録手続きの中断保存を処理する。IdPでの認証を
// 完了せずに離脱したユーザーのセッションを再開可能な状態で保存する。
func (s *AuthnResponseFromIdpService) PauseRegistration(ctx context.Context, sessionID domain.SessionID) (domain.ResponseAction, error) {
	st, version, err := s.repo.GetState(ctx, sessionID, state.KindIdpSelected)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	outcome := s.factory.IdpSelected(st.(*state.IdpSelected)).HandlePausedRegistration(ctx)
	if err := s.repo.Save(ctx, outcome.Next, version); err != nil {
		return domain.ResponseAction{}, err
	}
	return outcome.ResponseAction, nil
}

// dispatch はSAMLエンジンの分類結果を対応するコントローラ操作に写像する。
// 成功応答でもLOAがLEVEL_Xの場合は不正イベントとして扱う。
func (s *AuthnResponseFromIdpService) dispatch(ctx context.Context, ctrl *controller.IdpSelectedController, container SamlResponseContainer, inbound *proxy.InboundResponseFromIdp) (*controller.Outcome, error) {
	switch inbound.Status {
	case proxy.IdpStatusSuccess:
		if inbound.LevelOfAssurance != nil && inbound.LevelOfAssurance.IsFraud() {
			return ctrl.HandleFraudResponse(ctx, fraudFromInbound(container, inbound)), nil
		}
		success, err := successFromInbound(container, inbound)
		if err != nil {
			return nil, err
		}
		return ctrl.HandleSuccessResponse(ctx, success)
	case proxy.IdpStatusRequesterError:
		return ctrl.HandleRequesterErrorResponse(ctx, domain.RequesterErrorResponse{
			Issuer:                        inbound.Issuer,
			ErrorMessage:                  inbound.StatusMessage,
			PrincipalIPAddressAsSeenByHub: container.PrincipalIPAddress,
		}), nil
	case proxy.IdpStatusNoAuthenticationContext:
		return ctrl.HandleNoAuthenticationContextResponse(ctx), nil
	case proxy.IdpStatusAuthenticationFailed:
		return ctrl.HandleAuthenticationFailedResponse(ctx), nil
	case proxy.IdpStatusAuthenticationCancelled:
		return ctrl.HandleAuthenticationCancelledResponse(ctx), nil
	case proxy.IdpStatusAuthenticationPending:
		return ctrl.HandlePendingResponse(ctx), nil
	case proxy.IdpStatusUpliftFailed:
		return ctrl.HandleUpliftFailedResponse(ctx), nil
	default:
		return nil, &domain.StateProcessingValidationError{
			Message: fmt.Sprintf("unknown idp response status %q", inbound.Status),
		}
	}
}

func successFromInbound(container SamlResponseContainer, inbound *proxy.InboundResponseFromIdp) (domain.SuccessFromIdp, error) {
	if inbound.PersistentID == nil {
		return domain.SuccessFromIdp{}, domain.MissingMandatoryAttributeError("", "persistent_id")
	}
	if inbound.LevelOfAssurance == nil {
		return domain.SuccessFromIdp{}, domain.MissingMandatoryAttributeError("", "level_of_assurance")
	}
	return domain.SuccessFromIdp{
		Issuer:                            inbound.Issuer,
		EncryptedMatchingDatasetAssertion: inbound.EncryptedMatchingDatasetAssertion,
		AuthnStatementAssertion:           inbound.AuthnStatementAssertion,
		PersistentID:                      *inbound.PersistentID,
		LevelOfAssurance:                  *inbound.LevelOfAssurance,
		PrincipalIPAddressAsSeenByHub:     container.PrincipalIPAddress,
		PrincipalIPAddressAsSeenByIdp:     inbound.PrincipalIPAddressAsSeenByIdp,
	}, nil
}

func fraudFromInbound(container SamlResponseContainer, inbound *proxy.InboundResponseFromIdp) domain.FraudFromIdp {
	fraud := domain.FraudFromIdp{
		Issuer:                        inbound.Issuer,
		PrincipalIPAddressAsSeenByHub: container.PrincipalIPAddress,
		PrincipalIPAddressAsSeenByIdp: inbound.PrincipalIPAddressAsSeenByIdp,
		FraudDetails: domain.FraudDetectedDetails{
			EventID:        inbound.FraudEventID,
			FraudIndicator: inbound.FraudIndicator,
		},
	}
	if inbound.PersistentID != nil {
		fraud.PersistentID = *inbound.PersistentID
	}
	return fraud
}
