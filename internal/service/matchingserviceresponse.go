package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alphagov/verify-hub-sub002/internal/controller"
	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/internal/session"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// MatchingServiceResponseService はマッチングサービス応答の受理を担う。
// 照会送出済みの2状態(初回照会・アカウント作成要求)からの応答を受理し、
// ステータスを対応する終端/継続状態へ分類する。
type MatchingServiceResponseService struct {
	repo           *session.Repository
	factory        *controller.Factory
	samlEngine     SamlEngine
	attributeQuery *AttributeQueryService
}

// NewMatchingServiceResponseService はMatchingServiceResponseServiceを生成する。
func NewMatchingServiceResponseService(repo *session.Repository, factory *controller.Factory, samlEngine SamlEngine, attributeQuery *AttributeQueryService) *MatchingServiceResponseService {
	return &MatchingServiceResponseService{
		repo:           repo,
		factory:        factory,
		samlEngine:     samlEngine,
		attributeQuery: attributeQuery,
	}
}

// ReceiveMatchingServiceResponse はマッチングサービスからのSAML応答を処理する。
func (s *MatchingServiceResponseService) ReceiveMatchingServiceResponse(ctx context.Context, sessionID domain.SessionID, samlResponse string) (domain.ResponseAction, error) {
	st, version, err := s.loadState(ctx, sessionID)
	if err != nil {
		return domain.ResponseAction{}, err
	}

	switch v := st.(type) {
	case *state.WaitingForMatchingServiceResponse:
		return s.handleInitialResponse(ctx, sessionID, v, version, samlResponse)
	case *state.UserAccountCreationRequestSent:
		return s.handleUserAccountCreationResponse(ctx, sessionID, v, version, samlResponse)
	default:
		return domain.ResponseAction{}, &session.InvalidStateError{
			SessionID: sessionID,
			Expected:  state.KindWaitingForMatchingServiceResponse,
			Actual:    st.Kind(),
		}
	}
}

// ReceiveMatchingServiceRequestFailure はsaml-soap-proxyが通知する照会の
// 送達失敗を処理し、セッションを照会失敗の終端状態へ遷移させる。
func (s *MatchingServiceResponseService) ReceiveMatchingServiceRequestFailure(ctx context.Context, sessionID domain.SessionID) (domain.ResponseAction, error) {
	st, version, err := s.loadState(ctx, sessionID)
	if err != nil {
		return domain.ResponseAction{}, err
	}

	var outcome *controller.Outcome
	switch v := st.(type) {
	case *state.WaitingForMatchingServiceResponse:
		outcome = s.factory.WaitingForMatchingServiceResponse(v).HandleRequestFailure(ctx)
	case *state.UserAccountCreationRequestSent:
		outcome = s.factory.UserAccountCreationRequestSent(v).HandleRequestFailure(ctx)
	default:
		return domain.ResponseAction{}, &session.InvalidStateError{
			SessionID: sessionID,
			Expected:  state.KindWaitingForMatchingServiceResponse,
			Actual:    st.Kind(),
		}
	}

	if err := s.repo.Save(ctx, outcome.Next, version); err != nil {
		return domain.ResponseAction{}, err
	}
	return outcome.ResponseAction, nil
}

// ResponseProcessingDetails はマッチング照会の処理状況を返す。
// 照会送出済みの状態で応答待ち上限を超過していた場合は、照会失敗の
// 終端状態へ遷移させたうえでエラー画面表示を指示する。
func (s *MatchingServiceResponseService) ResponseProcessingDetails(ctx context.Context, sessionID domain.SessionID) (domain.ResponseProcessingDetails, error) {
	st, version, err := s.repo.GetAnyState(ctx, sessionID)
	if err != nil {
		return domain.ResponseProcessingDetails{}, err
	}

	details := func(status domain.ResponseProcessingStatus) domain.ResponseProcessingDetails {
		return domain.ResponseProcessingDetails{SessionID: sessionID, Status: status}
	}

	switch v := st.(type) {
	case *state.WaitingForMatchingServiceResponse:
		ctrl := s.factory.WaitingForMatchingServiceResponse(v)
		if !ctrl.Overdue() {
			return details(domain.ResponseProcessingStatusWait), nil
		}
		if err := s.repo.Save(ctx, ctrl.HandleRequestFailure(ctx).Next, version); err != nil {
			return domain.ResponseProcessingDetails{}, err
		}
		return details(domain.ResponseProcessingStatusShowMatchingError), nil
	case *state.UserAccountCreationRequestSent:
		ctrl := s.factory.UserAccountCreationRequestSent(v)
		if !ctrl.Overdue() {
			return details(domain.ResponseProcessingStatusWait), nil
		}
		if err := s.repo.Save(ctx, ctrl.HandleRequestFailure(ctx).Next, version); err != nil {
			return domain.ResponseProcessingDetails{}, err
		}
		return details(domain.ResponseProcessingStatusShowMatchingError), nil
	case *state.SuccessfulMatch:
		return details(domain.ResponseProcessingStatusSendSuccessfulMatchResponse), nil
	case *state.NoMatch:
		return details(domain.ResponseProcessingStatusSendNoMatchResponse), nil
	case *state.UserAccountCreated:
		return details(domain.ResponseProcessingStatusSendUserAccountCreatedResponse), nil
	case *state.UserAccountCreationFailed:
		return details(domain.ResponseProcessingStatusSendUserAccountCreationFailedResponse), nil
	case *state.MatchingServiceRequestError:
		return details(domain.ResponseProcessingStatusShowMatchingError), nil
	case *state.Timeout:
		return domain.ResponseProcessingDetails{}, &session.TimeoutError{SessionID: sessionID}
	default:
		return domain.ResponseProcessingDetails{}, &session.InvalidStateError{
			SessionID: sessionID,
			Expected:  state.KindWaitingForMatchingServiceResponse,
			Actual:    st.Kind(),
		}
	}
}

func (s *MatchingServiceResponseService) handleInitialResponse(ctx context.Context, sessionID domain.SessionID, st *state.WaitingForMatchingServiceResponse, version int64, samlResponse string) (domain.ResponseAction, error) {
	ctrl := s.factory.WaitingForMatchingServiceResponse(st)

	// 応答待ち上限を超過した照会への遅延応答は受理せず失敗扱いにする
	if ctrl.Overdue() {
		outcome := ctrl.HandleRequestFailure(ctx)
		if err := s.repo.Save(ctx, outcome.Next, version); err != nil {
			return domain.ResponseAction{}, err
		}
		return outcome.ResponseAction, nil
	}

	inbound, err := s.translate(ctx, sessionID, st.MatchingServiceEntityID, samlResponse)
	if err != nil {
		return domain.ResponseAction{}, err
	}

	var outcome *controller.Outcome
	switch inbound.Status {
	case proxy.MatchingServiceStatusMatch:
		outcome, err = ctrl.HandleMatchResponse(ctx, domain.MatchFromMatchingService{
			Issuer:                   inbound.Issuer,
			InResponseTo:             inbound.InResponseTo,
			MatchingServiceAssertion: inbound.MatchingServiceAssertion,
			LevelOfAssurance:         st.IdpLevelOfAssurance,
		})
	case proxy.MatchingServiceStatusNoMatch:
		outcome, err = ctrl.HandleNoMatchResponse(ctx, domain.NoMatchFromMatchingService{
			Issuer:       inbound.Issuer,
			InResponseTo: inbound.InResponseTo,
		})
	case proxy.MatchingServiceStatusRequesterError:
		outcome = ctrl.HandleRequestFailure(ctx)
	default:
		return domain.ResponseAction{}, &domain.StateProcessingValidationError{
			RequestID: st.RequestID,
			Message:   fmt.Sprintf("unexpected matching service status %q before account creation", inbound.Status),
		}
	}
	if err != nil {
		return domain.ResponseAction{}, err
	}

	if err := s.repo.Save(ctx, outcome.Next, version); err != nil {
		return domain.ResponseAction{}, err
	}
	if err := s.attributeQuery.SendFromOutcome(ctx, sessionID, outcome); err != nil {
		return domain.ResponseAction{}, err
	}
	return outcome.ResponseAction, nil
}

func (s *MatchingServiceResponseService) handleUserAccountCreationResponse(ctx context.Context, sessionID domain.SessionID, st *state.UserAccountCreationRequestSent, version int64, samlResponse string) (domain.ResponseAction, error) {
	ctrl := s.factory.UserAccountCreationRequestSent(st)

	inbound, err := s.translate(ctx, sessionID, st.MatchingServiceEntityID, samlResponse)
	if err != nil {
		return domain.ResponseAction{}, err
	}

	var outcome *controller.Outcome
	switch inbound.Status {
	case proxy.MatchingServiceStatusUserAccountCreated:
		outcome, err = ctrl.HandleUserAccountCreatedResponse(ctx, domain.UserAccountCreatedFromMatchingService{
			Issuer:                   inbound.Issuer,
			InResponseTo:             inbound.InResponseTo,
			MatchingServiceAssertion: inbound.MatchingServiceAssertion,
			LevelOfAssurance:         st.IdpLevelOfAssurance,
		})
	case proxy.MatchingServiceStatusUserAccountCreationFailed:
		outcome, err = ctrl.HandleUserAccountCreationFailedResponse(ctx, inbound.Issuer, inbound.InResponseTo)
	case proxy.MatchingServiceStatusRequesterError:
		outcome = ctrl.HandleRequestFailure(ctx)
	default:
		return domain.ResponseAction{}, &domain.StateProcessingValidationError{
			RequestID: st.RequestID,
			Message:   fmt.Sprintf("unexpected matching service status %q after account creation request", inbound.Status),
		}
	}
	if err != nil {
		return domain.ResponseAction{}, err
	}

	if err := s.repo.Save(ctx, outcome.Next, version); err != nil {
		return domain.ResponseAction{}, err
	}
	return outcome.ResponseAction, nil
}

func (s *MatchingServiceResponseService) translate(ctx context.Context, sessionID domain.SessionID, matchingServiceEntityID, samlResponse string) (*proxy.InboundResponseFromMatchingService, error) {
	return s.samlEngine.TranslateMatchingServiceResponse(ctx, proxy.SamlResponseContainer{
		SamlResponse:            samlResponse,
		SessionID:               sessionID,
		MatchingServiceEntityID: matchingServiceEntityID,
	})
}

// loadState は照会送出済みのいずれかの状態を取得する。
func (s *MatchingServiceResponseService) loadState(ctx context.Context, sessionID domain.SessionID) (state.State, int64, error) {
	st, version, err := s.repo.GetState(ctx, sessionID, state.KindWaitingForMatchingServiceResponse)
	if err == nil {
		return st, version, nil
	}
	var invalidState *session.InvalidStateError
	if !errors.As(err, &invalidState) || invalidState.Actual != state.KindUserAccountCreationRequestSent {
		return nil, 0, err
	}
	return s.repo.GetState(ctx, sessionID, state.KindUserAccountCreationRequestSent)
}
