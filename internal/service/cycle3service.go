package service

import (
	"context"

	"github.com/alphagov/verify-hub-sub002/internal/controller"
	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/session"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// Cycle3Service はcycle-3属性の取得・提出・取り消しを担う。
// IdP経路とeIDAS経路の両方の入力待ち状態を受理する。
type Cycle3Service struct {
	repo           *session.Repository
	factory        *controller.Factory
	attributeQuery *AttributeQueryService
}

// NewCycle3Service はCycle3Serviceを生成する。
func NewCycle3Service(repo *session.Repository, factory *controller.Factory, attributeQuery *AttributeQueryService) *Cycle3Service {
	return &Cycle3Service{repo: repo, factory: factory, attributeQuery: attributeQuery}
}

// GetCycle3AttributeRequestData はRPに追加入力を求める属性の定義を返す。
func (s *Cycle3Service) GetCycle3AttributeRequestData(ctx context.Context, sessionID domain.SessionID) (*domain.Cycle3AttributeRequestData, error) {
	ctrl, _, err := s.loadController(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return ctrl.Cycle3AttributeRequestData(ctx)
}

// SubmitCycle3Data はユーザーが入力したcycle-3属性を処理し、
// 属性付きの照会を送出する。
func (s *Cycle3Service) SubmitCycle3Data(ctx context.Context, sessionID domain.SessionID, input domain.Cycle3UserInput) (domain.ResponseAction, error) {
	ctrl, version, err := s.loadController(ctx, sessionID)
	if err != nil {
		return domain.ResponseAction{}, err
	}

	outcome, err := ctrl.HandleCycle3DataSubmitted(ctx, input)
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

// CancelCycle3Data はcycle-3入力の取り消しを処理する。
func (s *Cycle3Service) CancelCycle3Data(ctx context.Context, sessionID domain.SessionID) (domain.ResponseAction, error) {
	ctrl, version, err := s.loadController(ctx, sessionID)
	if err != nil {
		return domain.ResponseAction{}, err
	}

	outcome := ctrl.HandleCycle3Cancelled(ctx)
	if err := s.repo.Save(ctx, outcome.Next, version); err != nil {
		return domain.ResponseAction{}, err
	}
	return outcome.ResponseAction, nil
}

// loadController は経路に応じたcycle-3入力待ちコントローラを構築する。
// KindAwaitingCycle3Dataの照合はeIDAS変種も受理する。
func (s *Cycle3Service) loadController(ctx context.Context, sessionID domain.SessionID) (*controller.AwaitingCycle3DataController, int64, error) {
	st, version, err := s.repo.GetState(ctx, sessionID, state.KindAwaitingCycle3Data)
	if err != nil {
		return nil, 0, err
	}
	switch v := st.(type) {
	case *state.AwaitingCycle3Data:
		return s.factory.AwaitingCycle3Data(v), version, nil
	case *state.EidasAwaitingCycle3Data:
		return s.factory.EidasAwaitingCycle3Data(v), version, nil
	default:
		return nil, 0, &session.InvalidStateError{SessionID: sessionID, Expected: state.KindAwaitingCycle3Data, Actual: st.Kind()}
	}
}
