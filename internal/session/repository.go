package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// TimeoutEventRecorder は失効変換時の監査イベントの送出先。
type TimeoutEventRecorder interface {
	SessionTimeout(ctx context.Context, sessionID domain.SessionID, transactionEntityID string)
}

// Repository はセッション状態への型付きアクセスを提供する。
// 読み出し時に失効判定を行い、失効済みセッションはTimeout状態へ変換する。
type Repository struct {
	store  Store
	clock  clockwork.Clock
	events TimeoutEventRecorder
	logger *slog.Logger
}

// NewRepository はRepositoryを生成する。
func NewRepository(store Store, clock clockwork.Clock, events TimeoutEventRecorder, logger *slog.Logger) *Repository {
	return &Repository{store: store, clock: clock, events: events, logger: logger}
}

// CreateSession は初期状態で新規セッションを保存する。
func (r *Repository) CreateSession(ctx context.Context, st state.State) error {
	if err := r.store.Create(ctx, st); err != nil {
		return &domain.SessionCreationFailureError{
			Reason: fmt.Sprintf("failed to create session %s", st.Common().SessionID),
			Cause:  err,
		}
	}
	return nil
}

// GetState はセッション状態を取得し、期待するKindと一致することを検証する。
// 失効済みセッションはTimeout状態に変換して保存したうえで、期待Kindが
// Timeout以外であればTimeoutErrorを返す。
func (r *Repository) GetState(ctx context.Context, sessionID domain.SessionID, expected state.Kind) (state.State, int64, error) {
	st, version, err := r.getWithTimeoutConversion(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}

	if st.Kind() == state.KindTimeout && expected != state.KindTimeout {
		return nil, 0, &TimeoutError{SessionID: sessionID}
	}
	if !state.Matches(expected, st.Kind()) {
		return nil, 0, &InvalidStateError{SessionID: sessionID, Expected: expected, Actual: st.Kind()}
	}
	return st, version, nil
}

// GetAnyState は期待Kindの検証なしにセッション状態を取得する。
// RPへの応答生成など、複数の終端状態を受理する読み出しに使う。
func (r *Repository) GetAnyState(ctx context.Context, sessionID domain.SessionID) (state.State, int64, error) {
	return r.getWithTimeoutConversion(ctx, sessionID)
}

// Save は状態を条件付き書き込みで保存する。
func (r *Repository) Save(ctx context.Context, next state.State, version int64) error {
	return r.store.Update(ctx, next, version)
}

// SessionExists はセッションの存在有無を返す。
func (r *Repository) SessionExists(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	return r.store.Exists(ctx, sessionID)
}

// RequestIssuerEntityID はセッションを開始したRPのエンティティIDを返す。
func (r *Repository) RequestIssuerEntityID(ctx context.Context, sessionID domain.SessionID) (string, error) {
	st, _, err := r.getWithTimeoutConversion(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return st.Common().RequestIssuerEntityID, nil
}

// TransactionSupportsEidas はセッションのRPがeIDAS対応かどうかを返す。
func (r *Repository) TransactionSupportsEidas(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	st, _, err := r.getWithTimeoutConversion(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return st.Common().TransactionSupportsEidas, nil
}

// LevelOfAssuranceAchieved はIdP認証で達成された保証レベルを返す。
// 達成レベルを保持しない状態の場合はok=falseを返す。
func (r *Repository) LevelOfAssuranceAchieved(ctx context.Context, sessionID domain.SessionID) (domain.LevelOfAssurance, bool, error) {
	st, _, err := r.getWithTimeoutConversion(ctx, sessionID)
	if err != nil {
		return "", false, err
	}

	switch v := st.(type) {
	case *state.AwaitingCycle3Data:
		return v.LevelOfAssurance, true, nil
	case *state.EidasAwaitingCycle3Data:
		return v.LevelOfAssurance, true, nil
	case *state.WaitingForMatchingServiceResponse:
		return v.IdpLevelOfAssurance, true, nil
	case *state.UserAccountCreationRequestSent:
		return v.IdpLevelOfAssurance, true, nil
	case *state.SuccessfulMatch:
		return v.LevelOfAssurance, true, nil
	case *state.UserAccountCreated:
		return v.LevelOfAssurance, true, nil
	default:
		return "", false, nil
	}
}

// getWithTimeoutConversion はセッション状態を取得し、失効済みであれば
// Timeout状態へ遷移させたものを返す。
func (r *Repository) getWithTimeoutConversion(ctx context.Context, sessionID domain.SessionID) (state.State, int64, error) {
	st, version, err := r.store.Get(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}

	if st.Kind() == state.KindTimeout {
		return st, version, nil
	}
	if !r.clock.Now().After(st.Common().SessionExpiryTimestamp) {
		return st, version, nil
	}

	timeout := &state.Timeout{Core: *st.Common()}
	if err := r.store.Update(ctx, timeout, version); err != nil {
		// 競合した場合は他の処理が既に変換済み
		if !errors.Is(err, ErrConcurrentUpdate) {
			return nil, 0, err
		}
		return r.store.Get(ctx, sessionID)
	}

	r.logger.WarnContext(ctx, "session timed out",
		slog.String("event_id", "SESSION_TIMEOUT"),
		slog.String("session_id", sessionID.String()),
		slog.String("previous_state", string(st.Kind())),
	)
	r.events.SessionTimeout(ctx, sessionID, st.Common().RequestIssuerEntityID)
	return timeout, version + 1, nil
}
