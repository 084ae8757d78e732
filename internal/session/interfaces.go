package session

import (
	"context"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// Store はポリシーセッション状態の永続化操作を定義する。
type Store interface {
	// Create は新規セッションを保存する。セッションIDが既に存在する場合は
	// ErrSessionExists を返す。
	Create(ctx context.Context, st state.State) error

	// Get はセッション状態と現在の更新世代を取得する。
	Get(ctx context.Context, sessionID domain.SessionID) (state.State, int64, error)

	// Update は格納世代がexpectedVersionと一致する場合のみ状態を置き換える。
	// 競合時は ErrConcurrentUpdate、不正な遷移は state.IllegalTransitionError を返す。
	Update(ctx context.Context, next state.State, expectedVersion int64) error

	// Exists はセッションの存在有無を返す。
	Exists(ctx context.Context, sessionID domain.SessionID) (bool, error)
}
