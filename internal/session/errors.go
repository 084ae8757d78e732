package session

import (
	"errors"
	"fmt"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// セッション関連エラー
var (
	// ErrSessionNotFound はセッションが見つからない場合のエラー
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists は同一セッションIDが既に存在する場合のエラー
	ErrSessionExists = errors.New("session already exists")

	// ErrConcurrentUpdate は他の更新と競合して条件付き書き込みに失敗した場合のエラー
	ErrConcurrentUpdate = errors.New("session concurrently updated")

	// ErrRedisUnavailable はRedisへの接続・操作に失敗した場合のエラー
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// TimeoutError はセッションが失効済みであることを表す。
type TimeoutError struct {
	SessionID domain.SessionID
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("session %s has timed out", e.SessionID)
}

// InvalidStateError は期待した状態と格納されていた状態が一致しない場合のエラー。
type InvalidStateError struct {
	SessionID domain.SessionID
	Expected  state.Kind
	Actual    state.Kind
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("session %s is in state %s, expected %s", e.SessionID, e.Actual, e.Expected)
}
