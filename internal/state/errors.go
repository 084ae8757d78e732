package state

import "fmt"

// IllegalTransitionError は遷移テーブルで許可されていない状態遷移を表す。
type IllegalTransitionError struct {
	From Kind
	To   Kind
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal state transition: %s -> %s", e.From, e.To)
}

// UnknownKindError は復元時に未知のKindタグを検出した場合のエラーを表す。
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown state kind: %q", e.Kind)
}
