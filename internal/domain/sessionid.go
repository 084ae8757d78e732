// Package domain はポリシーセッションのドメイン値オブジェクトを提供する。
package domain

import "github.com/google/uuid"

// SessionID はセッションの一意識別子を表す。生成後は不変。
type SessionID string

// NewSessionID はUUID形式の新しいSessionIDを生成する。
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// String はセッションIDの文字列表現を返す。
func (s SessionID) String() string {
	return string(s)
}

// IsEmpty はセッションIDが未設定かどうかを判定する。
func (s SessionID) IsEmpty() bool {
	return s == ""
}
