package domain

import (
	"errors"
	"fmt"
)

// ビジネスルール違反のセンチネルエラー
var (
	// ErrEidasNotSupported はeIDAS非対応のトランザクションでeIDAS操作が呼ばれた場合のエラー
	ErrEidasNotSupported = errors.New("eidas is not supported for this transaction")

	// ErrIdpDisabled は無効化されたIdPからの応答を受けた場合のエラー
	ErrIdpDisabled = errors.New("identity provider is disabled")
)

// EidasCountryNotSupportedError は許可リストにない国が選択された場合のエラーを表す。
type EidasCountryNotSupportedError struct {
	SessionID       SessionID
	CountryEntityID string
}

func (e *EidasCountryNotSupportedError) Error() string {
	return fmt.Sprintf("eidas country not supported: session=%s, country=%s", e.SessionID, e.CountryEntityID)
}

// StateProcessingValidationError は状態遷移中のバリデーション失敗を表す。
// リトライ不可で、呼び出し元で4xx相当に変換される。
type StateProcessingValidationError struct {
	RequestID string
	Message   string
}

func (e *StateProcessingValidationError) Error() string {
	return fmt.Sprintf("state processing validation failed: requestId=%s, %s", e.RequestID, e.Message)
}

// WrongResponseIssuerError は期待と異なる発行者からの応答を受けた場合のバリデーションエラーを生成する。
func WrongResponseIssuerError(requestID, actual, expected string) *StateProcessingValidationError {
	return &StateProcessingValidationError{
		RequestID: requestID,
		Message:   fmt.Sprintf("wrong response issuer: got %s, want %s", actual, expected),
	}
}

// WrongInResponseToError はInResponseToがリクエストIDと一致しない場合のバリデーションエラーを生成する。
func WrongInResponseToError(requestID, inResponseTo string) *StateProcessingValidationError {
	return &StateProcessingValidationError{
		RequestID: requestID,
		Message:   fmt.Sprintf("wrong inResponseTo: got %s", inResponseTo),
	}
}

// WrongLevelOfAssuranceError は許容レベル外のLOAを受けた場合のバリデーションエラーを生成する。
func WrongLevelOfAssuranceError(requestID string, got LevelOfAssurance, accepted []LevelOfAssurance) *StateProcessingValidationError {
	return &StateProcessingValidationError{
		RequestID: requestID,
		Message:   fmt.Sprintf("level of assurance %s not in accepted levels %v", got, accepted),
	}
}

// MissingMandatoryAttributeError は必須属性の欠落を表すバリデーションエラーを生成する。
func MissingMandatoryAttributeError(requestID, attribute string) *StateProcessingValidationError {
	return &StateProcessingValidationError{
		RequestID: requestID,
		Message:   fmt.Sprintf("missing mandatory attribute: %s", attribute),
	}
}

// SessionCreationFailureError はセッション生成時の失敗を表す。
// ACS URL不一致またはConfigサービス障害が原因となる。
type SessionCreationFailureError struct {
	Reason string
	Cause  error
}

func (e *SessionCreationFailureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session creation failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("session creation failed: %s", e.Reason)
}

func (e *SessionCreationFailureError) Unwrap() error {
	return e.Cause
}
