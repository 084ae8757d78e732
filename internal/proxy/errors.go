package proxy

import (
	"errors"
	"fmt"

	"github.com/alphagov/verify-hub-sub002/pkg/httputil"
)

// センチネルエラー
var (
	// ErrCircuitOpen はCircuit BreakerがOpen状態の場合のエラー
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrInvalidResponse は連携サービスからのレスポンスが不正な場合のエラー
	ErrInvalidResponse = errors.New("invalid response from upstream service")
)

// APIError は連携サービスのHTTPエラーレスポンスを表す
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Problem    *httputil.ProblemDetail
}

func (e *APIError) Error() string {
	if e.Problem != nil {
		return fmt.Sprintf("%s error: %d %s - %s", e.Service, e.StatusCode, e.Problem.Title, e.Problem.Detail)
	}
	return fmt.Sprintf("%s error: %d %s", e.Service, e.StatusCode, e.Message)
}

// IsNotFound はリソース未登録エラーかどうかを判定する
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsBadRequest はリクエスト不正エラーかどうかを判定する
func (e *APIError) IsBadRequest() bool {
	return e.StatusCode == 400
}

// IsServerError はサーバーエラーかどうかを判定する
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// ConnectionError は連携サービスへの接続エラーを表す
type ConnectionError struct {
	Service string
	Cause   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s connection error: %v", e.Service, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}
