package controller

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// ResponseFromHub は成功系の終端状態からRPへ返すSAML応答の生成要素を組み立てる。
// 応答を用意できない状態の場合はバリデーションエラーを返す。
func ResponseFromHub(st state.State) (*domain.ResponseFromHub, error) {
	core := st.Common()
	response := &domain.ResponseFromHub{
		ResponseID:                  uuid.NewString(),
		InResponseTo:                core.RequestID,
		AuthnRequestIssuerEntityID:  core.RequestIssuerEntityID,
		AssertionConsumerServiceURI: core.AssertionConsumerServiceURI,
	}

	switch v := st.(type) {
	case *state.SuccessfulMatch:
		response.Status = domain.HubStatusSuccess
		response.MatchingServiceAssertion = v.MatchingServiceAssertion
		response.RelayState = v.RelayState
	case *state.UserAccountCreated:
		response.Status = domain.HubStatusSuccess
		response.MatchingServiceAssertion = v.MatchingServiceAssertion
		response.RelayState = v.RelayState
	case *state.NonMatchingJourneySuccess:
		response.Status = domain.HubStatusSuccess
		response.EncryptedAssertions = v.EncryptedAssertions
		response.RelayState = v.RelayState
	case *state.NoMatch:
		response.Status = domain.HubStatusNoMatch
		response.RelayState = v.RelayState
	case *state.UserAccountCreationFailed:
		response.Status = domain.HubStatusNoMatch
		response.RelayState = v.RelayState
	default:
		return nil, &domain.StateProcessingValidationError{
			RequestID: core.RequestID,
			Message:   fmt.Sprintf("no response from hub prepared in state %s", st.Kind()),
		}
	}
	return response, nil
}

// ErrorResponseFromHub は失敗系の終端状態からRPへ返すエラー応答の生成要素を組み立てる。
func ErrorResponseFromHub(st state.State) (*domain.ResponseFromHub, error) {
	core := st.Common()
	response := &domain.ResponseFromHub{
		ResponseID:                  uuid.NewString(),
		InResponseTo:                core.RequestID,
		AuthnRequestIssuerEntityID:  core.RequestIssuerEntityID,
		AssertionConsumerServiceURI: core.AssertionConsumerServiceURI,
	}

	switch v := st.(type) {
	case *state.AuthnFailedError:
		response.Status = domain.HubStatusAuthnFailed
		response.RelayState = v.RelayState
	case *state.FraudEventDetected:
		response.Status = domain.HubStatusAuthnFailed
		response.RelayState = v.RelayState
	case *state.MatchingServiceRequestError:
		response.Status = domain.HubStatusAuthnFailed
		response.RelayState = v.RelayState
	case *state.RequesterError:
		response.Status = domain.HubStatusRequesterError
		response.RelayState = v.RelayState
	case *state.Cycle3DataInputCancelled:
		response.Status = domain.HubStatusNoAuthnContext
		response.RelayState = v.RelayState
	case *state.PausedRegistration:
		response.Status = domain.HubStatusNoAuthnContext
		response.RelayState = v.RelayState
	case *state.Timeout:
		response.Status = domain.HubStatusNoAuthnContext
	default:
		return nil, &domain.StateProcessingValidationError{
			RequestID: core.RequestID,
			Message:   fmt.Sprintf("no error response from hub prepared in state %s", st.Kind()),
		}
	}
	return response, nil
}
