package state

import (
	"encoding/json"
	"fmt"
)

// Envelope は状態の永続化表現。Kindタグで復元先の型を決定し、
// Versionは楽観的並行性制御のための更新世代を保持する。
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Version int64           `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// Encode は状態をバージョン付きエンベロープのJSONに直列化する。
func Encode(s State, version int64) ([]byte, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal state payload: %w", err)
	}
	env := Envelope{
		Kind:    s.Kind(),
		Version: version,
		Payload: payload,
	}
	b, err := json.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("marshal state envelope: %w", err)
	}
	return b, nil
}

// Decode はエンベロープJSONから状態とバージョンを復元する。
// 未知のKindタグは UnknownKindError を返す。
func Decode(b []byte) (State, int64, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, 0, fmt.Errorf("unmarshal state envelope: %w", err)
	}
	s := newForKind(env.Kind)
	if s == nil {
		return nil, 0, &UnknownKindError{Kind: string(env.Kind)}
	}
	if err := json.Unmarshal(env.Payload, s); err != nil {
		return nil, 0, fmt.Errorf("unmarshal %s payload: %w", env.Kind, err)
	}
	return s, env.Version, nil
}

func newForKind(k Kind) State {
	switch k {
	case KindSessionStarted:
		return &SessionStarted{}
	case KindIdpSelected:
		return &IdpSelected{}
	case KindEidasCountrySelected:
		return &EidasCountrySelected{}
	case KindAwaitingCycle3Data:
		return &AwaitingCycle3Data{}
	case KindEidasAwaitingCycle3Data:
		return &EidasAwaitingCycle3Data{}
	case KindWaitingForMatchingServiceResponse:
		return &WaitingForMatchingServiceResponse{}
	case KindUserAccountCreationRequestSent:
		return &UserAccountCreationRequestSent{}
	case KindSuccessfulMatch:
		return &SuccessfulMatch{}
	case KindUserAccountCreated:
		return &UserAccountCreated{}
	case KindNonMatchingJourneySuccess:
		return &NonMatchingJourneySuccess{}
	case KindNoMatch:
		return &NoMatch{}
	case KindUserAccountCreationFailed:
		return &UserAccountCreationFailed{}
	case KindAuthnFailedError:
		return &AuthnFailedError{}
	case KindRequesterError:
		return &RequesterError{}
	case KindFraudEventDetected:
		return &FraudEventDetected{}
	case KindPausedRegistration:
		return &PausedRegistration{}
	case KindCycle3DataInputCancelled:
		return &Cycle3DataInputCancelled{}
	case KindMatchingServiceRequestError:
		return &MatchingServiceRequestError{}
	case KindTimeout:
		return &Timeout{}
	default:
		return nil
	}
}
