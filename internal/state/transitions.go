package state

// transitionTable はセッション状態遷移テーブル。
// 現在のKindから遷移可能なKindの集合を定義する。
// タイムアウトへの遷移は全状態から可能なためテーブルには含めない。
var transitionTable = map[Kind]map[Kind]struct{}{
	KindSessionStarted: {
		KindIdpSelected:          {},
		KindEidasCountrySelected: {},
	},
	KindIdpSelected: {
		KindIdpSelected:                       {}, // IdP再選択
		KindSessionStarted:                    {}, // サインイン時のNoAuthnContextはやり直し可
		KindAwaitingCycle3Data:                {},
		KindWaitingForMatchingServiceResponse: {},
		KindNonMatchingJourneySuccess:         {},
		KindAuthnFailedError:                  {},
		KindRequesterError:                    {},
		KindFraudEventDetected:                {},
		KindPausedRegistration:                {},
	},
	KindEidasCountrySelected: {
		KindEidasCountrySelected:              {}, // 国の再選択
		KindSessionStarted:                    {}, // ジャーニー再開
		KindEidasAwaitingCycle3Data:           {},
		KindWaitingForMatchingServiceResponse: {},
		KindNonMatchingJourneySuccess:         {},
		KindAuthnFailedError:                  {},
	},
	KindAwaitingCycle3Data: {
		KindWaitingForMatchingServiceResponse: {},
		KindCycle3DataInputCancelled:          {},
	},
	KindEidasAwaitingCycle3Data: {
		KindWaitingForMatchingServiceResponse: {},
		KindCycle3DataInputCancelled:          {},
	},
	KindWaitingForMatchingServiceResponse: {
		KindSuccessfulMatch:                   {},
		KindNoMatch:                           {},
		KindAwaitingCycle3Data:                {},
		KindEidasAwaitingCycle3Data:           {},
		KindUserAccountCreationRequestSent:    {},
		KindMatchingServiceRequestError:       {},
	},
	KindUserAccountCreationRequestSent: {
		KindUserAccountCreated:          {},
		KindUserAccountCreationFailed:   {},
		KindMatchingServiceRequestError: {},
	},
	KindAuthnFailedError: {
		KindIdpSelected:    {}, // 別IdPで再試行
		KindSessionStarted: {},
	},
}

// ValidateTransition は現在のKindから次のKindへの遷移が許可されているかを検証する。
// 無効な遷移の場合はIllegalTransitionErrorを返す。
func ValidateTransition(current, next Kind) error {
	// タイムアウトへは常に遷移可能
	if next == KindTimeout {
		return nil
	}

	if IsTerminal(current) {
		return &IllegalTransitionError{From: current, To: next}
	}

	nexts, ok := transitionTable[current]
	if !ok {
		return &IllegalTransitionError{From: current, To: next}
	}
	if _, ok := nexts[next]; !ok {
		return &IllegalTransitionError{From: current, To: next}
	}
	return nil
}
