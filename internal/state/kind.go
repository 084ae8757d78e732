// Package state はポリシーセッションの状態（タグ付きユニオン）と遷移規則を提供する。
package state

// Kind はセッション状態の種別を表す型。
type Kind string

// セッション状態の定数
const (
	KindSessionStarted                    Kind = "SESSION_STARTED"                       // セッション開始（IdP/国 未選択）
	KindIdpSelected                       Kind = "IDP_SELECTED"                          // IdP選択済み
	KindEidasCountrySelected              Kind = "EIDAS_COUNTRY_SELECTED"                // eIDAS国選択済み
	KindAwaitingCycle3Data                Kind = "AWAITING_CYCLE3_DATA"                  // Cycle3属性入力待ち
	KindEidasAwaitingCycle3Data           Kind = "EIDAS_AWAITING_CYCLE3_DATA"            // Cycle3属性入力待ち（eIDAS）
	KindWaitingForMatchingServiceResponse Kind = "WAITING_FOR_MATCHING_SERVICE_RESPONSE" // Matching Service応答待ち
	KindUserAccountCreationRequestSent    Kind = "USER_ACCOUNT_CREATION_REQUEST_SENT"    // アカウント作成要求送信済み
	KindSuccessfulMatch                   Kind = "SUCCESSFUL_MATCH"                      // 照合成功（終了状態）
	KindUserAccountCreated                Kind = "USER_ACCOUNT_CREATED"                  // アカウント作成済み（終了状態）
	KindNonMatchingJourneySuccess         Kind = "NON_MATCHING_JOURNEY_SUCCESS"          // マッチング省略成功（終了状態）
	KindNoMatch                           Kind = "NO_MATCH"                              // 照合不成立（終了状態）
	KindUserAccountCreationFailed         Kind = "USER_ACCOUNT_CREATION_FAILED"          // アカウント作成失敗（終了状態）
	KindAuthnFailedError                  Kind = "AUTHN_FAILED_ERROR"                    // 認証失敗
	KindRequesterError                    Kind = "REQUESTER_ERROR"                       // リクエスタエラー（終了状態）
	KindFraudEventDetected                Kind = "FRAUD_EVENT_DETECTED"                  // 不正イベント検知（終了状態）
	KindPausedRegistration                Kind = "PAUSED_REGISTRATION"                   // 登録一時停止（終了状態）
	KindCycle3DataInputCancelled          Kind = "CYCLE3_DATA_INPUT_CANCELLED"           // Cycle3入力キャンセル（終了状態）
	KindMatchingServiceRequestError       Kind = "MATCHING_SERVICE_REQUEST_ERROR"        // Matching Service要求エラー（終了状態）
	KindTimeout                           Kind = "TIMEOUT"                               // セッションタイムアウト（終了状態）
)

// validKinds は有効なKind一覧
var validKinds = map[Kind]struct{}{
	KindSessionStarted:                    {},
	KindIdpSelected:                       {},
	KindEidasCountrySelected:              {},
	KindAwaitingCycle3Data:                {},
	KindEidasAwaitingCycle3Data:           {},
	KindWaitingForMatchingServiceResponse: {},
	KindUserAccountCreationRequestSent:    {},
	KindSuccessfulMatch:                   {},
	KindUserAccountCreated:                {},
	KindNonMatchingJourneySuccess:         {},
	KindNoMatch:                           {},
	KindUserAccountCreationFailed:         {},
	KindAuthnFailedError:                  {},
	KindRequesterError:                    {},
	KindFraudEventDetected:                {},
	KindPausedRegistration:                {},
	KindCycle3DataInputCancelled:          {},
	KindMatchingServiceRequestError:       {},
	KindTimeout:                           {},
}

// IsValidKind は文字列が有効なKindかどうかを判定する。
func IsValidKind(s string) bool {
	_, ok := validKinds[Kind(s)]
	return ok
}

// terminalKinds は遷移不可の終了状態
var terminalKinds = map[Kind]struct{}{
	KindSuccessfulMatch:             {},
	KindUserAccountCreated:          {},
	KindNonMatchingJourneySuccess:   {},
	KindNoMatch:                     {},
	KindUserAccountCreationFailed:   {},
	KindRequesterError:              {},
	KindFraudEventDetected:          {},
	KindPausedRegistration:          {},
	KindCycle3DataInputCancelled:    {},
	KindMatchingServiceRequestError: {},
	KindTimeout:                     {},
}

// IsTerminal は指定されたKindが終了状態かどうかを判定する。
func IsTerminal(k Kind) bool {
	_, ok := terminalKinds[k]
	return ok
}

// aliasTable は期待Kindに対して許容される実Kindの集合。
// 期待側が総称Kind（Cycle3待ちの両変種等）の場合に使われる。
var aliasTable = map[Kind]map[Kind]struct{}{
	KindAwaitingCycle3Data: {
		KindAwaitingCycle3Data:      {},
		KindEidasAwaitingCycle3Data: {},
	},
}

// Matches は格納されている実Kindが期待Kindとして扱えるかどうかを判定する。
func Matches(expected, actual Kind) bool {
	if expected == actual {
		return true
	}
	if aliases, ok := aliasTable[expected]; ok {
		_, ok := aliases[actual]
		return ok
	}
	return false
}
