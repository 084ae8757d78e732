package domain

// IdpResult はポリシーがトランスポート層へ返す処理結果の種別。
type IdpResult string

const (
	IdpResultSuccess                   IdpResult = "SUCCESS"
	IdpResultMatchingJourneySuccess    IdpResult = "MATCHING_JOURNEY_SUCCESS"
	IdpResultNonMatchingJourneySuccess IdpResult = "NON_MATCHING_JOURNEY_SUCCESS"
	IdpResultCancel                    IdpResult = "CANCEL"
	IdpResultFailedUplift              IdpResult = "FAILED_UPLIFT"
	IdpResultPending                   IdpResult = "PENDING"
	IdpResultOther                     IdpResult = "OTHER"
)

// ResponseAction はトランスポート層が次に取るべき動作を表す外向き契約。
// 内部の状態名とは切り離されている。
type ResponseAction struct {
	SessionID      SessionID        `json:"sessionId"`
	Result         IdpResult        `json:"result"`
	IsRegistration bool             `json:"isRegistration"`
	LoaAchieved    LevelOfAssurance `json:"loaAchieved,omitempty"`
}

// SuccessResponseAction は認証成功のResponseActionを生成する。
func SuccessResponseAction(sessionID SessionID, isRegistration bool, loaAchieved LevelOfAssurance) ResponseAction {
	return ResponseAction{SessionID: sessionID, Result: IdpResultSuccess, IsRegistration: isRegistration, LoaAchieved: loaAchieved}
}

// NonMatchingJourneySuccessResponseAction はマッチング省略ジャーニー成功のResponseActionを生成する。
func NonMatchingJourneySuccessResponseAction(sessionID SessionID, isRegistration bool, loaAchieved LevelOfAssurance) ResponseAction {
	return ResponseAction{SessionID: sessionID, Result: IdpResultNonMatchingJourneySuccess, IsRegistration: isRegistration, LoaAchieved: loaAchieved}
}

// CancelResponseAction はユーザーキャンセルのResponseActionを生成する。
func CancelResponseAction(sessionID SessionID, isRegistration bool) ResponseAction {
	return ResponseAction{SessionID: sessionID, Result: IdpResultCancel, IsRegistration: isRegistration}
}

// FailedUpliftResponseAction はLOA引き上げ失敗のResponseActionを生成する。
func FailedUpliftResponseAction(sessionID SessionID, isRegistration bool) ResponseAction {
	return ResponseAction{SessionID: sessionID, Result: IdpResultFailedUplift, IsRegistration: isRegistration}
}

// PendingResponseAction は再認証保留のResponseActionを生成する。
func PendingResponseAction(sessionID SessionID) ResponseAction {
	return ResponseAction{SessionID: sessionID, Result: IdpResultPending, IsRegistration: true}
}

// OtherResponseAction は上記以外（エラー系）のResponseActionを生成する。
func OtherResponseAction(sessionID SessionID, isRegistration bool) ResponseAction {
	return ResponseAction{SessionID: sessionID, Result: IdpResultOther, IsRegistration: isRegistration}
}
