package domain

// ResponseProcessingStatus はマッチング照会の処理状況を表す。
// フロントエンドはこの値をポーリングし、待機継続かRPへの応答送出かを決める。
type ResponseProcessingStatus string

const (
	// ResponseProcessingStatusWait は照会応答の待機継続を示す。
	ResponseProcessingStatusWait ResponseProcessingStatus = "WAIT"
	// ResponseProcessingStatusSendSuccessfulMatchResponse はマッチング成立応答の送出可能を示す。
	ResponseProcessingStatusSendSuccessfulMatchResponse ResponseProcessingStatus = "SEND_SUCCESSFUL_MATCH_RESPONSE_TO_TRANSACTION"
	// ResponseProcessingStatusSendNoMatchResponse はマッチング不成立応答の送出可能を示す。
	ResponseProcessingStatusSendNoMatchResponse ResponseProcessingStatus = "SEND_NO_MATCH_RESPONSE_TO_TRANSACTION"
	// ResponseProcessingStatusSendUserAccountCreatedResponse はアカウント作成成功応答の送出可能を示す。
	ResponseProcessingStatusSendUserAccountCreatedResponse ResponseProcessingStatus = "SEND_USER_ACCOUNT_CREATED_RESPONSE_TO_TRANSACTION"
	// ResponseProcessingStatusSendUserAccountCreationFailedResponse はアカウント作成失敗応答の送出可能を示す。
	ResponseProcessingStatusSendUserAccountCreationFailedResponse ResponseProcessingStatus = "SEND_USER_ACCOUNT_CREATION_FAILED_RESPONSE_TO_TRANSACTION"
	// ResponseProcessingStatusShowMatchingError はマッチングエラー画面の表示を示す。
	ResponseProcessingStatusShowMatchingError ResponseProcessingStatus = "SHOW_MATCHING_ERROR_PAGE"
)

// ResponseProcessingDetails はポーリング応答として返す処理状況の詳細。
type ResponseProcessingDetails struct {
	SessionID SessionID                `json:"session_id"`
	Status    ResponseProcessingStatus `json:"response_processing_status"`
}
