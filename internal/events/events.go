// Package events はハブ監査イベントの組み立てとevent-sinkへの送出を提供する。
package events

// イベント種別
const (
	EventTypeSessionEvent = "session_event"
	EventTypeHubEvent     = "hub_event"
)

// セッションイベント名
const (
	SessionStarted                 = "session_started"
	IdpSelected                    = "idp_selected"
	IdpAuthnSucceeded              = "idp_authn_succeeded"
	IdpAuthnFailed                 = "idp_authn_failed"
	IdpAuthnPending                = "idp_authn_pending"
	IdpRequesterError              = "idp_requester_error"
	NoAuthnContext                 = "no_authn_context"
	FraudDetected                  = "fraud_detected"
	CountrySelected                = "country_selected"
	WaitingForCycle3Attributes     = "waiting_for_cycle3_attributes"
	Cycle3DataObtained             = "cycle3_data_obtained"
	Cycle3Cancelled                = "cycle3_cancel"
	UserAccountCreationRequestSent = "user_account_creation_request_sent"
	SessionTimeout                 = "session_timeout"
)

// イベント詳細のキー
const (
	DetailSessionExpiryTime      = "session_expiry_time"
	DetailRequestID              = "request_id"
	DetailTransactionEntityID    = "transaction_entity_id"
	DetailIdpEntityID            = "idp_entity_id"
	DetailCountryEntityID        = "country_entity_id"
	DetailPid                    = "pid"
	DetailIdpFraudEventID        = "idp_fraud_event_id"
	DetailGpg45Status            = "gpg45_status"
	DetailPrincipalIPAddressIdp  = "principal_ip_address_as_seen_by_idp"
	DetailPrincipalIPAddressHub  = "principal_ip_address_as_seen_by_hub"
	DetailRequestedLoa           = "requested_level_of_assurance"
	DetailProvidedLoa            = "provided_level_of_assurance"
)
