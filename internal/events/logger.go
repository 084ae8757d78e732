package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/pkg/logging"
)

// originatingService はイベントの発生元サービス名
const originatingService = "policy"

// Sink は監査イベントの送出先を定義する。
type Sink interface {
	LogHubEvent(ctx context.Context, event proxy.Event) error
}

// HubEventLogger はセッションの監査イベントを組み立ててevent-sinkへ送出する。
// 送出失敗は本処理を妨げない（ログに残して握り潰す）。
type HubEventLogger struct {
	sink   Sink
	clock  clockwork.Clock
	logger *slog.Logger
	fields *logging.CommonFields
}

// NewHubEventLogger はHubEventLoggerを生成する。
func NewHubEventLogger(sink Sink, clock clockwork.Clock, logger *slog.Logger, fields *logging.CommonFields) *HubEventLogger {
	return &HubEventLogger{sink: sink, clock: clock, logger: logger, fields: fields}
}

// SessionStarted はセッション開始イベントを記録する。
func (l *HubEventLogger) SessionStarted(ctx context.Context, sessionID domain.SessionID, requestID, transactionEntityID string, expiry time.Time, ipAddress string) {
	l.emit(ctx, SessionStarted, sessionID, map[string]string{
		DetailRequestID:             requestID,
		DetailTransactionEntityID:   transactionEntityID,
		DetailSessionExpiryTime:     expiry.Format(time.RFC3339),
		DetailPrincipalIPAddressHub: ipAddress,
	})
}

// IdpSelected はIdP選択イベントを記録する。
func (l *HubEventLogger) IdpSelected(ctx context.Context, sessionID domain.SessionID, idpEntityID string, requestedLoa domain.LevelOfAssurance) {
	l.emit(ctx, IdpSelected, sessionID, map[string]string{
		DetailIdpEntityID:  idpEntityID,
		DetailRequestedLoa: requestedLoa.String(),
	})
}

// CountrySelected はeIDAS国選択イベントを記録する。
func (l *HubEventLogger) CountrySelected(ctx context.Context, sessionID domain.SessionID, countryEntityID string) {
	l.emit(ctx, CountrySelected, sessionID, map[string]string{
		DetailCountryEntityID: countryEntityID,
	})
}

// IdpAuthnSucceeded はIdP認証成功イベントを記録する。
func (l *HubEventLogger) IdpAuthnSucceeded(ctx context.Context, sessionID domain.SessionID, idpEntityID string, pid domain.PersistentID, providedLoa domain.LevelOfAssurance, ipAddressByIdp string) {
	l.emit(ctx, IdpAuthnSucceeded, sessionID, map[string]string{
		DetailIdpEntityID:           idpEntityID,
		DetailPid:                   pid.NameID,
		DetailProvidedLoa:           providedLoa.String(),
		DetailPrincipalIPAddressIdp: ipAddressByIdp,
	})
}

// IdpAuthnFailed はIdP認証失敗イベントを記録する。
func (l *HubEventLogger) IdpAuthnFailed(ctx context.Context, sessionID domain.SessionID, idpEntityID string) {
	l.emit(ctx, IdpAuthnFailed, sessionID, map[string]string{
		DetailIdpEntityID: idpEntityID,
	})
}

// IdpAuthnPending はIdP認証保留イベントを記録する。
func (l *HubEventLogger) IdpAuthnPending(ctx context.Context, sessionID domain.SessionID, idpEntityID string) {
	l.emit(ctx, IdpAuthnPending, sessionID, map[string]string{
		DetailIdpEntityID: idpEntityID,
	})
}

// IdpRequesterError はIdPからのリクエスタエラーイベントを記録する。
func (l *HubEventLogger) IdpRequesterError(ctx context.Context, sessionID domain.SessionID, message string) {
	details := map[string]string{}
	if message != "" {
		details["message"] = message
	}
	l.emit(ctx, IdpRequesterError, sessionID, details)
}

// NoAuthnContext はIdPの認証コンテキスト不成立イベントを記録する。
func (l *HubEventLogger) NoAuthnContext(ctx context.Context, sessionID domain.SessionID, idpEntityID string) {
	l.emit(ctx, NoAuthnContext, sessionID, map[string]string{
		DetailIdpEntityID: idpEntityID,
	})
}

// FraudDetected は不正イベント検知を記録する。
func (l *HubEventLogger) FraudDetected(ctx context.Context, sessionID domain.SessionID, idpEntityID string, fraud domain.FraudDetectedDetails) {
	l.emit(ctx, FraudDetected, sessionID, map[string]string{
		DetailIdpEntityID:     idpEntityID,
		DetailIdpFraudEventID: fraud.EventID,
		DetailGpg45Status:     fraud.FraudIndicator,
	})
}

// WaitingForCycle3Attributes はcycle-3属性入力待ちへの移行を記録する。
func (l *HubEventLogger) WaitingForCycle3Attributes(ctx context.Context, sessionID domain.SessionID) {
	l.emit(ctx, WaitingForCycle3Attributes, sessionID, nil)
}

// Cycle3DataObtained はcycle-3属性の取得を記録する。
func (l *HubEventLogger) Cycle3DataObtained(ctx context.Context, sessionID domain.SessionID, attributeName, ipAddress string) {
	l.emit(ctx, Cycle3DataObtained, sessionID, map[string]string{
		"attribute_name":            attributeName,
		DetailPrincipalIPAddressHub: ipAddress,
	})
}

// Cycle3Cancelled はcycle-3入力の取り消しを記録する。
func (l *HubEventLogger) Cycle3Cancelled(ctx context.Context, sessionID domain.SessionID) {
	l.emit(ctx, Cycle3Cancelled, sessionID, nil)
}

// UserAccountCreationRequestSent はアカウント作成要求の送出を記録する。
func (l *HubEventLogger) UserAccountCreationRequestSent(ctx context.Context, sessionID domain.SessionID) {
	l.emit(ctx, UserAccountCreationRequestSent, sessionID, nil)
}

// SessionTimeout はセッション失効を記録する。
func (l *HubEventLogger) SessionTimeout(ctx context.Context, sessionID domain.SessionID, transactionEntityID string) {
	l.emit(ctx, SessionTimeout, sessionID, map[string]string{
		DetailTransactionEntityID: transactionEntityID,
	})
}

func (l *HubEventLogger) emit(ctx context.Context, eventName string, sessionID domain.SessionID, details map[string]string) {
	if details == nil {
		details = make(map[string]string)
	}
	details["session_event_type"] = eventName

	event := proxy.Event{
		EventID:            uuid.New().String(),
		EventType:          EventTypeSessionEvent,
		Timestamp:          l.clock.Now(),
		OriginatingService: originatingService,
		SessionID:          sessionID,
		Details:            details,
	}

	attrs := []any{
		logging.WithEventID(eventName),
		slog.String("session_id", sessionID.String()),
	}
	if pid, ok := event.Details[DetailPid]; ok {
		attrs = append(attrs, l.fields.WithPid(pid))
	}
	l.logger.InfoContext(ctx, "hub event", attrs...)

	if err := l.sink.LogHubEvent(ctx, event); err != nil {
		// 監査送出の失敗で本処理を止めない
		l.logger.WarnContext(ctx, "failed to send event to event-sink",
			logging.WithEventID("EVENT_SINK_SEND_FAILED"),
			slog.String("session_id", sessionID.String()),
			slog.String("session_event_type", eventName),
			logging.WithError(err),
		)
	}
}
