package logging

import "log/slog"

// ログフィールド名の定数
const (
	FieldTraceID    = "trace_id"
	FieldEventID    = "event_id"
	FieldError      = "error"
	FieldSrcIP      = "src_ip"
	FieldLatencyMs  = "latency_ms"
	FieldHTTPStatus = "http_status"
	FieldRetryCount = "retry_count"
	FieldSessionID  = "session_id"
	FieldPid        = "pid"
)

// WithTraceID はトレースIDのslog.Attrを返す。
func WithTraceID(traceID string) slog.Attr {
	return slog.String(FieldTraceID, traceID)
}

// WithEventID はイベントIDのslog.Attrを返す。
func WithEventID(eventID string) slog.Attr {
	return slog.String(FieldEventID, eventID)
}

// WithError はエラーのslog.Attrを返す。
func WithError(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

// WithSrcIP はソースIPアドレスのslog.Attrを返す。
func WithSrcIP(ip string) slog.Attr {
	return slog.String(FieldSrcIP, ip)
}

// WithLatency はレイテンシ（ミリ秒）のslog.Attrを返す。
func WithLatency(ms int64) slog.Attr {
	return slog.Int64(FieldLatencyMs, ms)
}

// WithHTTPStatus はHTTPステータスコードのslog.Attrを返す。
func WithHTTPStatus(status int) slog.Attr {
	return slog.Int(FieldHTTPStatus, status)
}

// WithRetryCount はリトライ回数のslog.Attrを返す。
func WithRetryCount(count int) slog.Attr {
	return slog.Int(FieldRetryCount, count)
}

// WithSessionID はセッションIDのslog.Attrを返す。
func WithSessionID(sessionID string) slog.Attr {
	return slog.String(FieldSessionID, sessionID)
}

// CommonFields はマスキング設定を保持するログフィールド生成器。
type CommonFields struct {
	masker *Masker
}

// NewCommonFields は新しいCommonFieldsを生成する。
func NewCommonFields(masker *Masker) *CommonFields {
	if masker == nil {
		masker = NewMasker(false)
	}
	return &CommonFields{masker: masker}
}

// WithPid はマスキングされた永続IDのslog.Attrを返す。
func (cf *CommonFields) WithPid(pid string) slog.Attr {
	return slog.String(FieldPid, cf.masker.Pid(pid))
}

// SessionLogFields はセッションログ用の共通フィールドを返す。
func (cf *CommonFields) SessionLogFields(sessionID, eventID, pid string) []any {
	return []any{
		WithSessionID(sessionID),
		WithEventID(eventID),
		cf.WithPid(pid),
	}
}
