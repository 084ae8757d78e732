package proxy

import (
	"context"
	"log/slog"
)

// EventSinkClient はevent-sinkへの型付きクライアント。
type EventSinkClient struct {
	*baseClient
}

// NewEventSinkClient はEventSinkClientを生成する。
func NewEventSinkClient(baseURL string, logger *slog.Logger) *EventSinkClient {
	return &EventSinkClient{baseClient: newBaseClient("event-sink", baseURL, logger)}
}

// LogHubEvent は監査イベントをevent-sinkへ送出する。
func (c *EventSinkClient) LogHubEvent(ctx context.Context, event Event) error {
	return c.postJSON(ctx, "/event-sink/hub-support-hub-events", nil, event, nil)
}
