package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/pkg/logging"
)

// fakeSink は送出されたイベントを記録するSink実装
type fakeSink struct {
	events []proxy.Event
	err    error
}

func (f *fakeSink) LogHubEvent(_ context.Context, event proxy.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func newTestEventLogger(sink *fakeSink) *HubEventLogger {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	fields := logging.NewCommonFields(logging.NewMasker(true))
	return NewHubEventLogger(sink, clock, logger, fields)
}

func TestSessionStartedEvent(t *testing.T) {
	sink := &fakeSink{}
	l := newTestEventLogger(sink)

	expiry := time.Date(2026, 3, 1, 13, 30, 0, 0, time.UTC)
	l.SessionStarted(context.Background(), domain.SessionID("sess-001"), "request-1", "https://rp.example.gov.uk", expiry, "203.0.113.1")

	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	event := sink.events[0]
	if event.EventType != EventTypeSessionEvent {
		t.Errorf("EventType = %q", event.EventType)
	}
	if event.OriginatingService != "policy" {
		t.Errorf("OriginatingService = %q", event.OriginatingService)
	}
	if event.SessionID != "sess-001" {
		t.Errorf("SessionID = %q", event.SessionID)
	}
	if event.EventID == "" {
		t.Error("EventID is empty")
	}
	if event.Details["session_event_type"] != SessionStarted {
		t.Errorf("session_event_type = %q", event.Details["session_event_type"])
	}
	if event.Details[DetailTransactionEntityID] != "https://rp.example.gov.uk" {
		t.Errorf("transaction_entity_id = %q", event.Details[DetailTransactionEntityID])
	}
	if event.Details[DetailSessionExpiryTime] != "2026-03-01T13:30:00Z" {
		t.Errorf("session_expiry_time = %q", event.Details[DetailSessionExpiryTime])
	}
}

func TestFraudDetectedEvent(t *testing.T) {
	sink := &fakeSink{}
	l := newTestEventLogger(sink)

	l.FraudDetected(context.Background(), domain.SessionID("sess-002"), "https://idp.example.com", domain.FraudDetectedDetails{
		EventID:        "fraud-evt-1",
		FraudIndicator: "FI02",
	})

	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	details := sink.events[0].Details
	if details[DetailIdpFraudEventID] != "fraud-evt-1" {
		t.Errorf("idp_fraud_event_id = %q", details[DetailIdpFraudEventID])
	}
	if details[DetailGpg45Status] != "FI02" {
		t.Errorf("gpg45_status = %q", details[DetailGpg45Status])
	}
}

func TestEventSinkFailureIsSwallowed(t *testing.T) {
	sink := &fakeSink{err: errors.New("event-sink unavailable")}
	l := newTestEventLogger(sink)

	// 送出失敗でもパニックせず呼び出し元に伝播しない
	l.IdpSelected(context.Background(), domain.SessionID("sess-003"), "https://idp.example.com", domain.Level2)
}

func TestIdpAuthnSucceededEvent(t *testing.T) {
	sink := &fakeSink{}
	l := newTestEventLogger(sink)

	l.IdpAuthnSucceeded(context.Background(), domain.SessionID("sess-004"), "https://idp.example.com",
		domain.PersistentID{NameID: "pid-123"}, domain.Level2, "198.51.100.7")

	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	details := sink.events[0].Details
	if details[DetailPid] != "pid-123" {
		t.Errorf("pid = %q", details[DetailPid])
	}
	if details[DetailProvidedLoa] != "LEVEL_2" {
		t.Errorf("provided_level_of_assurance = %q", details[DetailProvidedLoa])
	}
}
