package controller

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/events"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/internal/state"
	"github.com/alphagov/verify-hub-sub002/pkg/logging"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeConfigService は設定サービスの固定応答を返すConfigService実装
type fakeConfigService struct {
	transaction     *proxy.TransactionConfig
	matchingProcess *proxy.MatchingProcess
	uacAttributes   []string
	enabledIdps     []string
	matchingService *proxy.MatchingServiceConfig
	err             error
	calls           map[string]int
}

func (f *fakeConfigService) record(name string) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeConfigService) TransactionConfig(_ context.Context, _ string) (*proxy.TransactionConfig, error) {
	f.record("TransactionConfig")
	if f.err != nil {
		return nil, f.err
	}
	return f.transaction, nil
}

func (f *fakeConfigService) MatchingProcess(_ context.Context, _ string) (*proxy.MatchingProcess, error) {
	f.record("MatchingProcess")
	if f.err != nil {
		return nil, f.err
	}
	if f.matchingProcess == nil {
		return &proxy.MatchingProcess{}, nil
	}
	return f.matchingProcess, nil
}

func (f *fakeConfigService) UserAccountCreationAttributes(_ context.Context, _ string) ([]string, error) {
	f.record("UserAccountCreationAttributes")
	if f.err != nil {
		return nil, f.err
	}
	return f.uacAttributes, nil
}

func (f *fakeConfigService) EnabledIdentityProviders(_ context.Context, _ string, _ bool, _ domain.LevelOfAssurance) ([]string, error) {
	f.record("EnabledIdentityProviders")
	if f.err != nil {
		return nil, f.err
	}
	return f.enabledIdps, nil
}

func (f *fakeConfigService) MatchingServiceConfig(_ context.Context, _ string) (*proxy.MatchingServiceConfig, error) {
	f.record("MatchingServiceConfig")
	if f.err != nil {
		return nil, f.err
	}
	if f.matchingService == nil {
		return &proxy.MatchingServiceConfig{EntityID: "https://msa.example.gov.uk"}, nil
	}
	return f.matchingService, nil
}

// fakeSink は送出されたイベントを記録するevents.Sink実装
type fakeSink struct {
	events []proxy.Event
}

func (f *fakeSink) LogHubEvent(_ context.Context, event proxy.Event) error {
	f.events = append(f.events, event)
	return nil
}

func newTestFactory(config *fakeConfigService, sink *fakeSink) *Factory {
	clock := clockwork.NewFakeClockAt(testNow)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	fields := logging.NewCommonFields(logging.NewMasker(true))
	eventLogger := events.NewHubEventLogger(sink, clock, logger, fields)
	return NewFactory(config, eventLogger, clock)
}

func testCore() state.Core {
	return state.Core{
		SessionID:                   domain.SessionID("sess-001"),
		RequestID:                   "request-1",
		RequestIssuerEntityID:       "https://rp.example.gov.uk",
		SessionExpiryTimestamp:      testNow.Add(90 * time.Minute),
		AssertionConsumerServiceURI: "https://rp.example.gov.uk/acs",
		TransactionSupportsEidas:    true,
	}
}
