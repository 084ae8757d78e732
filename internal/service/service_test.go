package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/alphagov/verify-hub-sub002/internal/controller"
	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/events"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/internal/session"
	"github.com/alphagov/verify-hub-sub002/internal/state"
	"github.com/alphagov/verify-hub-sub002/pkg/logging"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeSamlEngine は固定の翻訳・生成結果を返すSamlEngine実装
type fakeSamlEngine struct {
	translatedRequest   *proxy.TranslatedAuthnRequest
	idpAuthnRequest     *proxy.SamlRequestWithDestination
	inboundFromIdp      *proxy.InboundResponseFromIdp
	inboundFromCountry  *proxy.InboundResponseFromCountry
	inboundFromMatching *proxy.InboundResponseFromMatchingService
	hubResponse         *proxy.AuthnResponseFromHubContainer
	generatedQueries    []proxy.AttributeQueryRequest
	generatedEidas      []proxy.EidasAttributeQueryRequest
	err                 error
}

func (f *fakeSamlEngine) TranslateRpAuthnRequest(_ context.Context, _ proxy.SamlAuthnRequestTranslation) (*proxy.TranslatedAuthnRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.translatedRequest, nil
}

func (f *fakeSamlEngine) GenerateIdpAuthnRequest(_ context.Context, _ proxy.IdpAuthnRequestGeneration) (*proxy.SamlRequestWithDestination, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.idpAuthnRequest, nil
}

func (f *fakeSamlEngine) TranslateIdpAuthnResponse(_ context.Context, _ proxy.SamlAuthnResponseTranslation) (*proxy.InboundResponseFromIdp, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.inboundFromIdp, nil
}

func (f *fakeSamlEngine) TranslateCountryAuthnResponse(_ context.Context, _ proxy.SamlAuthnResponseTranslation) (*proxy.InboundResponseFromCountry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.inboundFromCountry, nil
}

func (f *fakeSamlEngine) GenerateRpAuthnResponse(_ context.Context, _ proxy.ResponseFromHubGeneration) (*proxy.AuthnResponseFromHubContainer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hubResponse, nil
}

func (f *fakeSamlEngine) GenerateRpErrorResponse(_ context.Context, _ proxy.ResponseFromHubGeneration) (*proxy.AuthnResponseFromHubContainer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hubResponse, nil
}

func (f *fakeSamlEngine) GenerateAttributeQuery(_ context.Context, req proxy.AttributeQueryRequest) (*proxy.AttributeQueryContainer, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.generatedQueries = append(f.generatedQueries, req)
	return &proxy.AttributeQueryContainer{ID: req.RequestID, SamlRequest: "generated-aqr"}, nil
}

func (f *fakeSamlEngine) GenerateEidasAttributeQuery(_ context.Context, req proxy.EidasAttributeQueryRequest) (*proxy.AttributeQueryContainer, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.generatedEidas = append(f.generatedEidas, req)
	return &proxy.AttributeQueryContainer{ID: req.RequestID, SamlRequest: "generated-eidas-aqr"}, nil
}

func (f *fakeSamlEngine) TranslateMatchingServiceResponse(_ context.Context, _ proxy.SamlResponseContainer) (*proxy.InboundResponseFromMatchingService, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.inboundFromMatching, nil
}

// fakeSoapProxy は送出された照会を記録するSoapProxy実装
type fakeSoapProxy struct {
	sent []proxy.AttributeQueryContainer
	err  error
}

func (f *fakeSoapProxy) SendHubMatchingServiceRequest(_ context.Context, _ domain.SessionID, query proxy.AttributeQueryContainer) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, query)
	return nil
}

// fakeConfig は設定サービスの固定応答を返すConfigService実装
type fakeConfig struct {
	transaction     *proxy.TransactionConfig
	matchingProcess *proxy.MatchingProcess
	uacAttributes   []string
	enabledIdps     []string
	matchingService *proxy.MatchingServiceConfig
	acsURI          string
	countries       []proxy.EidasCountry
	countryAllow    []string
	acsCalls        int
}

func (f *fakeConfig) TransactionConfig(_ context.Context, _ string) (*proxy.TransactionConfig, error) {
	if f.transaction == nil {
		return &proxy.TransactionConfig{MatchingServiceEntityID: "https://msa.example.gov.uk", UsingMatching: true}, nil
	}
	return f.transaction, nil
}

func (f *fakeConfig) MatchingProcess(_ context.Context, _ string) (*proxy.MatchingProcess, error) {
	if f.matchingProcess == nil {
		return &proxy.MatchingProcess{}, nil
	}
	return f.matchingProcess, nil
}

func (f *fakeConfig) UserAccountCreationAttributes(_ context.Context, _ string) ([]string, error) {
	return f.uacAttributes, nil
}

func (f *fakeConfig) EnabledIdentityProviders(_ context.Context, _ string, _ bool, _ domain.LevelOfAssurance) ([]string, error) {
	return f.enabledIdps, nil
}

func (f *fakeConfig) MatchingServiceConfig(_ context.Context, _ string) (*proxy.MatchingServiceConfig, error) {
	if f.matchingService == nil {
		return &proxy.MatchingServiceConfig{EntityID: "https://msa.example.gov.uk"}, nil
	}
	return f.matchingService, nil
}

func (f *fakeConfig) AssertionConsumerServiceURI(_ context.Context, _ string, _ *int) (string, error) {
	f.acsCalls++
	return f.acsURI, nil
}

func (f *fakeConfig) EidasCountries(_ context.Context) ([]proxy.EidasCountry, error) {
	return f.countries, nil
}

func (f *fakeConfig) TransactionEidasCountries(_ context.Context, _ string) ([]string, error) {
	return f.countryAllow, nil
}

// testEnv はサービステスト一式の依存をまとめる
type testEnv struct {
	repo    *session.Repository
	factory *controller.Factory
	engine  *fakeSamlEngine
	soap    *fakeSoapProxy
	config  *fakeConfig
	clock   *clockwork.FakeClock
	aqs     *AttributeQueryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := clockwork.NewFakeClockAt(testNow)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	engine := &fakeSamlEngine{}
	soap := &fakeSoapProxy{}
	config := &fakeConfig{acsURI: "https://rp1.example.gov.uk/acs"}

	fields := logging.NewCommonFields(logging.NewMasker(true))
	eventLogger := events.NewHubEventLogger(&discardSink{}, clock, logger, fields)
	repo := session.NewRepository(session.NewStore(client, clock), clock, eventLogger, logger)
	factory := controller.NewFactory(config, eventLogger, clock)

	return &testEnv{
		repo:    repo,
		factory: factory,
		engine:  engine,
		soap:    soap,
		config:  config,
		clock:   clock,
		aqs:     NewAttributeQueryService(engine, soap, logger),
	}
}

type discardSink struct{}

func (discardSink) LogHubEvent(_ context.Context, _ proxy.Event) error { return nil }

// createSession は初期状態のセッションを直接保存する
func (e *testEnv) createSession(t *testing.T, id string) domain.SessionID {
	t.Helper()
	sessionID := domain.SessionID(id)
	initial := &state.SessionStarted{
		Core: state.Core{
			SessionID:                   sessionID,
			RequestID:                   "request-1",
			RequestIssuerEntityID:       "rp1",
			SessionExpiryTimestamp:      testNow.Add(90 * time.Minute),
			AssertionConsumerServiceURI: "https://rp1.example.gov.uk/acs",
			TransactionSupportsEidas:    true,
		},
	}
	if err := e.repo.CreateSession(context.Background(), initial); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return sessionID
}

// currentKind はストアに保存されている現在の状態種別を返す
func (e *testEnv) currentKind(t *testing.T, sessionID domain.SessionID) state.Kind {
	t.Helper()
	st, _, err := e.repo.GetAnyState(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetAnyState failed: %v", err)
	}
	return st.Kind()
}
