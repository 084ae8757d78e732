package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alphagov/verify-hub-sub002/internal/config"
	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

func newWaitingState(registering, cycle3Performed bool) *state.WaitingForMatchingServiceResponse {
	return &state.WaitingForMatchingServiceResponse{
		Core:                              testCore(),
		IdpEntityID:                       "https://idp.example.com",
		MatchingServiceEntityID:           "https://msa.example.gov.uk",
		RequestSentTime:                   testNow,
		IdpLevelOfAssurance:               domain.Level2,
		Registering:                       registering,
		Cycle3Performed:                   cycle3Performed,
		EncryptedMatchingDatasetAssertion: "encrypted-mds",
		AuthnStatementAssertion:           "authn-statement",
		PersistentID:                      domain.PersistentID{NameID: "pid-001"},
	}
}

func TestHandleMatchResponse(t *testing.T) {
	c := newTestFactory(&fakeConfigService{}, &fakeSink{}).WaitingForMatchingServiceResponse(newWaitingState(true, false))

	outcome, err := c.HandleMatchResponse(context.Background(), domain.MatchFromMatchingService{
		Issuer:                   "https://msa.example.gov.uk",
		InResponseTo:             "request-1",
		MatchingServiceAssertion: "ms-assertion",
	})
	if err != nil {
		t.Fatalf("HandleMatchResponse() error = %v", err)
	}

	next, ok := outcome.Next.(*state.SuccessfulMatch)
	if !ok {
		t.Fatalf("次状態 = %T, want *SuccessfulMatch", outcome.Next)
	}
	if next.MatchingServiceAssertion != "ms-assertion" {
		t.Errorf("MatchingServiceAssertion = %q", next.MatchingServiceAssertion)
	}
	if !next.Registering {
		t.Error("Registeringフラグが引き継がれていない")
	}
	if outcome.ResponseAction.Result != domain.IdpResultSuccess {
		t.Errorf("Result = %q, want SUCCESS", outcome.ResponseAction.Result)
	}
}

func TestHandleMatchResponse_WrongIssuer(t *testing.T) {
	c := newTestFactory(&fakeConfigService{}, &fakeSink{}).WaitingForMatchingServiceResponse(newWaitingState(true, false))

	_, err := c.HandleMatchResponse(context.Background(), domain.MatchFromMatchingService{
		Issuer:       "https://attacker.example.com",
		InResponseTo: "request-1",
	})
	var validationErr *domain.StateProcessingValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v, want *StateProcessingValidationError", err)
	}
}

func TestHandleNoMatchResponse_FallbackToCycle3(t *testing.T) {
	config := &fakeConfigService{matchingProcess: &proxy.MatchingProcess{AttributeName: "NationalInsuranceNumber"}}
	c := newTestFactory(config, &fakeSink{}).WaitingForMatchingServiceResponse(newWaitingState(true, false))

	outcome, err := c.HandleNoMatchResponse(context.Background(), domain.NoMatchFromMatchingService{
		Issuer:       "https://msa.example.gov.uk",
		InResponseTo: "request-1",
	})
	if err != nil {
		t.Fatalf("HandleNoMatchResponse() error = %v", err)
	}

	next, ok := outcome.Next.(*state.AwaitingCycle3Data)
	if !ok {
		t.Fatalf("次状態 = %T, want *AwaitingCycle3Data", outcome.Next)
	}
	if next.EncryptedMatchingDatasetAssertion != "encrypted-mds" {
		t.Errorf("EncryptedMatchingDatasetAssertion = %q", next.EncryptedMatchingDatasetAssertion)
	}
}

func TestHandleNoMatchResponse_UserAccountCreation(t *testing.T) {
	config := &fakeConfigService{uacAttributes: []string{"FIRST_NAME", "SURNAME"}}
	sink := &fakeSink{}
	c := newTestFactory(config, sink).WaitingForMatchingServiceResponse(newWaitingState(true, true))

	outcome, err := c.HandleNoMatchResponse(context.Background(), domain.NoMatchFromMatchingService{
		Issuer:       "https://msa.example.gov.uk",
		InResponseTo: "request-1",
	})
	if err != nil {
		t.Fatalf("HandleNoMatchResponse() error = %v", err)
	}

	if _, ok := outcome.Next.(*state.UserAccountCreationRequestSent); !ok {
		t.Fatalf("次状態 = %T, want *UserAccountCreationRequestSent", outcome.Next)
	}
	if outcome.AttributeQuery == nil {
		t.Fatal("アカウント作成照会が生成されていない")
	}
	if len(outcome.AttributeQuery.UserAccountCreationAttributes) != 2 {
		t.Errorf("UserAccountCreationAttributes = %v", outcome.AttributeQuery.UserAccountCreationAttributes)
	}
	if len(sink.events) != 1 {
		t.Errorf("監査イベント数 = %d, want 1", len(sink.events))
	}
}

func TestHandleNoMatchResponse_TerminalNoMatch(t *testing.T) {
	// サインインジャーニー、cycle-3実施済み: フォールバック先なし
	c := newTestFactory(&fakeConfigService{}, &fakeSink{}).WaitingForMatchingServiceResponse(newWaitingState(false, true))

	outcome, err := c.HandleNoMatchResponse(context.Background(), domain.NoMatchFromMatchingService{
		Issuer:       "https://msa.example.gov.uk",
		InResponseTo: "request-1",
	})
	if err != nil {
		t.Fatalf("HandleNoMatchResponse() error = %v", err)
	}
	if _, ok := outcome.Next.(*state.NoMatch); !ok {
		t.Fatalf("次状態 = %T, want *NoMatch", outcome.Next)
	}
}

func TestHandleRequestFailure(t *testing.T) {
	c := newTestFactory(&fakeConfigService{}, &fakeSink{}).WaitingForMatchingServiceResponse(newWaitingState(true, false))

	outcome := c.HandleRequestFailure(context.Background())
	if _, ok := outcome.Next.(*state.MatchingServiceRequestError); !ok {
		t.Fatalf("次状態 = %T, want *MatchingServiceRequestError", outcome.Next)
	}
}

func TestOverdue(t *testing.T) {
	st := newWaitingState(true, false)
	configSvc := &fakeConfigService{}

	clock := clockwork.NewFakeClockAt(testNow)
	factory := NewFactory(configSvc, newTestFactory(configSvc, &fakeSink{}).events, clock)
	c := factory.WaitingForMatchingServiceResponse(st)

	if c.Overdue() {
		t.Error("送出直後にOverdue = true")
	}
	clock.Advance(config.MatchingServiceResponseWaitPeriod + time.Second)
	if !c.Overdue() {
		t.Error("待ち上限超過後にOverdue = false")
	}
}

func TestHandleUserAccountCreatedResponse(t *testing.T) {
	st := &state.UserAccountCreationRequestSent{
		Core:                    testCore(),
		IdpEntityID:             "https://idp.example.com",
		MatchingServiceEntityID: "https://msa.example.gov.uk",
		RequestSentTime:         testNow,
		IdpLevelOfAssurance:     domain.Level2,
		Registering:             true,
	}
	c := newTestFactory(&fakeConfigService{}, &fakeSink{}).UserAccountCreationRequestSent(st)

	outcome, err := c.HandleUserAccountCreatedResponse(context.Background(), domain.UserAccountCreatedFromMatchingService{
		Issuer:                   "https://msa.example.gov.uk",
		InResponseTo:             "request-1",
		MatchingServiceAssertion: "uac-assertion",
		LevelOfAssurance:         domain.Level2,
	})
	if err != nil {
		t.Fatalf("HandleUserAccountCreatedResponse() error = %v", err)
	}

	next, ok := outcome.Next.(*state.UserAccountCreated)
	if !ok {
		t.Fatalf("次状態 = %T, want *UserAccountCreated", outcome.Next)
	}
	if next.MatchingServiceAssertion != "uac-assertion" {
		t.Errorf("MatchingServiceAssertion = %q", next.MatchingServiceAssertion)
	}
	if outcome.ResponseAction.Result != domain.IdpResultSuccess {
		t.Errorf("Result = %q, want SUCCESS", outcome.ResponseAction.Result)
	}
}

func TestHandleUserAccountCreationFailedResponse(t *testing.T) {
	st := &state.UserAccountCreationRequestSent{
		Core:                    testCore(),
		MatchingServiceEntityID: "https://msa.example.gov.uk",
	}
	c := newTestFactory(&fakeConfigService{}, &fakeSink{}).UserAccountCreationRequestSent(st)

	outcome, err := c.HandleUserAccountCreationFailedResponse(context.Background(), "https://msa.example.gov.uk", "request-1")
	if err != nil {
		t.Fatalf("HandleUserAccountCreationFailedResponse() error = %v", err)
	}
	if _, ok := outcome.Next.(*state.UserAccountCreationFailed); !ok {
		t.Fatalf("次状態 = %T, want *UserAccountCreationFailed", outcome.Next)
	}
}
