package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/internal/session"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

func loaPtr(loa domain.LevelOfAssurance) *domain.LevelOfAssurance { return &loa }

// selectIdp はセッションをIdP選択済み状態まで進める
func selectIdp(t *testing.T, e *testEnv, sessionID domain.SessionID, registering bool) {
	t.Helper()
	e.config.enabledIdps = []string{"https://idp.example.com"}
	svc := newSessionService(e)
	if err := svc.SelectIdp(context.Background(), sessionID, "https://idp.example.com", registering, domain.Level2); err != nil {
		t.Fatalf("SelectIdp failed: %v", err)
	}
}

func TestReceiveAuthnResponseFromIdp_SuccessfulRegistration(t *testing.T) {
	// 登録ジャーニー、cycle-3なし: 照会送出済み状態まで進み、
	// マッチング成立で終端する一連のシナリオ
	e := newTestEnv(t)
	sessionID := e.createSession(t, "sess-001")
	selectIdp(t, e, sessionID, true)

	e.engine.inboundFromIdp = &proxy.InboundResponseFromIdp{
		Issuer:                            "https://idp.example.com",
		Status:                            proxy.IdpStatusSuccess,
		PersistentID:                      &domain.PersistentID{NameID: "pid-001"},
		EncryptedMatchingDatasetAssertion: "encrypted-mds",
		AuthnStatementAssertion:           "authn-statement",
		LevelOfAssurance:                  loaPtr(domain.Level2),
	}
	svc := NewAuthnResponseFromIdpService(e.repo, e.factory, e.engine, e.aqs)

	action, err := svc.ReceiveAuthnResponseFromIdp(context.Background(), sessionID, SamlResponseContainer{SamlResponse: "idp-response"})
	if err != nil {
		t.Fatalf("ReceiveAuthnResponseFromIdp() error = %v", err)
	}

	if action.Result != domain.IdpResultSuccess || !action.IsRegistration || action.LoaAchieved != domain.Level2 {
		t.Errorf("ResponseAction = %+v", action)
	}
	if kind := e.currentKind(t, sessionID); kind != state.KindWaitingForMatchingServiceResponse {
		t.Errorf("状態 = %s, want WAITING_FOR_MATCHING_SERVICE_RESPONSE", kind)
	}
	if len(e.soap.sent) != 1 {
		t.Fatalf("照会送出数 = %d, want 1", len(e.soap.sent))
	}

	// マッチングサービス応答で終端する
	e.engine.inboundFromMatching = &proxy.InboundResponseFromMatchingService{
		Issuer:                   "https://msa.example.gov.uk",
		InResponseTo:             "request-1",
		Status:                   proxy.MatchingServiceStatusMatch,
		MatchingServiceAssertion: "ms-assertion",
	}
	msSvc := NewMatchingServiceResponseService(e.repo, e.factory, e.engine, e.aqs)
	action, err = msSvc.ReceiveMatchingServiceResponse(context.Background(), sessionID, "ms-response")
	if err != nil {
		t.Fatalf("ReceiveMatchingServiceResponse() error = %v", err)
	}
	if action.Result != domain.IdpResultSuccess {
		t.Errorf("Result = %q, want SUCCESS", action.Result)
	}
	if kind := e.currentKind(t, sessionID); kind != state.KindSuccessfulMatch {
		t.Errorf("状態 = %s, want SUCCESSFUL_MATCH", kind)
	}
}

func TestReceiveAuthnResponseFromIdp_RegisteringPropagated(t *testing.T) {
	e := newTestEnv(t)
	sessionID := e.createSession(t, "sess-001")
	selectIdp(t, e, sessionID, true)

	e.engine.inboundFromIdp = &proxy.InboundResponseFromIdp{
		Issuer:           "https://idp.example.com",
		Status:           proxy.IdpStatusSuccess,
		PersistentID:     &domain.PersistentID{NameID: "pid-001"},
		LevelOfAssurance: loaPtr(domain.Level2),
	}
	svc := NewAuthnResponseFromIdpService(e.repo, e.factory, e.engine, e.aqs)

	if _, err := svc.ReceiveAuthnResponseFromIdp(context.Background(), sessionID, SamlResponseContainer{SamlResponse: "idp-response"}); err != nil {
		t.Fatalf("ReceiveAuthnResponseFromIdp() error = %v", err)
	}

	st, _, err := e.repo.GetState(context.Background(), sessionID, state.KindWaitingForMatchingServiceResponse)
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if !st.(*state.WaitingForMatchingServiceResponse).Registering {
		t.Error("Registeringフラグが引き継がれていない")
	}
}

func TestReceiveAuthnResponseFromIdp_Fraud(t *testing.T) {
	e := newTestEnv(t)
	sessionID := e.createSession(t, "sess-001")
	selectIdp(t, e, sessionID, true)

	e.engine.inboundFromIdp = &proxy.InboundResponseFromIdp{
		Issuer:           "https://idp.example.com",
		Status:           proxy.IdpStatusSuccess,
		PersistentID:     &domain.PersistentID{NameID: "pid-001"},
		LevelOfAssurance: loaPtr(domain.LevelX),
		FraudEventID:     "fraud-1",
		FraudIndicator:   "FI001",
	}
	svc := NewAuthnResponseFromIdpService(e.repo, e.factory, e.engine, e.aqs)

	action, err := svc.ReceiveAuthnResponseFromIdp(context.Background(), sessionID, SamlResponseContainer{SamlResponse: "idp-response"})
	if err != nil {
		t.Fatalf("ReceiveAuthnResponseFromIdp() error = %v", err)
	}

	if action.Result != domain.IdpResultOther || !action.IsRegistration {
		t.Errorf("ResponseAction = %+v", action)
	}
	if len(e.soap.sent) != 0 {
		t.Errorf("不正イベントで照会が送出された: %d", len(e.soap.sent))
	}
	if kind := e.currentKind(t, sessionID); kind != state.KindFraudEventDetected {
		t.Errorf("状態 = %s, want FRAUD_EVENT_DETECTED", kind)
	}
}

func TestReceiveAuthnResponseFromIdp_PendingKeepsState(t *testing.T) {
	e := newTestEnv(t)
	sessionID := e.createSession(t, "sess-001")
	selectIdp(t, e, sessionID, true)

	e.engine.inboundFromIdp = &proxy.InboundResponseFromIdp{
		Issuer: "https://idp.example.com",
		Status: proxy.IdpStatusAuthenticationPending,
	}
	svc := NewAuthnResponseFromIdpService(e.repo, e.factory, e.engine, e.aqs)

	action, err := svc.ReceiveAuthnResponseFromIdp(context.Background(), sessionID, SamlResponseContainer{SamlResponse: "idp-response"})
	if err != nil {
		t.Fatalf("ReceiveAuthnResponseFromIdp() error = %v", err)
	}

	if action.Result != domain.IdpResultPending {
		t.Errorf("Result = %q, want PENDING", action.Result)
	}
	if kind := e.currentKind(t, sessionID); kind != state.KindIdpSelected {
		t.Errorf("保留応答後の状態 = %s, want IDP_SELECTED", kind)
	}
}

func TestReceiveAuthnResponseFromIdp_WrongState(t *testing.T) {
	e := newTestEnv(t)
	sessionID := e.createSession(t, "sess-001")

	svc := NewAuthnResponseFromIdpService(e.repo, e.factory, e.engine, e.aqs)
	_, err := svc.ReceiveAuthnResponseFromIdp(context.Background(), sessionID, SamlResponseContainer{SamlResponse: "idp-response"})
	var invalidState *session.InvalidStateError
	if !errors.As(err, &invalidState) {
		t.Fatalf("error = %v, want *InvalidStateError", err)
	}
	if invalidState.Actual != state.KindSessionStarted {
		t.Errorf("Actual = %s", invalidState.Actual)
	}
}

func TestReceiveAuthnResponseFromIdp_WrongIssuer(t *testing.T) {
	e := newTestEnv(t)
	sessionID := e.createSession(t, "sess-001")
	selectIdp(t, e, sessionID, true)

	e.engine.inboundFromIdp = &proxy.InboundResponseFromIdp{
		Issuer: "https://attacker.example.com",
		Status: proxy.IdpStatusSuccess,
	}
	svc := NewAuthnResponseFromIdpService(e.repo, e.factory, e.engine, e.aqs)

	_, err := svc.ReceiveAuthnResponseFromIdp(context.Background(), sessionID, SamlResponseContainer{SamlResponse: "idp-response"})
	var validationErr *domain.StateProcessingValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v, want *StateProcessingValidationError", err)
	}
}

func TestReceiveAuthnResponseFromIdp_AuthnFailedThenRetry(t *testing.T) {
	e := newTestEnv(t)
	sessionID := e.createSession(t, "sess-001")
	selectIdp(t, e, sessionID, false)

	e.engine.inboundFromIdp = &proxy.InboundResponseFromIdp{
		Issuer: "https://idp.example.com",
		Status: proxy.IdpStatusAuthenticationFailed,
	}
	svc := NewAuthnResponseFromIdpService(e.repo, e.factory, e.engine, e.aqs)

	if _, err := svc.ReceiveAuthnResponseFromIdp(context.Background(), sessionID, SamlResponseContainer{SamlResponse: "idp-response"}); err != nil {
		t.Fatalf("ReceiveAuthnResponseFromIdp() error = %v", err)
	}
	if kind := e.currentKind(t, sessionID); kind != state.KindAuthnFailedError {
		t.Fatalf("状態 = %s, want AUTHN_FAILED_ERROR", kind)
	}

	// 認証失敗後も別IdPを再選択できる
	sessionSvc := newSessionService(e)
	if err := sessionSvc.SelectIdp(context.Background(), sessionID, "https://idp.example.com", false, domain.Level2); err != nil {
		t.Fatalf("再選択に失敗: %v", err)
	}
	if kind := e.currentKind(t, sessionID); kind != state.KindIdpSelected {
		t.Errorf("状態 = %s, want IDP_SELECTED", kind)
	}
}

func TestPauseRegistration(t *testing.T) {
	e := newTestEnv(t)
	sessionID := e.createSession(t, "sess-001")
	selectIdp(t, e, sessionID, true)

	svc := NewAuthnResponseFromIdpService(e.repo, e.factory, e.engine, e.aqs)
	action, err := svc.PauseRegistration(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("PauseRegistration() error = %v", err)
	}
	if action.Result != domain.IdpResultPending {
		t.Errorf("Result = %q, want PENDING", action.Result)
	}
	if kind := e.currentKind(t, sessionID); kind != state.KindPausedRegistration {
		t.Errorf("状態 = %s, want PAUSED_REGISTRATION", kind)
	}
}
