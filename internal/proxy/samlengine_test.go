package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/pkg/httputil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestTranslateIdpAuthnResponseSuccess(t *testing.T) {
	loa := domain.Level2
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/saml-engine/translate-idp-authn-response" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req SamlAuthnResponseTranslation
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.SessionID != "sess-001" {
			t.Errorf("session_id = %s", req.SessionID)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(InboundResponseFromIdp{
			Issuer:                            "https://idp.example.com",
			Status:                            IdpStatusSuccess,
			PersistentID:                      &domain.PersistentID{NameID: "pid-123"},
			AuthnStatementAssertion:           "authn-assertion",
			EncryptedMatchingDatasetAssertion: "mds-assertion",
			LevelOfAssurance:                  &loa,
		})
	}))
	defer server.Close()

	client := NewSamlEngineClient(server.URL, testLogger())
	resp, err := client.TranslateIdpAuthnResponse(context.Background(), SamlAuthnResponseTranslation{
		SamlResponse: "PHNhbWxwOlJlc3BvbnNlPg==",
		SessionID:    domain.SessionID("sess-001"),
	})
	if err != nil {
		t.Fatalf("TranslateIdpAuthnResponse failed: %v", err)
	}

	if resp.Status != IdpStatusSuccess {
		t.Errorf("Status = %s", resp.Status)
	}
	if resp.PersistentID == nil || resp.PersistentID.NameID != "pid-123" {
		t.Errorf("PersistentID = %+v", resp.PersistentID)
	}
	if *resp.LevelOfAssurance != domain.Level2 {
		t.Errorf("LevelOfAssurance = %s", *resp.LevelOfAssurance)
	}
}

func TestTranslateIdpAuthnResponseBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(httputil.BadRequest("invalid saml response"))
	}))
	defer server.Close()

	client := NewSamlEngineClient(server.URL, testLogger())
	_, err := client.TranslateIdpAuthnResponse(context.Background(), SamlAuthnResponseTranslation{})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if !apiErr.IsBadRequest() {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Problem == nil || apiErr.Problem.Detail != "invalid saml response" {
		t.Errorf("Problem = %+v", apiErr.Problem)
	}
}

func TestGenerateRpAuthnResponseServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewSamlEngineClient(server.URL, testLogger())
	_, err := client.GenerateRpAuthnResponse(context.Background(), ResponseFromHubGeneration{})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if !apiErr.IsServerError() {
		t.Errorf("StatusCode = %d, want 5xx", apiErr.StatusCode)
	}
}

func TestSamlEngineConnectionError(t *testing.T) {
	// 接続先が存在しないポートを指す
	client := NewSamlEngineClient("http://127.0.0.1:1", testLogger())
	_, err := client.GenerateIdpAuthnRequest(context.Background(), IdpAuthnRequestGeneration{})

	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("error = %v, want ConnectionError", err)
	}
}

func TestSamlEngineCircuitOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewSamlEngineClient(server.URL, testLogger())
	ctx := context.Background()

	// 連続失敗でCircuit BreakerがOpenになる
	for i := 0; i < 10; i++ {
		_, err := client.GenerateAttributeQuery(ctx, AttributeQueryRequest{})
		if errors.Is(err, ErrCircuitOpen) {
			return
		}
	}
	t.Error("circuit breaker did not open after consecutive failures")
}
