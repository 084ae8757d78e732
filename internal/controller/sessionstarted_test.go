package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

func TestSelectIdp(t *testing.T) {
	config := &fakeConfigService{enabledIdps: []string{"https://idp-a.example.com", "https://idp-b.example.com"}}
	sink := &fakeSink{}
	c := newTestFactory(config, sink).SessionStarted(&state.SessionStarted{Core: testCore()})

	next, err := c.SelectIdp(context.Background(), "https://idp-b.example.com", true, domain.Level2)
	if err != nil {
		t.Fatalf("SelectIdp() error = %v", err)
	}
	if next.IdpEntityID != "https://idp-b.example.com" {
		t.Errorf("IdpEntityID = %q", next.IdpEntityID)
	}
	if !next.Registering || next.RequestedLoa != domain.Level2 {
		t.Errorf("Registering = %v, RequestedLoa = %q", next.Registering, next.RequestedLoa)
	}
	if len(next.AvailableIdentityProviders) != 2 {
		t.Errorf("AvailableIdentityProviders = %v", next.AvailableIdentityProviders)
	}
	if len(sink.events) != 1 {
		t.Errorf("監査イベント数 = %d, want 1", len(sink.events))
	}
}

func TestSelectIdp_DisabledIdp(t *testing.T) {
	config := &fakeConfigService{enabledIdps: []string{"https://idp-a.example.com"}}
	c := newTestFactory(config, &fakeSink{}).SessionStarted(&state.SessionStarted{Core: testCore()})

	_, err := c.SelectIdp(context.Background(), "https://idp-z.example.com", true, domain.Level2)
	if !errors.Is(err, domain.ErrIdpDisabled) {
		t.Fatalf("error = %v, want ErrIdpDisabled", err)
	}
}

func TestSelectIdp_InvalidLoa(t *testing.T) {
	c := newTestFactory(&fakeConfigService{}, &fakeSink{}).SessionStarted(&state.SessionStarted{Core: testCore()})

	_, err := c.SelectIdp(context.Background(), "https://idp-a.example.com", true, domain.LevelOfAssurance("LEVEL_9"))
	var validationErr *domain.StateProcessingValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v, want *StateProcessingValidationError", err)
	}
}

func TestSelectCountry(t *testing.T) {
	c := newTestFactory(&fakeConfigService{}, &fakeSink{}).SessionStarted(&state.SessionStarted{Core: testCore()})

	next, err := c.SelectCountry(context.Background(), "https://eidas.example.eu", false, domain.Level2)
	if err != nil {
		t.Fatalf("SelectCountry() error = %v", err)
	}
	if next.CountryEntityID != "https://eidas.example.eu" {
		t.Errorf("CountryEntityID = %q", next.CountryEntityID)
	}
}

func TestSelectCountry_EidasNotSupported(t *testing.T) {
	core := testCore()
	core.TransactionSupportsEidas = false
	c := newTestFactory(&fakeConfigService{}, &fakeSink{}).SessionStarted(&state.SessionStarted{Core: core})

	_, err := c.SelectCountry(context.Background(), "https://eidas.example.eu", false, domain.Level2)
	if !errors.Is(err, domain.ErrEidasNotSupported) {
		t.Fatalf("error = %v, want ErrEidasNotSupported", err)
	}
}

func TestAuthnFailedError_SelectIdpAgain(t *testing.T) {
	config := &fakeConfigService{enabledIdps: []string{"https://idp-a.example.com"}}
	c := newTestFactory(config, &fakeSink{}).AuthnFailedError(&state.AuthnFailedError{Core: testCore()})

	next, err := c.SelectIdp(context.Background(), "https://idp-a.example.com", false, domain.Level1)
	if err != nil {
		t.Fatalf("SelectIdp() error = %v", err)
	}
	if next.Kind() != state.KindIdpSelected {
		t.Errorf("次状態 = %s, want IDP_SELECTED", next.Kind())
	}
}

func TestAuthnFailedError_Restart(t *testing.T) {
	c := newTestFactory(&fakeConfigService{}, &fakeSink{}).AuthnFailedError(&state.AuthnFailedError{Core: testCore(), RelayState: "rs-1"})

	next := c.Restart()
	if next.Kind() != state.KindSessionStarted {
		t.Errorf("次状態 = %s, want SESSION_STARTED", next.Kind())
	}
	if next.RelayState != "rs-1" {
		t.Errorf("RelayState = %q", next.RelayState)
	}
}
