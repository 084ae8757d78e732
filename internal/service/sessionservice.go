package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/alphagov/verify-hub-sub002/internal/controller"
	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/events"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/internal/session"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// SessionCreateRequest はRPからのAuthnRequest受理時の入力。
type SessionCreateRequest struct {
	SamlRequest        string `json:"saml_request" binding:"required"`
	RelayState         string `json:"relay_state"`
	PrincipalIPAddress string `json:"principal_ip_address_as_seen_by_hub"`
}

// SessionService はセッションのライフサイクル操作を担う。
// 生成時にはSAMLエンジンの翻訳結果のACS URLが設定サービスに登録された
// URLと一致することを検証する(改ざん対策)。
type SessionService struct {
	repo         *session.Repository
	factory      *controller.Factory
	samlEngine   SamlEngine
	config       ConfigService
	events       *events.HubEventLogger
	clock        clockwork.Clock
	eidasEnabled bool
	logger       *slog.Logger
}

// NewSessionService はSessionServiceを生成する。
func NewSessionService(repo *session.Repository, factory *controller.Factory, samlEngine SamlEngine, config ConfigService, eventLogger *events.HubEventLogger, clock clockwork.Clock, eidasEnabled bool, logger *slog.Logger) *SessionService {
	return &SessionService{
		repo:         repo,
		factory:      factory,
		samlEngine:   samlEngine,
		config:       config,
		events:       eventLogger,
		clock:        clock,
		eidasEnabled: eidasEnabled,
		logger:       logger,
	}
}

// Create はRPのAuthnRequestを翻訳し、新規セッションを初期状態で保存する。
func (s *SessionService) Create(ctx context.Context, req SessionCreateRequest) (domain.SessionID, error) {
	translated, err := s.samlEngine.TranslateRpAuthnRequest(ctx, proxy.SamlAuthnRequestTranslation{
		SamlMessage:        req.SamlRequest,
		PrincipalIPAddress: req.PrincipalIPAddress,
	})
	if err != nil {
		return "", &domain.SessionCreationFailureError{Reason: "failed to translate authn request", Cause: err}
	}

	configuredACS, err := s.config.AssertionConsumerServiceURI(ctx, translated.Issuer, translated.AssertionConsumerServiceIndex)
	if err != nil {
		return "", &domain.SessionCreationFailureError{Reason: "failed to resolve assertion consumer service uri", Cause: err}
	}
	if translated.AssertionConsumerServiceURL != "" && translated.AssertionConsumerServiceURL != configuredACS {
		return "", &domain.SessionCreationFailureError{
			Reason: fmt.Sprintf("assertion consumer service uri %q does not match configured uri for issuer %s", translated.AssertionConsumerServiceURL, translated.Issuer),
		}
	}

	txConfig, err := s.config.TransactionConfig(ctx, translated.Issuer)
	if err != nil {
		return "", &domain.SessionCreationFailureError{Reason: "failed to load transaction config", Cause: err}
	}

	sessionID := domain.NewSessionID()
	initial := &state.SessionStarted{
		Core: state.Core{
			SessionID:                   sessionID,
			RequestID:                   translated.RequestID,
			RequestIssuerEntityID:       translated.Issuer,
			SessionExpiryTimestamp:      translated.SessionExpiryTimestamp,
			AssertionConsumerServiceURI: configuredACS,
			TransactionSupportsEidas:    s.eidasEnabled && txConfig.EidasEnabled,
		},
		RelayState:          req.RelayState,
		ForceAuthentication: translated.ForceAuthentication,
	}
	if err := s.repo.CreateSession(ctx, initial); err != nil {
		return "", err
	}

	s.events.SessionStarted(ctx, sessionID, translated.RequestID, translated.Issuer, translated.SessionExpiryTimestamp, req.PrincipalIPAddress)
	return sessionID, nil
}

// SessionExists はセッションの存在有無を返す。
func (s *SessionService) SessionExists(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	return s.repo.SessionExists(ctx, sessionID)
}

// SelectIdp はIdP選択を処理する。初期状態のほか、IdPへ遷移する前の
// 選択し直しと認証失敗後の再選択を受理する。
func (s *SessionService) SelectIdp(ctx context.Context, sessionID domain.SessionID, idpEntityID string, registering bool, requestedLoa domain.LevelOfAssurance) error {
	st, version, err := s.getStateAmong(ctx, sessionID, state.KindSessionStarted, state.KindIdpSelected, state.KindAuthnFailedError)
	if err != nil {
		return err
	}

	var next *state.IdpSelected
	switch v := st.(type) {
	case *state.SessionStarted:
		next, err = s.factory.SessionStarted(v).SelectIdp(ctx, idpEntityID, registering, requestedLoa)
	case *state.IdpSelected:
		next, err = s.factory.IdpSelected(v).SelectIdp(ctx, idpEntityID, registering, requestedLoa)
	case *state.AuthnFailedError:
		next, err = s.factory.AuthnFailedError(v).SelectIdp(ctx, idpEntityID, registering, requestedLoa)
	default:
		return &session.InvalidStateError{SessionID: sessionID, Expected: state.KindSessionStarted, Actual: st.Kind()}
	}
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, next, version)
}

// RestartJourney はジャーニーをIdP/国未選択の初期状態へ巻き戻す。
// 認証失敗後および国選択済みの状態から受理する。
func (s *SessionService) RestartJourney(ctx context.Context, sessionID domain.SessionID) error {
	st, version, err := s.getStateAmong(ctx, sessionID, state.KindAuthnFailedError, state.KindEidasCountrySelected)
	if err != nil {
		return err
	}

	var next *state.SessionStarted
	switch v := st.(type) {
	case *state.AuthnFailedError:
		next = s.factory.AuthnFailedError(v).Restart()
	case *state.EidasCountrySelected:
		next = s.factory.EidasCountrySelected(v).Restart()
	default:
		return &session.InvalidStateError{SessionID: sessionID, Expected: state.KindAuthnFailedError, Actual: st.Kind()}
	}
	return s.repo.Save(ctx, next, version)
}

// getStateAmong は受理可能なKindのいずれかに一致する状態を取得する。
// いずれとも一致しない場合は先頭のKindを期待値とするInvalidStateErrorを返す。
func (s *SessionService) getStateAmong(ctx context.Context, sessionID domain.SessionID, kinds ...state.Kind) (state.State, int64, error) {
	st, version, err := s.repo.GetState(ctx, sessionID, kinds[0])
	if err == nil {
		return st, version, nil
	}
	var invalidState *session.InvalidStateError
	if !errors.As(err, &invalidState) {
		return nil, 0, err
	}
	for _, kind := range kinds[1:] {
		if invalidState.Actual == kind {
			return s.repo.GetState(ctx, sessionID, kind)
		}
	}
	return nil, 0, err
}

// IdpAuthnRequest は選択済みIdPへ送るAuthnRequestを生成する。
func (s *SessionService) IdpAuthnRequest(ctx context.Context, sessionID domain.SessionID) (*proxy.SamlRequestWithDestination, error) {
	st, _, err := s.repo.GetState(ctx, sessionID, state.KindIdpSelected)
	if err != nil {
		return nil, err
	}
	selected := st.(*state.IdpSelected)

	return s.samlEngine.GenerateIdpAuthnRequest(ctx, proxy.IdpAuthnRequestGeneration{
		IdpEntityID:            selected.IdpEntityID,
		LevelsOfAssurance:      []domain.LevelOfAssurance{selected.RequestedLoa},
		ForceAuthentication:    selected.ForceAuthentication,
		SessionExpiryTimestamp: selected.SessionExpiryTimestamp,
		RegistrationRequest:    selected.Registering,
	})
}

// ResponseFromHub は成功系の終端状態からRPへ返すSAML応答を生成する。
func (s *SessionService) ResponseFromHub(ctx context.Context, sessionID domain.SessionID) (*proxy.AuthnResponseFromHubContainer, error) {
	st, _, err := s.repo.GetAnyState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	prepared, err := controller.ResponseFromHub(st)
	if err != nil {
		return nil, err
	}
	return s.samlEngine.GenerateRpAuthnResponse(ctx, responseGeneration(sessionID, prepared))
}

// ErrorResponseFromHub は失敗系の終端状態からRPへ返すエラー応答を生成する。
func (s *SessionService) ErrorResponseFromHub(ctx context.Context, sessionID domain.SessionID) (*proxy.AuthnResponseFromHubContainer, error) {
	st, _, err := s.repo.GetAnyState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	prepared, err := controller.ErrorResponseFromHub(st)
	if err != nil {
		return nil, err
	}
	return s.samlEngine.GenerateRpErrorResponse(ctx, responseGeneration(sessionID, prepared))
}

// LevelOfAssurance はIdP認証で達成された保証レベルを返す。
func (s *SessionService) LevelOfAssurance(ctx context.Context, sessionID domain.SessionID) (domain.LevelOfAssurance, bool, error) {
	return s.repo.LevelOfAssuranceAchieved(ctx, sessionID)
}

// RequestIssuer はセッションを開始したRPのエンティティIDを返す。
func (s *SessionService) RequestIssuer(ctx context.Context, sessionID domain.SessionID) (string, error) {
	return s.repo.RequestIssuerEntityID(ctx, sessionID)
}

func responseGeneration(sessionID domain.SessionID, prepared *domain.ResponseFromHub) proxy.ResponseFromHubGeneration {
	return proxy.ResponseFromHubGeneration{
		AuthnRequestIssuerEntityID:  prepared.AuthnRequestIssuerEntityID,
		InResponseTo:                prepared.InResponseTo,
		SessionID:                   sessionID,
		Status:                      prepared.Status,
		MatchingServiceAssertion:    prepared.MatchingServiceAssertion,
		EncryptedAssertions:         prepared.EncryptedAssertions,
		RelayState:                  prepared.RelayState,
		AssertionConsumerServiceURI: prepared.AssertionConsumerServiceURI,
	}
}
