package service

import (
	"context"
	"log/slog"

	"github.com/alphagov/verify-hub-sub002/internal/controller"
	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/pkg/logging"
)

// AttributeQueryService はマッチングサービス照会の生成と送出を担う。
// SAMLエンジンで署名付き照会を生成し、saml-soap-proxy経由で送出する。
// 送出はfire-and-forgetで、応答は後続の別リクエストとして届く。
type AttributeQueryService struct {
	samlEngine SamlEngine
	soapProxy  SoapProxy
	logger     *slog.Logger
}

// NewAttributeQueryService はAttributeQueryServiceを生成する。
func NewAttributeQueryService(samlEngine SamlEngine, soapProxy SoapProxy, logger *slog.Logger) *AttributeQueryService {
	return &AttributeQueryService{samlEngine: samlEngine, soapProxy: soapProxy, logger: logger}
}

// SendAttributeQuery はIdP経路の照会を生成して送出する。
func (s *AttributeQueryService) SendAttributeQuery(ctx context.Context, sessionID domain.SessionID, req proxy.AttributeQueryRequest) error {
	container, err := s.samlEngine.GenerateAttributeQuery(ctx, req)
	if err != nil {
		return err
	}
	return s.send(ctx, sessionID, *container)
}

// SendEidasAttributeQuery はeIDAS経路の照会を生成して送出する。
func (s *AttributeQueryService) SendEidasAttributeQuery(ctx context.Context, sessionID domain.SessionID, req proxy.EidasAttributeQueryRequest) error {
	container, err := s.samlEngine.GenerateEidasAttributeQuery(ctx, req)
	if err != nil {
		return err
	}
	return s.send(ctx, sessionID, *container)
}

// SendFromOutcome はコントローラ操作の結果に照会が含まれていれば送出する。
func (s *AttributeQueryService) SendFromOutcome(ctx context.Context, sessionID domain.SessionID, outcome *controller.Outcome) error {
	switch {
	case outcome.AttributeQuery != nil:
		return s.SendAttributeQuery(ctx, sessionID, *outcome.AttributeQuery)
	case outcome.EidasAttributeQuery != nil:
		return s.SendEidasAttributeQuery(ctx, sessionID, *outcome.EidasAttributeQuery)
	}
	return nil
}

func (s *AttributeQueryService) send(ctx context.Context, sessionID domain.SessionID, container proxy.AttributeQueryContainer) error {
	if err := s.soapProxy.SendHubMatchingServiceRequest(ctx, sessionID, container); err != nil {
		s.logger.ErrorContext(ctx, "failed to send matching service request",
			logging.WithEventID("AQR_SEND_FAILED"),
			logging.WithSessionID(sessionID.String()),
			logging.WithError(err),
		)
		return err
	}
	s.logger.InfoContext(ctx, "matching service request sent",
		logging.WithEventID("AQR_SENT"),
		logging.WithSessionID(sessionID.String()),
	)
	return nil
}
