package proxy

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/alphagov/verify-hub-sub002/internal/domain"
)

// SamlSoapProxyClient はsaml-soap-proxyへの型付きクライアント。
// 生成済みのマッチングサービス照会の送出を依頼する。
type SamlSoapProxyClient struct {
	*baseClient
}

// NewSamlSoapProxyClient はSamlSoapProxyClientを生成する。
func NewSamlSoapProxyClient(baseURL string, logger *slog.Logger) *SamlSoapProxyClient {
	return &SamlSoapProxyClient{baseClient: newBaseClient("saml-soap-proxy", baseURL, logger)}
}

// SendHubMatchingServiceRequest は照会をマッチングサービスへ非同期送出する。
// 応答はマッチングサービス側の処理後に別リクエストとしてpolicyへ届く。
func (c *SamlSoapProxyClient) SendHubMatchingServiceRequest(ctx context.Context, sessionID domain.SessionID, query AttributeQueryContainer) error {
	q := url.Values{}
	q.Set("sessionId", sessionID.String())
	return c.postJSON(ctx, "/matching-service-request-sender", q, query, nil)
}
