// Package proxy は連携サービス（saml-engine, saml-soap-proxy, config, event-sink）への
// 型付きHTTPクライアントを提供する。
package proxy

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/alphagov/verify-hub-sub002/internal/config"
	"github.com/alphagov/verify-hub-sub002/pkg/httputil"
	"github.com/alphagov/verify-hub-sub002/pkg/logging"
)

// baseClient は各連携サービスクライアントの共通実装。
// resty + Circuit Breakerでリクエストを送出し、エラーレスポンスを
// ProblemDetailとして解釈する。
type baseClient struct {
	httpClient *resty.Client
	cb         *gobreaker.CircuitBreaker
	baseURL    string
	service    string
	logger     *slog.Logger
}

func newBaseClient(service, baseURL string, logger *slog.Logger) *baseClient {
	httpClient := resty.New().
		SetTimeout(config.ProxyRequestTimeout).
		SetRetryCount(config.ProxyRetryCount)

	cbSettings := gobreaker.Settings{
		Name:        service,
		MaxRequests: config.CBMaxRequests,
		Interval:    config.CBInterval,
		Timeout:     config.CBTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.CBFailureThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				logger.Warn("circuit breaker opened",
					logging.WithEventID("CB_OPEN"),
					slog.String("cb_name", name),
				)
			case gobreaker.StateHalfOpen:
				logger.Info("circuit breaker half-open",
					logging.WithEventID("CB_HALF_OPEN"),
					slog.String("cb_name", name),
				)
			case gobreaker.StateClosed:
				logger.Info("circuit breaker closed",
					logging.WithEventID("CB_CLOSE"),
					slog.String("cb_name", name),
				)
			}
		},
	}

	return &baseClient{
		httpClient: httpClient,
		cb:         gobreaker.NewCircuitBreaker(cbSettings),
		baseURL:    strings.TrimRight(baseURL, "/"),
		service:    service,
		logger:     logger,
	}
}

// postJSON はJSONボディをPOSTし、レスポンスをoutにデコードする。
// outがnilの場合はレスポンスボディを読み捨てる。
func (c *baseClient) postJSON(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.do(ctx, "POST", path, query, body, out)
}

// getJSON はGETリクエストを送出し、レスポンスをoutにデコードする。
func (c *baseClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, "GET", path, query, nil, out)
}

func (c *baseClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	start := time.Now()

	result, err := c.cb.Execute(func() (any, error) {
		req := c.httpClient.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json")
		if body != nil {
			req.SetBody(body)
		}
		if query != nil {
			req.SetQueryParamsFromValues(query)
		}

		resp, err := req.Execute(method, c.baseURL+path)
		if err != nil {
			return nil, &ConnectionError{Service: c.service, Cause: err}
		}

		latencyMs := time.Since(start).Milliseconds()
		statusCode := resp.StatusCode()

		// CB失敗判定対象: 5xx
		if statusCode >= 500 {
			apiErr := c.parseAPIError(statusCode, resp.Body())
			c.logger.Error("upstream service error",
				logging.WithEventID("PROXY_API_ERR"),
				slog.String("service", c.service),
				slog.String("path", path),
				logging.WithError(apiErr),
				logging.WithHTTPStatus(statusCode),
				logging.WithLatency(latencyMs),
			)
			return nil, apiErr
		}

		// 4xxはCBカウントに含めない
		if statusCode < 200 || statusCode >= 300 {
			apiErr := c.parseAPIError(statusCode, resp.Body())
			c.logger.Error("upstream service error",
				logging.WithEventID("PROXY_API_ERR"),
				slog.String("service", c.service),
				slog.String("path", path),
				logging.WithError(apiErr),
				logging.WithHTTPStatus(statusCode),
				logging.WithLatency(latencyMs),
			)
			return apiErr, nil
		}

		c.logger.Debug("upstream service success",
			slog.String("service", c.service),
			slog.String("path", path),
			logging.WithLatency(latencyMs),
		)
		return resp.Body(), nil
	})

	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return ErrCircuitOpen
		}
		return err
	}

	if apiErr, ok := result.(*APIError); ok {
		return apiErr
	}

	if out == nil {
		return nil
	}
	respBody, ok := result.([]byte)
	if !ok {
		return ErrInvalidResponse
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return ErrInvalidResponse
	}
	return nil
}

// parseAPIError はHTTPエラーレスポンスをAPIErrorに変換する。
func (c *baseClient) parseAPIError(statusCode int, body []byte) *APIError {
	var problem httputil.ProblemDetail
	if err := json.Unmarshal(body, &problem); err == nil && problem.Title != "" {
		return &APIError{
			Service:    c.service,
			StatusCode: statusCode,
			Message:    problem.Title,
			Problem:    &problem,
		}
	}
	return &APIError{
		Service:    c.service,
		StatusCode: statusCode,
		Message:    string(body),
	}
}
