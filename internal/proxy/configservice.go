package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/jonboulle/clockwork"

	"github.com/alphagov/verify-hub-sub002/internal/config"
	"github.com/alphagov/verify-hub-sub002/internal/domain"
)

// ResourceLocation は設定サービスが返すリソースの所在を表す
type ResourceLocation struct {
	Target string `json:"target"`
}

// ConfigServiceClient は設定サービスへの型付きクライアント。
// RP・IdP・マッチングサービス・eIDAS国の設定を取得する。
// レスポンスはパス単位でTTLキャッシュする。
type ConfigServiceClient struct {
	*baseClient
	cache *responseCache
}

// NewConfigServiceClient はConfigServiceClientを生成する。
func NewConfigServiceClient(baseURL string, clock clockwork.Clock, logger *slog.Logger) *ConfigServiceClient {
	return &ConfigServiceClient{
		baseClient: newBaseClient("config-service", baseURL, logger),
		cache:      newResponseCache(clock, config.ResourceLocationCacheTTL),
	}
}

// TransactionConfig はRP設定を取得する。
func (c *ConfigServiceClient) TransactionConfig(ctx context.Context, transactionEntityID string) (*TransactionConfig, error) {
	var out TransactionConfig
	path := "/config/transactions/" + url.PathEscape(transactionEntityID)
	if err := c.getCached(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssertionConsumerServiceURI はRPのACS URIを取得する。
// indexがnilの場合はRPのデフォルトACSを返す。
func (c *ConfigServiceClient) AssertionConsumerServiceURI(ctx context.Context, transactionEntityID string, index *int) (string, error) {
	path := "/config/transactions/" + url.PathEscape(transactionEntityID) + "/assertion-consumer-service-uri"
	if index != nil {
		path += "?index=" + strconv.Itoa(*index)
	}
	var out ResourceLocation
	if err := c.getCached(ctx, path, &out); err != nil {
		return "", err
	}
	if out.Target == "" {
		return "", fmt.Errorf("%w: empty assertion consumer service uri", ErrInvalidResponse)
	}
	return out.Target, nil
}

// MatchingProcess はRPのマッチング手続き設定（cycle-3属性名）を取得する。
func (c *ConfigServiceClient) MatchingProcess(ctx context.Context, transactionEntityID string) (*MatchingProcess, error) {
	var out MatchingProcess
	path := "/config/transactions/" + url.PathEscape(transactionEntityID) + "/matching-process"
	if err := c.getCached(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserAccountCreationAttributes はRPがアカウント作成時に要求する属性一覧を取得する。
func (c *ConfigServiceClient) UserAccountCreationAttributes(ctx context.Context, transactionEntityID string) ([]string, error) {
	var out []string
	path := "/config/transactions/" + url.PathEscape(transactionEntityID) + "/user-account-creation-attributes"
	if err := c.getCached(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnabledIdentityProviders はRP・目的・保証レベルに対して有効なIdPのエンティティID一覧を取得する。
func (c *ConfigServiceClient) EnabledIdentityProviders(ctx context.Context, transactionEntityID string, registering bool, loa domain.LevelOfAssurance) ([]string, error) {
	var out []string
	path := "/config/transactions/" + url.PathEscape(transactionEntityID) +
		"/enabled-identity-providers?registering=" + strconv.FormatBool(registering) +
		"&level_of_assurance=" + url.QueryEscape(loa.String())
	if err := c.getCached(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EidasCountries はハブが連携可能なeIDAS国一覧を取得する。
func (c *ConfigServiceClient) EidasCountries(ctx context.Context) ([]EidasCountry, error) {
	var out []EidasCountry
	if err := c.getCached(ctx, "/config/countries", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TransactionEidasCountries はRP個別のeIDAS国許可リストを取得する。
// リストが未設定(404)の場合はnilを返し、システム全体の有効国が適用される。
func (c *ConfigServiceClient) TransactionEidasCountries(ctx context.Context, transactionEntityID string) ([]string, error) {
	var out []string
	path := "/config/transactions/" + url.PathEscape(transactionEntityID) + "/eidas-countries"
	err := c.getCached(ctx, path, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

// MatchingServiceConfig はマッチングサービス設定を取得する。
func (c *ConfigServiceClient) MatchingServiceConfig(ctx context.Context, matchingServiceEntityID string) (*MatchingServiceConfig, error) {
	var out MatchingServiceConfig
	path := "/config/matching-services/" + url.PathEscape(matchingServiceEntityID)
	if err := c.getCached(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getCached はキャッシュ済みレスポンスがあればそれを、なければ取得して格納する。
func (c *ConfigServiceClient) getCached(ctx context.Context, path string, out any) error {
	if b, ok := c.cache.get(path); ok {
		if err := json.Unmarshal(b, out); err != nil {
			return ErrInvalidResponse
		}
		return nil
	}

	var raw json.RawMessage
	if err := c.getJSON(ctx, path, nil, &raw); err != nil {
		return err
	}
	c.cache.put(path, raw)
	if err := json.Unmarshal(raw, out); err != nil {
		return ErrInvalidResponse
	}
	return nil
}
