package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config はアプリケーション設定を保持する
type Config struct {
	// Redis接続設定
	RedisHost string `envconfig:"REDIS_HOST" required:"true"`
	RedisPort string `envconfig:"REDIS_PORT" required:"true"`
	RedisPass string `envconfig:"REDIS_PASS"`

	// 連携サービスURL
	SamlEngineURL    string `envconfig:"SAML_ENGINE_URL" required:"true"`
	SamlSoapProxyURL string `envconfig:"SAML_SOAP_PROXY_URL" required:"true"`
	ConfigServiceURL string `envconfig:"CONFIG_SERVICE_URL" required:"true"`
	EventSinkURL     string `envconfig:"EVENT_SINK_URL" required:"true"`

	// HTTPサーバー設定
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`
	GinMode    string `envconfig:"GIN_MODE" default:"release"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"INFO"`

	// eIDAS連携の有効化
	EidasEnabled bool `envconfig:"EIDAS_ENABLED" default:"false"`

	// ログ設定
	LogMaskPersistentID bool `envconfig:"LOG_MASK_PERSISTENT_ID" default:"true"`
}

// Load は環境変数から設定を読み込む
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// RedisAddr はRedis接続アドレスを "host:port" 形式で返す
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// validate は設定値のバリデーションを行う
func (c *Config) validate() error {
	urls := map[string]string{
		"SAML_ENGINE_URL":     c.SamlEngineURL,
		"SAML_SOAP_PROXY_URL": c.SamlSoapProxyURL,
		"CONFIG_SERVICE_URL":  c.ConfigServiceURL,
		"EVENT_SINK_URL":      c.EventSinkURL,
	}
	for name, u := range urls {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("%s must start with http:// or https://", name)
		}
	}
	return nil
}
