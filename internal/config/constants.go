package config

import "time"

// Redis接続設定
const (
	RedisConnectTimeout = 3 * time.Second
	RedisCommandTimeout = 2 * time.Second
	RedisPoolSize       = 10
)

// 連携サービスHTTPクライアント設定
const (
	ProxyConnectTimeout = 2 * time.Second
	ProxyRequestTimeout = 5 * time.Second
	ProxyRetryCount     = 1
)

// Circuit Breaker設定
const (
	CBMaxRequests      = 3
	CBInterval         = 10 * time.Second
	CBTimeout          = 30 * time.Second
	CBFailureThreshold = 5
)

// セッション管理
const (
	// SessionStoreTTLGrace はセッション失効時刻に対するストアTTLの余裕。
	// 失効直後の読み出しでもTimeout状態を合成できるよう、鍵自体は少し長く保持する。
	SessionStoreTTLGrace = 10 * time.Minute

	// MatchingServiceResponseWaitPeriod はマッチングサービス応答の許容待ち時間。
	MatchingServiceResponseWaitPeriod = 60 * time.Second
)

// 設定サービスのキャッシュ
const (
	ResourceLocationCacheTTL = 5 * time.Minute
)

// サーバーシャットダウン設定
const (
	ShutdownTimeout = 5 * time.Second
)
