// Package main はpolicyサービスのエントリーポイント。
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/alphagov/verify-hub-sub002/internal/config"
	"github.com/alphagov/verify-hub-sub002/internal/controller"
	"github.com/alphagov/verify-hub-sub002/internal/events"
	"github.com/alphagov/verify-hub-sub002/internal/handler"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/internal/server"
	"github.com/alphagov/verify-hub-sub002/internal/service"
	"github.com/alphagov/verify-hub-sub002/internal/session"
	"github.com/alphagov/verify-hub-sub002/pkg/logging"
	"github.com/alphagov/verify-hub-sub002/pkg/valkey"
)

func main() {
	// 1. 設定読み込み
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// 2. ロガー初期化
	logger := initLogger(cfg)

	slog.Info("starting policy",
		"listen_addr", cfg.ListenAddr,
		"log_level", cfg.LogLevel,
		"eidas_enabled", cfg.EidasEnabled,
	)

	// 3. Redis接続
	redisClient, err := valkey.NewClient(valkey.DefaultOptions().
		WithAddr(cfg.RedisAddr()).
		WithPassword(cfg.RedisPass))
	if err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	slog.Info("connected to Redis", "addr", cfg.RedisAddr())

	// 4. 依存オブジェクト生成
	clock := clockwork.NewRealClock()

	samlEngine := proxy.NewSamlEngineClient(cfg.SamlEngineURL, logger)
	soapProxy := proxy.NewSamlSoapProxyClient(cfg.SamlSoapProxyURL, logger)
	configService := proxy.NewConfigServiceClient(cfg.ConfigServiceURL, clock, logger)
	eventSink := proxy.NewEventSinkClient(cfg.EventSinkURL, logger)

	fields := logging.NewCommonFields(logging.NewMasker(cfg.LogMaskPersistentID))
	eventLogger := events.NewHubEventLogger(eventSink, clock, logger, fields)
	repo := session.NewRepository(session.NewStore(redisClient, clock), clock, eventLogger, logger)
	factory := controller.NewFactory(configService, eventLogger, clock)

	// サービス層
	attributeQueries := service.NewAttributeQueryService(samlEngine, soapProxy, logger)
	sessions := service.NewSessionService(repo, factory, samlEngine, configService, eventLogger, clock, cfg.EidasEnabled, logger)
	idpResponses := service.NewAuthnResponseFromIdpService(repo, factory, samlEngine, attributeQueries)
	countryResponses := service.NewAuthnResponseFromCountryService(repo, factory, samlEngine, attributeQueries)
	matching := service.NewMatchingServiceResponseService(repo, factory, samlEngine, attributeQueries)
	cycle3 := service.NewCycle3Service(repo, factory, attributeQueries)
	countries := service.NewCountriesService(repo, factory, configService, cfg.EidasEnabled)

	// ハンドラー
	policyHandler := handler.NewPolicyHandler(sessions, idpResponses, countryResponses, matching, cycle3, countries)

	// 5. サーバー起動
	srv := server.New(cfg, policyHandler)

	// 6. Graceful Shutdown設定
	go func() {
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// 7. シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// initLogger はロガーを初期化する。
func initLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(handler).With("app", "policy")
	slog.SetDefault(logger)
	return logger
}
