package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"projecthub/config"
	"projecthub/internal/apiclient"
	"projecthub/internal/grouping"
	"projecthub/internal/httpserver"
	"projecthub/internal/service"
	"projecthub/internal/session"
	"projecthub/pkg/circuitbreaker"
	"projecthub/pkg/logger"
	"projecthub/pkg/otel"
	"projecthub/pkg/redis"
)

const serviceVersion = "1.0.0"

func main() {
	cfg := config.Load()

	log := logger.NewLogger(cfg.Server.LogLevel)
	defer log.Sync()

	log.Info("Starting console...",
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.String("redis_addr", cfg.Redis.Addr),
		zap.String("group_by", cfg.Dashboard.GroupBy),
	)

	// OpenTelemetry
	shutdownOtel, err := otel.Init(otel.Config{
		ServiceName:    "projecthub-console",
		ServiceVersion: serviceVersion,
		Endpoint:       cfg.Otel.Endpoint,
		Enabled:        cfg.Otel.Enabled,
		SampleRatio:    cfg.Otel.SampleRatio,
	}, log)
	if err != nil {
		log.Fatal("Failed to init OpenTelemetry", zap.Error(err))
	}
	defer shutdownOtel()

	groupMode, err := grouping.ParseMode(cfg.Dashboard.GroupBy)
	if err != nil {
		log.Fatal("Invalid dashboard.group_by", zap.Error(err))
	}

	// Redis (sessions)
	log.Info("Initializing Redis connection...")
	rdb, err := redis.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to init Redis", zap.Error(err))
	}
	defer rdb.Close()
	sessions := session.NewRedisStore(rdb)

	// Upstream API client
	api := apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Breaker: circuitbreaker.Config{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			SuccessThreshold: cfg.Breaker.SuccessThreshold,
			Timeout:          cfg.Breaker.Timeout,
		},
	}, log)

	// Services
	svc := service.New(api, sessions, service.Options{
		SessionTTL: cfg.Session.TTL,
		GroupMode:  groupMode,
	}, log)

	// HTTP Server
	handlers := httpserver.NewHandlers(svc, cfg.Session.CookieName, cfg.Session.TTL, log)
	router := httpserver.NewRouter(handlers, svc.Auth, cfg.Session.CookieName, httpserver.Readiness{
		Redis:    rdb,
		Upstream: api,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("console is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down console gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("console shutdown complete")
}
