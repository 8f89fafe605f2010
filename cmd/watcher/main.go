package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"projecthub/config"
	"projecthub/internal/apiclient"
	"projecthub/internal/model"
	"projecthub/internal/poller"
	"projecthub/pkg/circuitbreaker"
	"projecthub/pkg/logger"
	"projecthub/pkg/mq"
	"projecthub/pkg/otel"
	"projecthub/pkg/redis"
	"projecthub/pkg/util"
)

const serviceVersion = "1.0.0"

// metricsAddr watcher 只暴露健康检查与指标
const metricsAddr = ":9102"

func main() {
	cfg := config.Load()

	log := logger.NewLogger(cfg.Server.LogLevel)
	defer log.Sync()

	if cfg.Watcher.Email == "" || cfg.Watcher.Password == "" {
		log.Fatal("WATCHER_EMAIL and WATCHER_PASSWORD are required")
	}

	scope, err := apiclient.ParseActivityScope(cfg.Poll.ActivityScope)
	if err != nil {
		log.Fatal("Invalid poll.activity_scope", zap.Error(err))
	}

	log.Info("Starting watcher...",
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.String("mq_url", cfg.MQ.URL),
		zap.Duration("interval", cfg.Poll.Interval),
		zap.String("activity_scope", scope.String()),
	)

	shutdownOtel, err := otel.Init(otel.Config{
		ServiceName:    "projecthub-watcher",
		ServiceVersion: serviceVersion,
		Endpoint:       cfg.Otel.Endpoint,
		Enabled:        cfg.Otel.Enabled,
		SampleRatio:    cfg.Otel.SampleRatio,
	}, log)
	if err != nil {
		log.Fatal("Failed to init OpenTelemetry", zap.Error(err))
	}
	defer shutdownOtel()

	// Redis (dedup markers + unread count cache)
	rdb, err := redis.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to init Redis", zap.Error(err))
	}
	defer rdb.Close()

	// MQ Publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, log)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	api := apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Breaker: circuitbreaker.Config{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			SuccessThreshold: cfg.Breaker.SuccessThreshold,
			Timeout:          cfg.Breaker.Timeout,
		},
	}, log)

	sessions := poller.NewLoginSession(api, model.Credentials{
		Email:    cfg.Watcher.Email,
		Password: cfg.Watcher.Password,
	})
	dedup := util.NewDeduper(rdb, cfg.Poll.DedupTTL, log)

	notifications := &poller.NotificationWatcher{
		API:       api,
		Sessions:  sessions,
		Publisher: publisher,
		Dedup:     dedup,
		Counts:    poller.NewRedisCountCache(rdb, cfg.Poll.DedupTTL),
		Logger:    log,
	}
	activities := &poller.ActivityWatcher{
		API:       api,
		Sessions:  sessions,
		Scope:     scope,
		Publisher: publisher,
		Dedup:     dedup,
		Logger:    log,
	}

	loops := []*poller.Loop{
		{Name: "notifications", Interval: cfg.Poll.Interval, TickTimeout: cfg.Poll.TickTimeout, Tick: notifications.Tick, Logger: log},
		{Name: "activities", Interval: cfg.Poll.Interval, TickTimeout: cfg.Poll.TickTimeout, Tick: activities.Tick, Logger: log},
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, l := range loops {
		wg.Add(1)
		go func(l *poller.Loop) {
			defer wg.Done()
			l.Run(ctx)
		}(l)
	}

	// HTTP Server (for health checks)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}
		c.JSON(200, gin.H{"status": "ready", "breaker": api.BreakerState().String()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{Addr: metricsAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("Health server starting", zap.String("addr", metricsAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Health server failed", zap.Error(err))
		}
	}()

	log.Info("watcher is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down watcher gracefully...")

	// 停止轮询，等待进行中的 tick 结束
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Health server shutdown error", zap.Error(err))
	}

	log.Info("watcher shutdown complete")
}
