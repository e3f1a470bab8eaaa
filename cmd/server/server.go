package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	otelapi "go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/config"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/cache"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/handler"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/middleware"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/queue"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/repository"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/router"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/service"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/metrics"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/otel"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/snowflake"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/token"
	"github.com/amanifadhili/encubation-management-system-sub001/storage"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/database"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/redis"
)

func main() {
	if err := config.Cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	shutdownOTel, err := otel.InitOpenTelemetry(ctx, otel.Config{
		ServiceName:    config.Cfg.ServiceName,
		ServiceVersion: config.Cfg.ServiceVersion,
		Environment:    config.Cfg.Environment,
		OTLPEndpoint:   config.Cfg.OTLPEndpoint,
		SampleRatio:    config.Cfg.TracingSampler,
	})
	if err != nil {
		logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	// 初始化存储层并迁移资料表，记得关闭外部连接
	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	if err := token.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize token package", zap.Error(err))
	} // token 在中间件前初始化，middleware 依赖 token

	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize onboarding metrics", zap.Error(err))
	}
	if err := middleware.InitMetrics(otelapi.Meter(config.Cfg.ServiceName + ".http")); err != nil {
		logger.Logger.Warn("Failed to initialize HTTP metrics", zap.Error(err))
	}

	rdb := redis.Client()
	profiles := service.NewProfileService(repository.NewProfileRepository(database.DB()), queue.NewProducer())
	handlers := router.Handlers{
		Profile: handler.NewProfileHandler(profiles),
		Onboarding: handler.NewOnboardingHandler(
			profiles,
			cache.NewDraftCache(rdb, config.Cfg.DraftTTL),
			cache.NewLocker(rdb, config.Cfg.SubmissionLockTTL),
			metrics.GetMetrics(),
		),
		Access: handler.NewAccessHandler(service.NewAccessService(cache.NewCompletionCache(rdb), profiles)),
	}

	logger.Logger.Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
	)

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)
	tracerOption, tracing := middleware.NewServerTracerConfig()
	h := server.Default(server.WithHostPorts(addr), tracerOption)

	router.Register(h, handlers, rdb, tracing, storage.Ping)

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}
