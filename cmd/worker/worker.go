package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/config"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/cache"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/queue"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/repository"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/service"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/metrics"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/otel"
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
		ServiceName:    config.Cfg.ServiceName + "-worker",
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

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize onboarding metrics", zap.Error(err))
	}

	// worker 只读资料，不创建资料也不发布事件
	profiles := service.NewProfileService(repository.NewProfileRepository(database.DB()), nil)
	rdb := redis.Client()
	h := queue.NewCompletionChangedHandler(
		profiles,
		cache.NewCompletionCache(rdb),
		cache.NewMessageMarker(rdb),
		metrics.GetMetrics(),
	)

	logger.Logger.Info("Worker service starting",
		zap.String("service", config.Cfg.ServiceName+"-worker"),
		zap.String("environment", config.Cfg.Environment),
	)

	if err := queue.StartCompletionChangedConsumer(ctx, h); err != nil && ctx.Err() == nil {
		logger.Logger.Error("Completion consumer stopped", zap.Error(err))
	}

	logger.Logger.Info("Worker service shutting down gracefully")
}
