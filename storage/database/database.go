// Package database postgres 连接，可选只读副本
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/amanifadhili/encubation-management-system-sub001/config"
	dbtrace "github.com/amanifadhili/encubation-management-system-sub001/pkg/database"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
)

const (
	connMaxLifetime = 2 * time.Hour
	connMaxIdleTime = 10 * time.Minute
)

var (
	db     *gorm.DB
	initMu sync.Mutex
)

// Init 打开主库并完成迁移，重复调用直接返回；失败后允许重试
func Init() error {
	initMu.Lock()
	defer initMu.Unlock()

	if db != nil {
		return nil
	}

	opened, err := open(config.Cfg)
	if err != nil {
		logger.Logger.Error("Failed to initialize database",
			zap.String("host", config.Cfg.PostgreSQLHost),
			zap.Error(err),
		)
		return err
	}

	db = opened
	if err := Migrate(); err != nil {
		return err
	}
	logger.Logger.Info("Database initialized",
		zap.String("host", config.Cfg.PostgreSQLHost),
		zap.Int("replicas", len(config.Cfg.PostgreSQLReplicas)),
	)
	return nil
}

func open(cfg config.Config) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if len(cfg.PostgreSQLReplicas) > 0 {
		if err := gdb.Use(replicaResolver(cfg)); err != nil {
			return nil, fmt.Errorf("register replicas: %w", err)
		}
	}

	if err := dbtrace.WithDefaultOTELPlugin(gdb, cfg.ServiceName); err != nil {
		logger.Logger.Warn("Failed to register gorm tracing plugin", zap.Error(err))
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.PostgreSQLMaxIdle)
	sqlDB.SetMaxOpenConns(cfg.PostgreSQLMaxOpen)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return gdb, nil
}

// replicaResolver 写走主库，读请求随机分发到副本
func replicaResolver(cfg config.Config) *dbresolver.DBResolver {
	replicas := make([]gorm.Dialector, len(cfg.PostgreSQLReplicas))
	for i, dsn := range cfg.PostgreSQLReplicas {
		replicas[i] = postgres.Open(dsn)
	}

	resolver := dbresolver.Register(dbresolver.Config{
		Replicas:          replicas,
		Policy:            dbresolver.RandomPolicy{},
		TraceResolverMode: true,
	})
	resolver.SetMaxIdleConns(cfg.PostgreSQLMaxIdle)
	resolver.SetMaxOpenConns(cfg.PostgreSQLMaxOpen)
	resolver.SetConnMaxLifetime(connMaxLifetime)
	return resolver
}

// DB 未初始化时返回 nil
func DB() *gorm.DB {
	return db
}

// Close 关闭连接池，ctx 到期时不再等待
func Close(ctx context.Context) error {
	initMu.Lock()
	gdb := db
	db = nil
	initMu.Unlock()

	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- sqlDB.Close() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
