package storage

import (
	"context"
	"fmt"

	"github.com/amanifadhili/encubation-management-system-sub001/storage/database"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/mq"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/redis"
)

// Init 按 postgres -> redis -> rabbitmq 的顺序初始化存储层
func Init() error {
	if err := database.Init(); err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	if err := redis.Init(); err != nil {
		return fmt.Errorf("init redis: %w", err)
	}
	if err := mq.Init(); err != nil {
		return fmt.Errorf("init rabbitmq: %w", err)
	}
	return nil
}

// Ping 就绪检查：资料库与 redis 都可用时返回 nil。MQ 不可用只影响事件发布，不算未就绪
func Ping(ctx context.Context) error {
	db := database.DB()
	if db == nil {
		return fmt.Errorf("postgres: not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := redis.Client().Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}
