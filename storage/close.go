package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/database"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/mq"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/redis"
)

type component struct {
	name  string
	close func(context.Context) error
}

// 与 Init 的顺序相反
var components = []component{
	{name: "rabbitmq", close: mq.Close},
	{name: "redis", close: redis.Close},
	{name: "postgres", close: database.Close},
}

// Close 关闭所有存储连接，单个组件失败不影响其它组件
func Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	for _, c := range components {
		if err := c.close(ctx); err != nil {
			logger.Logger.Error("Failed to close storage",
				zap.String("component", c.name),
				zap.Error(err),
			)
			continue
		}
		logger.Logger.Info("Storage closed", zap.String("component", c.name))
	}
}
