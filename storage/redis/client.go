// Package redis 进程内共享的 redis 客户端：草稿、完成度缓存、提交锁、限流与消息去重都用它
package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amanifadhili/encubation-management-system-sub001/config"
	redistrace "github.com/amanifadhili/encubation-management-system-sub001/pkg/redis"
)

const defaultPrefix = "incub"

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// NewClient 按配置创建带 tracing hook 的客户端，不做连通性检查
func NewClient(cfg *config.Config) *redis.Client {
	c := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MinIdleConns: 5,
		MaxRetries:   3,
	})
	c.AddHook(redistrace.NewTracingHook(cfg.ServiceName, cfg.RedisDB))
	return c
}

// Init 创建全局客户端并 Ping 一次
func Init() error {
	once.Do(func() {
		client = NewClient(&config.Cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			initErr = fmt.Errorf("ping redis %s: %w", config.Cfg.RedisAddr, err)
		}
	})
	return initErr
}

// Client 全局客户端，未初始化时 panic
func Client() *redis.Client {
	if client == nil {
		panic("redis client is not initialized")
	}
	return client
}

func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// Key 拼接带前缀的键名，空片段会被跳过
func Key(parts ...string) string {
	prefix := config.Cfg.RedisPrefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	kept := make([]string, 0, len(parts)+1)
	kept = append(kept, prefix)
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ":")
}
