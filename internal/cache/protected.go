// Package cache Redis 上的资料引导缓存：草稿、完成度、提交锁与消息幂等标记
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/amanifadhili/encubation-management-system-sub001/storage/redis"
)

const (
	// 空值缓存标识
	emptyValueFlag = "__EMPTY__"
	// 空值缓存TTL，较短时间避免长期占用
	emptyValueTTL = 5 * time.Minute
	// 防雪崩随机延迟范围
	randomDelayMax = 50 * time.Millisecond
)

// ProtectedCache 带空值保护与随机延迟的 JSON 缓存
type ProtectedCache struct {
	client    goredis.Cmdable
	keyPrefix string
	ttl       time.Duration
	emptyTTL  time.Duration
	jitter    time.Duration
}

// NewProtectedCache 创建受保护的缓存实例
func NewProtectedCache(client goredis.Cmdable, keyPrefix string, ttl time.Duration) *ProtectedCache {
	return &ProtectedCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		emptyTTL:  emptyValueTTL,
		jitter:    randomDelayMax,
	}
}

func (pc *ProtectedCache) key(key string) string {
	return redis.Key(pc.keyPrefix, key)
}

// Set value 为 nil 时写入空值标识
func (pc *ProtectedCache) Set(ctx context.Context, key string, value interface{}) error {
	data := emptyValueFlag
	ttl := pc.emptyTTL

	if value != nil {
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal cache value: %w", err)
		}
		data = string(b)
		ttl = pc.ttl
	}

	return pc.client.Set(ctx, pc.key(key), data, ttl).Err()
}

// Get 返回 (hit, empty, err)。empty 为 true 表示命中了空值标识，dest 未被修改
func (pc *ProtectedCache) Get(ctx context.Context, key string, dest interface{}) (hit bool, empty bool, err error) {
	if err := pc.delay(ctx); err != nil {
		return false, false, err
	}

	data, err := pc.client.Get(ctx, pc.key(key)).Result()
	if err == goredis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to get cache: %w", err)
	}

	if data == emptyValueFlag {
		return true, true, nil
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, false, nil
}

func (pc *ProtectedCache) Delete(ctx context.Context, key string) error {
	return pc.client.Del(ctx, pc.key(key)).Err()
}

func (pc *ProtectedCache) delay(ctx context.Context) error {
	if pc.jitter <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(rand.Int63n(int64(pc.jitter)))):
		return nil
	}
}
