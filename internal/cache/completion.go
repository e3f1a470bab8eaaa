package cache

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
)

const completionTTL = 24 * time.Hour

// CompletionCache 功能门禁读取的完成度缓存，由 worker 在完成度变化事件中写入
type CompletionCache struct {
	cache   *ProtectedCache
	breaker *CircuitBreaker
}

func NewCompletionCache(client goredis.Cmdable) *CompletionCache {
	return &CompletionCache{
		cache:   NewProtectedCache(client, "onboarding:completion", completionTTL),
		breaker: NewCircuitBreaker("completion_cache", 5, 30*time.Second),
	}
}

// Get 未命中或命中空值时 ok 为 false；熔断时返回 ErrBreakerOpen
func (c *CompletionCache) Get(ctx context.Context, owner string) (completion model.Completion, ok bool, err error) {
	err = c.breaker.Call(ctx, func(ctx context.Context) error {
		hit, empty, err := c.cache.Get(ctx, owner, &completion)
		ok = hit && !empty
		return err
	})
	return completion, ok, err
}

func (c *CompletionCache) Set(ctx context.Context, owner string, completion model.Completion) error {
	return c.breaker.Call(ctx, func(ctx context.Context) error {
		return c.cache.Set(ctx, owner, completion)
	})
}

// MarkMissing 资料不存在时写入空值，避免反复回源
func (c *CompletionCache) MarkMissing(ctx context.Context, owner string) error {
	return c.breaker.Call(ctx, func(ctx context.Context) error {
		return c.cache.Set(ctx, owner, nil)
	})
}

func (c *CompletionCache) Delete(ctx context.Context, owner string) error {
	return c.cache.Delete(ctx, owner)
}
