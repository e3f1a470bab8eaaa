package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/config"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/response"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 时间窗口（秒）
	Window int
	// 时间窗口内最大请求数
	MaxRequests int
	// 限流键前缀
	KeyPrefix string
	// 是否按用户ID限流（需要认证）
	ByUserID bool
	// 是否按IP限流
	ByIP bool
	// 阻塞时长（秒），超过限制后禁止访问的时间，0 表示不阻塞
	BlockDuration int
}

// DefaultRateLimitConfig 通用接口限流
var DefaultRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   100,
	KeyPrefix:     "rate:limit",
	ByUserID:      true,
	ByIP:          true,
	BlockDuration: 300,
}

// SubmissionRateLimitConfig 阶段提交限流
var SubmissionRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   20,
	KeyPrefix:     "rate:submission",
	ByUserID:      true,
	ByIP:          false,
	BlockDuration: 120,
}

// AutosaveRateLimitConfig 自动保存默认每 3 秒一次，留出余量且不阻塞
var AutosaveRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   60,
	KeyPrefix:     "rate:autosave",
	ByUserID:      true,
	ByIP:          false,
	BlockDuration: 0,
}

// RateLimiter 基于 Redis 有序集合的滑动窗口限流器
type RateLimiter struct {
	config RateLimitConfig
	client goredis.Cmdable
	now    func() time.Time
}

// 限流结果写入的响应头
const (
	rateLimitHeader     = "X-RateLimit-Limit"
	rateRemainingHeader = "X-RateLimit-Remaining"
	rateResetHeader     = "X-RateLimit-Reset"
)

// NewRateLimiter client 为 nil 时使用全局 Redis 客户端
func NewRateLimiter(cfg RateLimitConfig, client goredis.Cmdable) *RateLimiter {
	return &RateLimiter{
		config: cfg,
		client: client,
		now:    time.Now,
	}
}

func (rl *RateLimiter) store() goredis.Cmdable {
	if rl.client != nil {
		return rl.client
	}
	return redis.Client()
}

// getKey 生成限流键
func (rl *RateLimiter) getKey(ctx context.Context, c *app.RequestContext) string {
	var identifier string

	if rl.config.ByUserID {
		if userID, exists := GetUserID(ctx, c); exists {
			identifier = "user:" + userID
		}
	}

	if identifier == "" && rl.config.ByIP {
		identifier = "ip:" + c.ClientIP()
	}

	return redis.Key(rl.config.KeyPrefix, identifier)
}

func (rl *RateLimiter) blockKey(ctx context.Context, c *app.RequestContext) string {
	return rl.getKey(ctx, c) + ":block"
}

// Allow 检查是否允许请求，返回窗口内的请求数
func (rl *RateLimiter) Allow(ctx context.Context, c *app.RequestContext) (bool, int, error) {
	key := rl.getKey(ctx, c)
	now := rl.now()
	windowStart := now.Add(-time.Duration(rl.config.Window) * time.Second)

	pipe := rl.store().Pipeline()

	// 先移除窗口之外的请求记录
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))

	pipe.ZAdd(ctx, key, goredis.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})

	zcardCmd := pipe.ZCard(ctx, key)

	pipe.Expire(ctx, key, time.Duration(rl.config.Window+10)*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcardCmd.Val())
	return count <= rl.config.MaxRequests, count, nil
}

func (rl *RateLimiter) Block(ctx context.Context, c *app.RequestContext) error {
	if rl.config.BlockDuration <= 0 {
		return nil
	}
	return rl.store().Set(ctx, rl.blockKey(ctx, c), "1", time.Duration(rl.config.BlockDuration)*time.Second).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, c *app.RequestContext) (bool, error) {
	if rl.config.BlockDuration <= 0 {
		return false, nil
	}
	result, err := rl.store().Exists(ctx, rl.blockKey(ctx, c)).Result()
	return result > 0, err
}

// RateLimitMiddleware 创建限流中间件；Redis 不可用时放行
func RateLimitMiddleware(cfg RateLimitConfig, client goredis.Cmdable) app.HandlerFunc {
	limiter := NewRateLimiter(cfg, client)

	return func(ctx context.Context, c *app.RequestContext) {
		if !config.Cfg.RateLimitEnabled {
			c.Next(ctx)
			return
		}

		blocked, err := limiter.IsBlocked(ctx, c)
		if err != nil {
			logger.Logger.Warn("Failed to check block status", zap.Error(err))
			c.Next(ctx)
			return
		}
		if blocked {
			c.Abort()
			response.Error(ctx, c, errors.TooManyRequests)
			return
		}

		allowed, count, err := limiter.Allow(ctx, c)
		if err != nil {
			logger.Logger.Warn("Failed to check rate limit", zap.Error(err))
			c.Next(ctx)
			return
		}

		remaining := cfg.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set(rateLimitHeader, strconv.Itoa(cfg.MaxRequests))
		c.Response.Header.Set(rateRemainingHeader, strconv.Itoa(remaining))
		c.Response.Header.Set(rateResetHeader, strconv.FormatInt(limiter.now().Add(time.Duration(cfg.Window)*time.Second).Unix(), 10))

		if !allowed {
			if err := limiter.Block(ctx, c); err != nil {
				logger.Logger.Error("Failed to block user", zap.Error(err))
			}

			c.Abort()
			response.Error(ctx, c, errors.TooManyRequests)
			return
		}

		c.Next(ctx)
	}
}

// GeneralRateLimitMiddleware 通用限流中间件
func GeneralRateLimitMiddleware(client goredis.Cmdable) app.HandlerFunc {
	return RateLimitMiddleware(DefaultRateLimitConfig, client)
}

// SubmissionRateLimitMiddleware 阶段提交限流中间件
func SubmissionRateLimitMiddleware(client goredis.Cmdable) app.HandlerFunc {
	return RateLimitMiddleware(SubmissionRateLimitConfig, client)
}

// AutosaveRateLimitMiddleware 草稿自动保存限流中间件
func AutosaveRateLimitMiddleware(client goredis.Cmdable) app.HandlerFunc {
	return RateLimitMiddleware(AutosaveRateLimitConfig, client)
}
