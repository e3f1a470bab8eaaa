package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/redis"
)

// 只有持有者才能释放，避免锁过期后误删他人的锁
var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker 基于 SETNX 的分布式锁，保证同一用户同一阶段只有一个提交在进行
type Locker struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewLocker(client goredis.Cmdable, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl}
}

// Lock 已持有的锁
type Lock struct {
	client goredis.Cmdable
	key    string
	token  string
}

func submissionKey(owner string, phase model.Phase) string {
	return redis.Key("onboarding", "lock", owner, phase.Key())
}

// TryLockSubmission 获取失败返回 (nil, nil)
func (l *Locker) TryLockSubmission(ctx context.Context, owner string, phase model.Phase) (*Lock, error) {
	key := submissionKey(owner, phase)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire submission lock: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &Lock{client: l.client, key: key, token: token}, nil
}

func (lk *Lock) Unlock(ctx context.Context) error {
	if err := unlockScript.Run(ctx, lk.client, []string{lk.key}, lk.token).Err(); err != nil && err != goredis.Nil {
		return fmt.Errorf("failed to release submission lock: %w", err)
	}
	return nil
}
