package cache

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/redis"
)

const draftTTL = 30 * 24 * time.Hour

// DraftCache 服务端的草稿后端，实现 onboarding.DraftBackend。
// 值为 FieldSet 的 JSON，每次写入都会刷新 TTL
type DraftCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewDraftCache(client goredis.Cmdable, ttl time.Duration) *DraftCache {
	if ttl <= 0 {
		ttl = draftTTL
	}
	return &DraftCache{client: client, ttl: ttl}
}

func draftKey(owner string, phase model.Phase) string {
	return redis.Key("onboarding", "draft", owner, phase.Key())
}

func (d *DraftCache) PutDraft(ctx context.Context, owner string, phase model.Phase, data []byte) error {
	return d.client.Set(ctx, draftKey(owner, phase), data, d.ttl).Err()
}

// GetDraft 不存在时返回 (nil, nil)
func (d *DraftCache) GetDraft(ctx context.Context, owner string, phase model.Phase) ([]byte, error) {
	data, err := d.client.Get(ctx, draftKey(owner, phase)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	return data, err
}

func (d *DraftCache) DeleteDraft(ctx context.Context, owner string, phase model.Phase) error {
	return d.client.Del(ctx, draftKey(owner, phase)).Err()
}
