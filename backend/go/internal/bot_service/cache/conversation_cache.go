package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"StudyBot/backend/go/internal/bot_service/dialogue"
	"StudyBot/backend/go/pkg/util"
)

const keyPrefix = "dialogue:state:"

// ConversationCache 以发送者 ID 为键保存会话状态快照，带 TTL 自动过期。
// 缓存是建议性的而非权威的: 读取时的缺失与过期不可区分，两者都让
// Driver 重建 DEFAULT 状态。Redis 故障降级为进程内 LRU 兜底，永不致命。
type ConversationCache struct {
	rdb      *redis.Client
	ttl      time.Duration
	fallback *util.LRUCache[string, []byte]
}

// New 创建会话缓存。ttl 同时作用于 Redis 条目和进程内兜底条目。
func New(rdb *redis.Client, ttl time.Duration) (*ConversationCache, error) {
	fallback, err := util.NewWithConfig[string, []byte](util.CacheConfig{
		Capacity: 4096,
		TTL:      ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("无法创建兜底缓存: %w", err)
	}
	return &ConversationCache{rdb: rdb, ttl: ttl, fallback: fallback}, nil
}

// Get 读取一个用户的会话快照。
// 未命中（含已过期）返回 (nil, nil)；Redis 不可用时降级查进程内兜底，
// 并通过第二个返回值暴露底层错误供调用方记日志。
func (c *ConversationCache) Get(ctx context.Context, senderID string) (*dialogue.Snapshot, error) {
	data, err := c.rdb.Get(ctx, keyPrefix+senderID).Bytes()
	switch {
	case err == redis.Nil:
		// Redis 可达且条目不存在: 这是权威的未命中，不再看兜底。
		c.fallback.Remove(senderID)
		return nil, nil
	case err != nil:
		// Redis 不可用: 退到进程内兜底，保住单实例上的进行中对话。
		if cached, ok := c.fallback.Get(senderID); ok {
			if snap, decodeErr := dialogue.DecodeSnapshot(cached); decodeErr == nil {
				return snap, err
			}
		}
		return nil, err
	}

	snap, decodeErr := dialogue.DecodeSnapshot(data)
	if decodeErr != nil {
		// 坏快照视同未命中，让会话安全地退回 DEFAULT。
		return nil, decodeErr
	}
	return snap, nil
}

// Set 写入快照并刷新 TTL。Redis 写失败不阻断本轮对话，
// 进程内兜底总是同步更新。
func (c *ConversationCache) Set(ctx context.Context, senderID string, snap *dialogue.Snapshot) error {
	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("无法序列化会话快照: %w", err)
	}

	c.fallback.Put(senderID, data)
	if err := c.rdb.Set(ctx, keyPrefix+senderID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis 写入失败: %w", err)
	}
	return nil
}

// Clear 删除一个用户的会话快照。
func (c *ConversationCache) Clear(ctx context.Context, senderID string) error {
	c.fallback.Remove(senderID)
	if err := c.rdb.Del(ctx, keyPrefix+senderID).Err(); err != nil {
		return fmt.Errorf("redis 删除失败: %w", err)
	}
	return nil
}
