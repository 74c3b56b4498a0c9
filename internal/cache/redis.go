package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oggyb/matchbot/internal/config"
	"github.com/redis/go-redis/v9"
)

// LikeCountTTL is how long a cached liked-you counter lives without access.
const LikeCountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForLikeCount generates Redis key for a profile's liked-you count
func (c *RedisCache) KeyForLikeCount(profileID uint64) string {
	return fmt.Sprintf("likes:count:%d", profileID)
}

// InvalidateLikeCount drops a cached counter; the next read goes to the database.
func (c *RedisCache) InvalidateLikeCount(ctx context.Context, profileID uint64) error {
	return c.Del(ctx, c.KeyForLikeCount(profileID))
}

func (c *RedisCache) UpdateLikeCount(ctx context.Context, profileID uint64, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, c.KeyForLikeCount(profileID), count, LikeCountTTL).Err()
}

// GetLikeCount returns the cached counter and whether it was present.
func (c *RedisCache) GetLikeCount(ctx context.Context, profileID uint64) (int64, bool, error) {
	key := c.KeyForLikeCount(profileID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, LikeCountTTL).Err()
	return n, true, nil
}

// ChatChannel is the pub/sub channel carrying events for one thread.
func ChatChannel(threadID string) string {
	return "chat:thread:" + threadID
}

// ChatEvent is the payload published for every persisted chat message.
type ChatEvent struct {
	Type      string    `json:"type"`
	ThreadID  string    `json:"thread_id"`
	MessageID uint64    `json:"message_id"`
	SenderID  uint64    `json:"sender_id"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// PublishChatEvent fans a chat event out to realtime subscribers of the thread.
func (c *RedisCache) PublishChatEvent(ctx context.Context, event ChatEvent) error {
	if event.Type == "" {
		event.Type = "message"
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.Client.Publish(ctx, ChatChannel(event.ThreadID), data).Err()
}
