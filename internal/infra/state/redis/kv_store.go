package redisstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"pixel-frame/internal/repository"
)

// KVStore 是 repository.KeyValueStore 的 Redis 实现
type KVStore struct {
	client    *redis.Client
	keyPrefix string // 所有 key 的公共前缀, 可为空
}

// NewKVStore 创建 KVStore 实例
func NewKVStore(client *redis.Client, keyPrefix string) *KVStore {
	if client == nil {
		panic("redis client cannot be nil for KVStore")
	}
	return &KVStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *KVStore) fullKey(key string) string {
	return s.keyPrefix + key
}

// Get 读取 key 的值, key 不存在时返回 repository.ErrNotFound。
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	fullKey := s.fullKey(key)
	value, err := s.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis: failed to get %s: %v: %w", fullKey, err, repository.ErrUnavailable)
	}
	return value, nil
}

// Set 整体覆盖 key 的值, 不设置过期时间。
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	fullKey := s.fullKey(key)
	if err := s.client.Set(ctx, fullKey, value, 0).Err(); err != nil {
		return fmt.Errorf("redis: failed to set %s: %v: %w", fullKey, err, repository.ErrUnavailable)
	}
	return nil
}

// IncrWindow 原子地递增 key 的计数并刷新过期时间, 用于限流。
func (s *KVStore) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := s.fullKey(key)
	pipe := s.client.Pipeline()
	incrCmd := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis: pipeline failed for rate limit on %s: %w", fullKey, err)
	}
	return incrCmd.Val(), nil
}
