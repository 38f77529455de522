package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache 는 domain.Cache 를 Redis 로 구현한다.
type RedisCache struct {
	client *redis.Client
}

// NewRedis 는 캐시를 생성한다.
func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Set 은 값을 TTL 과 함께 저장한다.
func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) error {
	return c.client.Set(context.Background(), key, value, ttl).Err()
}

// Get 은 값을 반환한다. 없는 키는 redis.Nil 오류를 낸다.
func (c *RedisCache) Get(key string) ([]byte, error) {
	return c.client.Get(context.Background(), key).Bytes()
}
