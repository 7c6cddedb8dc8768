package database

import (
	"context"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/line-ec-lea/influ-discord-bot/internal/domain"
)

// KV is an expiring key/value store. Get returns domain.ErrNotFound for a
// missing or expired key; any other error means the store itself failed.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// RedisKV backs the KV on a shared redis instance.
type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", domain.NotFoundError{Resource: key}
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to get from redis")
	}
	return value, nil
}

func (s *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to set to redis")
	}
	return nil
}

// MemcacheKV backs the KV on memcached. TTLs are truncated to seconds.
type MemcacheKV struct {
	client *memcache.Client
}

func NewMemcacheKV(client *memcache.Client) *MemcacheKV {
	return &MemcacheKV{client: client}
}

func (s *MemcacheKV) Get(ctx context.Context, key string) (string, error) {
	item, err := s.client.Get(key)
	if err == memcache.ErrCacheMiss {
		return "", domain.NotFoundError{Resource: key}
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to get from memcached")
	}
	return string(item.Value), nil
}

func (s *MemcacheKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	err := s.client.Set(&memcache.Item{
		Key:        key,
		Value:      []byte(value),
		Expiration: int32(ttl / time.Second),
	})
	if err != nil {
		return errors.Wrap(err, "failed to set to memcached")
	}
	return nil
}

// LocalKV keeps entries in process memory. The default for single-instance
// deployments with no external cache.
type LocalKV struct {
	cache *gocache.Cache
}

func NewLocalKV() *LocalKV {
	return &LocalKV{
		cache: gocache.New(domain.MemberMappingTTL, 10*time.Minute),
	}
}

func (s *LocalKV) Get(ctx context.Context, key string) (string, error) {
	value, found := s.cache.Get(key)
	if !found {
		return "", domain.NotFoundError{Resource: key}
	}
	return value.(string), nil
}

func (s *LocalKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	s.cache.Set(key, value, ttl)
	return nil
}
