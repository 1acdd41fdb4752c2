// Package redis implements cache.Cache on a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mediavault/pkg/cache"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	DB       int
	Password string
}

type Cache struct {
	rdb *redis.Client
}

func New(cfg Config) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &Cache{rdb: rdb}
}

func (c *Cache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis: GET %q: %w", key, err)
	}
	return b, nil
}

func (c *Cache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis: SET %q: %w", key, err)
	}
	return nil
}

// Touch uses EXPIRE, so the stored value itself is never rewritten.
func (c *Cache) Touch(ctx context.Context, key string, ttl time.Duration) error {
	var (
		ok  bool
		err error
	)
	if ttl > 0 {
		ok, err = c.rdb.Expire(ctx, key, ttl).Result()
	} else {
		ok, err = c.rdb.Persist(ctx, key).Result()
		if err == nil && !ok {
			// PERSIST also reports false for keys without a TTL
			n, exErr := c.rdb.Exists(ctx, key).Result()
			ok, err = n == 1, exErr
		}
	}
	if err != nil {
		return fmt.Errorf("redis: EXPIRE %q: %w", key, err)
	}
	if !ok {
		return cache.ErrMiss
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: DEL %q: %w", key, err)
	}
	return nil
}

var _ cache.Cache = (*Cache)(nil)
