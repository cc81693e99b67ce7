package cache

import (
	"context"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type RedisStockCache struct {
	client *redis.Client
}

func NewRedisStockCache(addr string, password string, db int) *RedisStockCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisStockCache{client: client}
}

func (c *RedisStockCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisStockCache) Close() error {
	return c.client.Close()
}

func stockKey(productID string) string {
	return "inventory:" + productID
}

func (c *RedisStockCache) GetStock(ctx context.Context, productID string) (int, bool, error) {
	val, err := c.client.Get(ctx, stockKey(productID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	stock, err := strconv.Atoi(val)
	if err != nil {
		// Unparseable entries are treated as misses and dropped.
		_ = c.client.Del(ctx, stockKey(productID)).Err()
		return 0, false, nil
	}
	return stock, true, nil
}

func (c *RedisStockCache) SetStock(ctx context.Context, productID string, stock int, ttl time.Duration) error {
	return c.client.Set(ctx, stockKey(productID), strconv.Itoa(stock), ttl).Err()
}

func (c *RedisStockCache) Invalidate(ctx context.Context, productID string) error {
	return c.client.Del(ctx, stockKey(productID)).Err()
}
