package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisEmitter publishes stock events as JSON to a redis pub/sub channel.
type RedisEmitter struct {
	client  *redis.Client
	channel string
}

func NewRedisEmitter(addr string, password string, db int, channel string) *RedisEmitter {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	return &RedisEmitter{client: client, channel: channel}
}

func (e *RedisEmitter) Ping(ctx context.Context) error {
	return e.client.Ping(ctx).Err()
}

func (e *RedisEmitter) Emit(ctx context.Context, event StockEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return e.client.Publish(ctx, e.channel, payload).Err()
}

func (e *RedisEmitter) Close() error {
	return e.client.Close()
}
