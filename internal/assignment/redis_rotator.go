package assignment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisRotator implements Rotator on a Redis list per queue key.
// RPOPLPUSH with source == destination is a single atomic rotate, so
// concurrent callers are linearized by the server, and the queue
// survives process restarts.
type RedisRotator struct {
	client *redis.Client
}

// NewRedisRotator constructs a RedisRotator from the REDIS_URL
// environment variable.
func NewRedisRotator() (*RedisRotator, error) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		return nil, errors.New("redis: REDIS_URL environment variable is not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisRotator{client: c}, nil
}

var _ Rotator = (*RedisRotator)(nil)

// Rotate pops the tail of the list and pushes it back onto the head,
// returning the popped element. Lists are LPUSHed in pool order, so the
// rotation serves members first-to-last.
func (r *RedisRotator) Rotate(ctx context.Context, key string) (string, error) {
	res, err := r.client.RPopLPush(ctx, key, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return res, nil
}

// Replace rebuilds the list in one transaction so concurrent Rotate
// calls never observe a half-built queue.
func (r *RedisRotator) Replace(ctx context.Context, key string, members []string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) > 0 {
			vals := make([]interface{}, len(members))
			for i, m := range members {
				vals[i] = m
			}
			pipe.LPush(ctx, key, vals...)
		}
		return nil
	})
	return err
}

// Close releases the underlying Redis connection.
func (r *RedisRotator) Close() error {
	return r.client.Close()
}
