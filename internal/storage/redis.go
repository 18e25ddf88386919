package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/YanKarpov/HelpyHub/pkg/metrics"
)

// Redis implements state.KeyValue on a single shared Redis instance.
// Store unavailability propagates to the caller as-is; the coordinator
// decides whether it can degrade or must fail closed.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the given address and pings it once so a bad
// address fails at startup, not on the first user event.
func NewRedis(ctx context.Context, addr string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Redis{client: client}, nil
}

// track counts a failed store operation before handing the error back.
func track(op string, err error) error {
	if err != nil {
		metrics.IncStoreError(op)
	}
	return err
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, track("get", err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return track("set", r.client.Set(ctx, key, value, ttl).Err())
}

func (r *Redis) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	return ok, track("setnx", err)
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return track("del", r.client.Del(ctx, keys...).Err())
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	return n > 0, track("exists", err)
}

func (r *Redis) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		args[k] = v
	}
	return track("hset", r.client.HSet(ctx, key, args).Err())
}

func (r *Redis) HGet(ctx context.Context, key, field string) (string, bool, error) {
	v, err := r.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, track("hget", err)
	}
	return v, true, nil
}

func (r *Redis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	v, err := r.client.HGetAll(ctx, key).Result()
	return v, track("hgetall", err)
}

func (r *Redis) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return track("hdel", r.client.HDel(ctx, key, fields...).Err())
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return track("expire", r.client.Expire(ctx, key, ttl).Err())
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
