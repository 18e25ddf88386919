package state

import (
	"context"
	"time"
)

// KeyValue abstracts the shared store all per-user state lives in.
// Implementations must be safe for concurrent use by multiple goroutines.
//
// Semantics mirror a Redis subset: Set with ttl==0 stores without expiry,
// SetNX is the atomic set-if-absent primitive required by the duplicate-send
// guard, hash operations back the per-user session record. Get/HGet report
// a missing key via the ok flag, never via an error.
type KeyValue interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (value string, ok bool, err error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error

	Expire(ctx context.Context, key string, ttl time.Duration) error
}
