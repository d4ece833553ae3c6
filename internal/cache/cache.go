package cache

import (
	"context"
	"time"
)

// BytesCache is a best-effort byte cache: misses and errors are both
// acceptable to callers.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
