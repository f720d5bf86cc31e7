// Package cache defines the TTL cache used for authorization codes,
// pending authorization requests and resolved client metadata.
//
// Backends:
//   - Memory (in-process, go-cache; dev/testing)
//   - Redis (distributed; production)
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store with per-entry expiry.
//
// Pull is the atomic get-and-delete used to redeem one-shot entries
// (authorization codes, pending requests): for concurrent Pull calls on
// the same key exactly one caller observes the value.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Pull(ctx context.Context, key string) ([]byte, bool)
}
