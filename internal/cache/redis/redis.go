// Package redis implements cache.Cache on go-redis. GETDEL gives Pull
// its atomicity, so concurrent code redemptions linearize server-side.
package redis

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

type Cache struct {
	c      *rdb.Client
	prefix string
}

func New(addr string, db int, prefix string) *Cache {
	return &Cache{
		c:      rdb.NewClient(&rdb.Options{Addr: addr, DB: db}),
		prefix: prefix,
	}
}

func (r *Cache) key(k string) string { return r.prefix + k }

func (r *Cache) Get(ctx context.Context, k string) ([]byte, bool) {
	b, err := r.c.Get(ctx, r.key(k)).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *Cache) Set(ctx context.Context, k string, v []byte, ttl time.Duration) {
	_ = r.c.Set(ctx, r.key(k), v, ttl).Err()
}

func (r *Cache) Delete(ctx context.Context, k string) {
	_ = r.c.Del(ctx, r.key(k)).Err()
}

func (r *Cache) Pull(ctx context.Context, k string) ([]byte, bool) {
	b, err := r.c.GetDel(ctx, r.key(k)).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

// Ping verifies the connection.
func (r *Cache) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Cache) Close() error { return r.c.Close() }
