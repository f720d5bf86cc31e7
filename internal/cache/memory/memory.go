// Package memory implements cache.Cache on top of patrickmn/go-cache.
package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/janboddez/indieauth/internal/cache"
)

type Mem struct {
	c *gocache.Cache
	// go-cache has no atomic take, so Pull serializes through this mutex.
	mu sync.Mutex
}

func New(defaultTTL time.Duration) cache.Cache {
	return &Mem{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *Mem) Get(_ context.Context, k string) ([]byte, bool) {
	v, ok := m.c.Get(k)
	if !ok {
		return nil, false
	}
	b, _ := v.([]byte)
	return b, true
}

func (m *Mem) Set(_ context.Context, k string, v []byte, ttl time.Duration) {
	m.c.Set(k, v, ttl)
}

func (m *Mem) Delete(_ context.Context, k string) { m.c.Delete(k) }

func (m *Mem) Pull(_ context.Context, k string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.c.Get(k)
	if !ok {
		return nil, false
	}
	m.c.Delete(k)
	b, _ := v.([]byte)
	return b, true
}
