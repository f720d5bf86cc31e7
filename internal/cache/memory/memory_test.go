package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := New(time.Minute)

	_, ok := m.Get(ctx, "missing")
	assert.False(t, ok)

	m.Set(ctx, "k", []byte("v"), time.Minute)
	got, ok := m.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	m.Delete(ctx, "k")
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	m := New(time.Minute)

	m.Set(ctx, "k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
}

// Two concurrent Pulls on the same key: exactly one winner.
func TestPullAtomic(t *testing.T) {
	ctx := context.Background()
	m := New(time.Minute)
	m.Set(ctx, "code", []byte("payload"), time.Minute)

	const n = 32
	var wins int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := m.Pull(ctx, "code"); ok {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), wins)
	_, ok := m.Get(ctx, "code")
	assert.False(t, ok)
}
