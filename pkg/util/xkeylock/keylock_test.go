package xkeylock

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newLocker(t *testing.T) *Locker {
	t.Helper()
	l, err := New(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestNew_Shards(t *testing.T) {
	for _, n := range []int{-1, 3, 100, maxShards * 2} {
		_, err := New(n)
		assert.ErrorIs(t, err, ErrInvalidShards, "shards=%d", n)
	}
	l, err := New(1)
	require.NoError(t, err)
	assert.Len(t, l.shards, 1)
	require.NoError(t, l.Close())
}

func TestLock_UnlockIdempotent(t *testing.T) {
	l := newLocker(t)
	unlock, err := l.Lock(context.Background(), "/index.html")
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())

	unlock()
	unlock()
	assert.Equal(t, 0, l.Len())

	unlock, ok := l.TryLock("/index.html")
	require.True(t, ok)
	unlock()
}

func TestTryLock(t *testing.T) {
	l := newLocker(t)
	unlock, ok := l.TryLock("a")
	require.True(t, ok)

	_, ok = l.TryLock("a")
	assert.False(t, ok)
	other, ok := l.TryLock("b")
	require.True(t, ok)
	other()

	unlock()
	assert.Equal(t, 0, l.Len())
}

func TestLock_ContextCanceled(t *testing.T) {
	l := newLocker(t)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.Len(), "waiter reference released")

	_, err = l.Lock(nil, "k") //nolint:staticcheck // nil ctx
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestClose_WakesWaiters(t *testing.T) {
	l, err := New(0)
	require.NoError(t, err)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := l.Lock(context.Background(), "k")
		errc <- err
	}()
	require.Eventually(t, func() bool {
		s := l.shard("k")
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.entries["k"].refs == 2
	}, 5*time.Second, time.Millisecond)

	require.NoError(t, l.Close())
	assert.ErrorIs(t, <-errc, ErrClosed)
	assert.ErrorIs(t, l.Close(), ErrClosed)

	_, err = l.Lock(context.Background(), "other")
	assert.ErrorIs(t, err, ErrClosed)
	_, ok := l.TryLock("other")
	assert.False(t, ok)

	// 已持有的锁仍可释放
	unlock()
	assert.Equal(t, 0, l.Len())
}

func TestLock_MutualExclusion(t *testing.T) {
	l := newLocker(t)
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := range 64 {
		key := "k" + strconv.Itoa(i%4)
		wg.Go(func() {
			unlock, err := l.Lock(context.Background(), key)
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()
			if key != "k0" {
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(100 * time.Microsecond)
			inside.Add(-1)
		})
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, l.Len())
}
