package xkeylock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

const (
	DefaultShards = 32
	maxShards     = 1 << 16
)

var (
	ErrClosed        = errors.New("xkeylock: closed")
	ErrInvalidShards = errors.New("xkeylock: shard count must be a power of two")
	ErrNilContext    = errors.New("xkeylock: nil context")
)

// Locker 按 key 互斥。零值不可用，请使用 New。
type Locker struct {
	shards []shard
	mask   uint64
	keys   atomic.Int64
	closed atomic.Bool
	done   chan struct{}
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// entry 用容量为 1 的 channel 做互斥：发送即加锁，接收即解锁。
type entry struct {
	ch   chan struct{}
	refs int // 持有者加等待者，受 shard.mu 保护
}

// New 创建 Locker，shards 为 0 时使用 DefaultShards。
func New(shards int) (*Locker, error) {
	if shards == 0 {
		shards = DefaultShards
	}
	if shards < 0 || shards > maxShards || shards&(shards-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidShards, shards)
	}
	l := &Locker{
		shards: make([]shard, shards),
		mask:   uint64(shards - 1),
		done:   make(chan struct{}),
	}
	for i := range l.shards {
		l.shards[i].entries = make(map[string]*entry)
	}
	return l, nil
}

func (l *Locker) shard(key string) *shard {
	return &l.shards[xxhash.Sum64String(key)&l.mask]
}

func (l *Locker) ref(key string) (*entry, error) {
	s := l.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.closed.Load() {
		return nil, ErrClosed
	}
	e, ok := s.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		s.entries[key] = e
		l.keys.Add(1)
	}
	e.refs++
	return e, nil
}

func (l *Locker) unref(key string, e *entry) {
	s := l.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(s.entries, key)
		l.keys.Add(-1)
	}
}

func (l *Locker) unlocker(key string, e *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.unref(key, e)
		})
	}
}

// Lock 阻塞直到获得 key 的锁、ctx 结束或 Locker 关闭。
// 返回的 unlock 可重复调用，只有第一次生效。
func (l *Locker) Lock(ctx context.Context, key string) (unlock func(), err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := l.ref(key)
	if err != nil {
		return nil, err
	}
	select {
	case e.ch <- struct{}{}:
		return l.unlocker(key, e), nil
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	case <-l.done:
		l.unref(key, e)
		return nil, ErrClosed
	}
}

// TryLock 不等待。锁被占用时返回 (nil, false)。
func (l *Locker) TryLock(key string) (unlock func(), ok bool) {
	e, err := l.ref(key)
	if err != nil {
		return nil, false
	}
	select {
	case e.ch <- struct{}{}:
		return l.unlocker(key, e), true
	default:
		l.unref(key, e)
		return nil, false
	}
}

// Len 返回有持有者或等待者的 key 数
func (l *Locker) Len() int {
	return int(max(l.keys.Load(), 0))
}

// Close 拒绝新的加锁并唤醒所有等待者，已持有的锁不受影响。
func (l *Locker) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	close(l.done)
	return nil
}
