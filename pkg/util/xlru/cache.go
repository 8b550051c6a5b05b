package xlru

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const maxSize = 1 << 24

// Config 缓存配置
type Config struct {
	// Size 最大条目数，取值 (0, 16777216]
	Size int
	// TTL 条目存活时间，0 表示不过期
	TTL time.Duration
}

// Stats 命中统计快照
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Len    int    `json:"len"`
}

// Cache 带 TTL 的 LRU 缓存。零值不可用，须由 [New] 创建。
// Close 之后读返回未命中，写被忽略。
type Cache[K comparable, V any] struct {
	lru       *expirable.LRU[K, V]
	hits      atomic.Uint64
	misses    atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// New 创建缓存。onEvict 可为 nil，它在底层锁内同步执行，不得回调 Cache 的方法。
func New[K comparable, V any](cfg Config, onEvict func(K, V)) (*Cache[K, V], error) {
	switch {
	case cfg.Size <= 0:
		return nil, ErrInvalidSize
	case cfg.Size > maxSize:
		return nil, ErrSizeExceedsMax
	case cfg.TTL < 0:
		return nil, ErrInvalidTTL
	}
	return &Cache[K, V]{lru: expirable.NewLRU(cfg.Size, onEvict, cfg.TTL)}, nil
}

// Get 返回缓存值，并计入命中统计。
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c.closed.Load() {
		return zero, false
	}
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Peek 读取但不刷新 LRU 顺序，也不计入统计。
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.lru.Peek(key)
}

// Set 写入并刷新 TTL，返回是否淘汰了旧条目。
func (c *Cache[K, V]) Set(key K, value V) bool {
	if c.closed.Load() {
		return false
	}
	return c.lru.Add(key, value)
}

// GetOrLoad 命中时直接返回；否则调用 load，成功则写入缓存。
//
// 并发未命中同一键时 load 可能被调用多次，结果以最后一次写入为准。
// 页面文件读取是幂等的，重复加载只是多一次 I/O。
func (c *Cache[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	if load == nil {
		var zero V
		return zero, ErrNilLoader
	}
	v, err := load(key)
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

func (c *Cache[K, V]) Delete(key K) bool {
	if c.closed.Load() {
		return false
	}
	return c.lru.Remove(key)
}

// Purge 清空所有条目，统计不清零。
func (c *Cache[K, V]) Purge() {
	if c.closed.Load() {
		return
	}
	c.lru.Purge()
}

// Len 可能包含已过期但尚未清理的条目
func (c *Cache[K, V]) Len() int {
	if c.closed.Load() {
		return 0
	}
	return c.lru.Len()
}

func (c *Cache[K, V]) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Len: c.Len()}
}

// Close 清空缓存并停止过期清理 goroutine，幂等。
func (c *Cache[K, V]) Close() {
	c.closed.Store(true)
	c.closeOnce.Do(func() {
		c.lru.Purge()
		stopJanitor(c.lru)
	})
}

// stopJanitor 关闭 expirable.LRU 内部的 done 通道，让清理 goroutine 退出。
//
// golang-lru v2.0.7 没有导出 Close，只能通过反射访问未导出字段 done
// (chan struct{})。字段不存在或类型不符时返回 false，由测试发现上游变化。
// 升级 golang-lru 后若上游提供了 Close，应改用它。
func stopJanitor(lru any) (stopped bool) {
	defer func() {
		if recover() != nil {
			stopped = false
		}
	}()
	v := reflect.ValueOf(lru)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return false
	}
	f := v.Elem().FieldByName("done")
	if !f.IsValid() || f.Type() != reflect.TypeFor[chan struct{}]() || f.IsNil() {
		return false
	}
	ch := *(*chan struct{})(unsafe.Pointer(f.UnsafeAddr())) //nolint:gosec // 访问上游未导出字段
	close(ch)
	return true
}
