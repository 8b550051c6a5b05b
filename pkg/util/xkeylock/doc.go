// Package xkeylock 提供按 key 互斥的进程内锁。
//
// 典型用途是合并对同一资源的并发加载：缓存未命中时先对 key 加锁，
// 拿到锁后再检查一次缓存，只有第一个持有者真正执行加载。
//
//	unlock, err := locks.Lock(ctx, path)
//	if err != nil {
//		return err
//	}
//	defer unlock()
//
// 条目按 xxhash 分片存放，引用计数归零即删除，空闲 key 不占内存。
// 锁不可重入。
package xkeylock
