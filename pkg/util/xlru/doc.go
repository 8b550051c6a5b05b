// Package xlru 是带 TTL 的并发安全 LRU 缓存，封装 hashicorp/golang-lru/v2 的 expirable 实现。
//
// xhttpd 用它缓存页面文件内容：键为文件路径，值为文件字节。
// [Cache.GetOrLoad] 在未命中时调用加载函数并写回，加载失败不缓存。
//
// 必须调用 [Cache.Close]：TTL > 0 时底层库会启动一个清理 goroutine，
// 上游没有公开的停止方法，Close 负责结束它。
package xlru
