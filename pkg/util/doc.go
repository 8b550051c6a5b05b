// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 文件路径工具，目录创建、防路径穿越的拼接
//   - xjson: JSON 输出工具，Pretty 格式化与流式编码
//   - xkeylock: 基于 key 的进程内互斥锁，用于合并并发加载
//   - xlru: 带 TTL 的 LRU 缓存，页面内容缓存
//   - xnet: 来源地址白名单，IP、CIDR 与区间解析
//   - xpool: 固定 worker 的任务池，每个 worker 独立的有界队列
//   - xsys: 系统资源限制管理，文件描述符上限
package util
