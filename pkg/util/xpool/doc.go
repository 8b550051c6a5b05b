// Package xpool 提供固定大小、每个 worker 独占一个有界 channel 的任务池。
//
// 与单一共享队列不同，Pool 在提交侧按原子游标轮询（round-robin）选择 worker，
// 任务交接不经过任何共享锁，worker 之间互不阻塞。
//
// 特性：
//   - worker 数量 [1, 65536]，每个 worker 容量 [1, 16777216]
//   - Submit 非阻塞：落点 worker 满载即返回 false，不会改投其他 worker
//   - 每个任务在独立的 recover 边界内执行，panic 被记录后丢弃，worker 继续服务
//   - Shutdown 关闭所有 channel，已入队任务照常执行，返回前等待全部 worker 退出
//   - Pool 不可达且未关闭时，由 runtime.AddCleanup 关闭 channel，worker 耗尽任务后退出
//
// # 容量语义
//
// 容量计入"已接收但未完成"的任务，包括正在执行的那一个。capacity 为 1 即直接交接：
// worker 空闲时才接收任务。
//
// # 拒绝与重试
//
// 被拒绝的任务仍归调用方所有，Pool 不会丢弃或执行它。调用方可以内联执行、
// 稍后重试，或像 HTTP 接入层那样直接返回 503 并关闭连接。
//
// # 顺序
//
// 落到同一 worker 的任务按入队顺序执行（FIFO）。不同 worker 之间没有顺序保证。
//
// # 注意事项
//
//   - 任务内不可调用 Shutdown/Close，否则会等待自身退出而死锁
//   - Pool 不会中断执行中的任务，单个任务的耗时上限应由任务自己控制（如 I/O deadline）
package xpool
