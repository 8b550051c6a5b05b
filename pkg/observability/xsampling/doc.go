// Package xsampling 决定一条记录是否输出，用于访问日志等高频场景。
//
// [RateSampler] 对 key 做 xxhash 后与比率比较：同一个 key 的决策总是一致，
// 同一连接上的多条日志要么都输出要么都丢弃。key 为空时退化为随机采样。
// [CountSampler] 每 n 次输出一次，与 key 无关。
package xsampling
