// Package xsys 调整进程的打开文件数上限（RLIMIT_NOFILE）。
//
// 每个排队的连接都占用一个文件描述符，工作池容量与 worker 数越大，
// 需要的描述符越多。服务启动时用 [EnsureFileLimit] 把 soft limit
// 提到所需值（不超过 hard limit，无需特权）。
//
// 非 Unix 平台上所有函数返回 [ErrUnsupportedPlatform]。
package xsys
