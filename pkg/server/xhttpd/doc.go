// Package xhttpd 是一个基于 xpool 的静态页面服务器。
//
// 接收循环（acceptor）在单个 goroutine 中运行：每接受一个连接就把
// "读请求、路由、响应、关闭"打包成任务提交给 [xpool.Pool]。
// 提交被拒绝（落点 worker 已满或池已关闭）时，接收循环直接回写
// 503 Service Unavailable 并关闭连接，不重试、不改投。
//
// 接收带有 Config.PollInterval 的超时，循环在每次 Accept 之间检查
// [xrun.StopFlag] 与 ctx，因此停止请求最多延迟一个轮询周期被观察到。
// 停止时先关闭监听，再调用 Pool.Shutdown 排空已入队的连接。
//
// 路由表在启动时由 [BuildRoutes] 从页面目录生成，只收录 .html/.css/.js，
// index.html 对应所在目录的路由，not_found.html 作为 404 页面。
//
// [WithCache] 启用页面缓存后，同一文件的并发未命中由 xkeylock 合并为一次读盘。
// [WithAccessLog] 按连接 id 采样输出 Info 级访问日志。
package xhttpd
