// Package xrun 管理进程内多个服务的运行与协调关闭。
//
// # 组成
//
//   - [StopFlag]: 只能置位一次的原子停止标志，接入循环在每次 accept 之间轮询它
//   - [Group]: 基于 errgroup 与 context.WithCancelCause，任一服务出错即取消全部
//   - [Run] / [RunServices]: 在 Group 之上注册信号监听，收到信号时置位停止标志
//     并以 [*SignalError] 作为退出原因
//   - [Ticker]: 周期任务（例如定时输出 worker 池统计）
//   - [HTTPServer]: 把 *http.Server 包装成随 ctx 优雅关闭的服务
//
// # 停止顺序
//
// 信号到达 → StopFlag 置位 → Group ctx 取消 → 各服务自行收尾并返回 → Wait 返回退出原因。
// StopFlag 与 ctx 同时提供，是为了让不便阻塞在 ctx.Done() 上的循环（如带超时的 accept）
// 也能以极低成本检查是否该退出。反过来，Run 系列函数中任何一方置位 StopFlag
// （如服务器的 Stop）同样会取消整个 Group。
//
// # 示例
//
//	stop := xrun.NewStopFlag()
//	err := xrun.RunServicesWithOptions(ctx, []xrun.Option{
//	    xrun.WithStopFlag(stop),
//	    xrun.WithLogger(logger),
//	}, server, statsReporter)
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 正常的信号退出
//	}
package xrun
