// Package xretry 在 avast/retry-go/v5 之上提供带指数退避的重试执行器。
//
// xhttpd 用它绑定监听地址：端口可能仍被上一个进程占用（TIME_WAIT 或
// 滚动重启），短暂重试即可恢复；权限不足这类错误用 [Permanent] 标记，立即返回。
//
//	r := xretry.New(xretry.WithAttempts(5))
//	ln, err := xretry.DoWithResult(ctx, r, func(ctx context.Context) (net.Listener, error) {
//		return lc.Listen(ctx, "tcp", addr)
//	})
package xretry
