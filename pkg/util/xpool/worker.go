package xpool

import (
	"context"
	"log/slog"
	"time"

	"github.com/omeyang/xserve/pkg/observability/xlog"
	"github.com/omeyang/xserve/pkg/observability/xmetrics"
)

func poolAttr(name string) slog.Attr { return xlog.Pool(name) }

// work 是 worker i 的循环：等待 → 执行 → 等待，channel 关闭时退出。
// 只读取自己的 channel，不触碰提交侧的锁。
//
// task 调用 runtime.Goexit 时 recover 拦不住，当前 goroutine 必然退出：
// 此时释放该任务占用的容量，并启动新的 goroutine 接管同一个 channel，
// running 不变，worker i 对外仍然存活。
func (s *state) work(i int) {
	ctx := context.Background()
	log := s.opts.logger.With(xlog.Worker(i))
	drained := false
	defer func() {
		if !drained {
			s.pending[i].n.Add(-1)
			s.completed.Add(1)
			log.Warn(ctx, "worker goroutine replaced after task goexit")
			go s.work(i)
			return
		}
		log.Debug(ctx, "worker stopped")
		if s.running.Add(-1) == 0 {
			close(s.done)
		}
	}()

	log.Debug(ctx, "worker started")
	for j := range s.queues[i] {
		log.Debug(ctx, "task received")
		s.run(ctx, log, i, j)
		s.pending[i].n.Add(-1)
		s.completed.Add(1)
	}
	drained = true
}

// run 在 recover 边界内执行 task。panic 与 Goexit 都被记录、计数并回调；
// panic 随后被丢弃，Goexit 由 work 处理。
func (s *state) run(ctx context.Context, log xlog.Logger, i int, j job) {
	_, span := xmetrics.Start(ctx, s.opts.observer, xmetrics.SpanOptions{
		Component: "xpool",
		Operation: "task",
		Attrs: []xmetrics.Attr{
			xmetrics.String("pool", s.opts.name),
			xmetrics.Int("worker", i),
			xmetrics.Duration("queued", time.Since(j.queued)),
		},
	})

	returned := false
	defer func() {
		v := recover()
		if v == nil && returned {
			span.End(xmetrics.Result{})
			return
		}
		if v == nil {
			v = ErrTaskExited
		}
		perr := &PanicError{Worker: i, Value: v}
		s.panicked.Add(1)
		log.Stack(ctx, "task panic recovered", xlog.Panic(v))
		span.End(xmetrics.Result{Err: perr})
		s.notifyPanic(i, v)
	}()

	j.fn()
	returned = true
}

func (s *state) notifyPanic(i int, v any) {
	if s.opts.onPanic == nil {
		return
	}
	defer func() { _ = recover() }()
	s.opts.onPanic(i, v)
}
