package xrun

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xserve/pkg/observability/xlog"
)

// Group 并发运行多个服务，任一服务返回错误即取消其余服务并置位 StopFlag。
//
// Go、GoWithName、Cancel 可并发调用；Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group 并返回其 ctx。nil ctx 视为 context.Background()。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.stop == nil {
		o.stop = NewStopFlag()
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     o,
	}, egCtx
}

// Go 在新 goroutine 中运行 fn(ctx)。fn 应在 ctx 取消后尽快返回。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return g.trip(fn(g.ctx))
	})
}

// GoWithName 与 Go 相同，额外记录服务的启动与退出日志。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		attrs := []slog.Attr{slog.String("group", g.opts.name), slog.String("service", name)}
		g.opts.logger.Debug(g.ctx, "service starting", attrs...)
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.opts.logger.Warn(g.ctx, "service exited with error", append(attrs, xlog.Err(err))...)
		} else {
			g.opts.logger.Debug(g.ctx, "service stopped", attrs...)
		}
		return g.trip(err)
	})
}

// trip 在服务异常退出时置位 StopFlag，使依赖它轮询的循环一并退出。
func (g *Group) trip(err error) error {
	if err != nil && !errors.Is(err, context.Canceled) {
		g.opts.stop.Stop(err)
	}
	return err
}

// Wait 等待全部服务返回。
//
// 返回第一个非 nil 错误。Group 被取消（Cancel、信号、父 ctx）导致的
// context.Canceled 会被替换为取消原因；没有显式原因时返回 nil。
// 服务自己返回的 context.Canceled 原样返回。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	g.opts.logger.Debug(g.ctx, "all services stopped", slog.String("group", g.opts.name))

	if g.causeCtx.Err() == nil {
		return err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Cancel 置位 StopFlag 并以 cause 取消所有服务。
// cause 不应包装 context.Canceled，否则 Wait 会把它当作普通取消过滤掉。
func (g *Group) Cancel(cause error) {
	g.opts.stop.Stop(cause)
	g.cancel(cause)
}

func (g *Group) Context() context.Context { return g.ctx }

// StopFlag 返回与 Group 关联的停止标志
func (g *Group) StopFlag() *StopFlag { return g.opts.stop }
