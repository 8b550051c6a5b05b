package xpool

import (
	"github.com/omeyang/xserve/pkg/observability/xlog"
	"github.com/omeyang/xserve/pkg/observability/xmetrics"
)

// Option 配置 Pool
type Option func(*options)

type options struct {
	logger   xlog.Logger
	name     string
	observer xmetrics.Observer
	onPanic  func(worker int, v any)
}

func defaultOptions() options {
	return options{
		logger:   xlog.Default(),
		name:     "default",
		observer: xmetrics.NoopObserver{},
	}
}

// WithLogger 设置日志记录器，nil 被忽略。默认使用 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithName 设置 Pool 名称，出现在日志与 span 属性中。
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithObserver 为每次任务执行创建一个 span（component=xpool，operation=task）。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithOnPanic 设置任务 panic 后的回调，在对应 worker 上同步调用。
// 回调自身的 panic 会被吞掉。
func WithOnPanic(fn func(worker int, v any)) Option {
	return func(o *options) {
		o.onPanic = fn
	}
}
