package xrun

import (
	"os"

	"github.com/omeyang/xserve/pkg/observability/xlog"
)

// Option 配置 Group 与 Run 系列函数
type Option func(*groupOptions)

type groupOptions struct {
	logger          xlog.Logger
	name            string
	signals         []os.Signal
	noSignalHandler bool
	stop            *StopFlag
}

func defaultOptions() *groupOptions {
	return &groupOptions{
		logger: xlog.Default(),
		name:   "xrun",
	}
}

// WithLogger 设置生命周期日志的记录器，nil 被忽略
func WithLogger(l xlog.Logger) Option {
	return func(o *groupOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithName 设置 Group 名称，默认 "xrun"
func WithName(name string) Option {
	return func(o *groupOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSignals 覆盖监听的信号列表。空列表等价于 DefaultSignals()。
func WithSignals(signals []os.Signal) Option {
	cp := append([]os.Signal(nil), signals...)
	return func(o *groupOptions) {
		o.signals = cp
	}
}

// WithoutSignalHandler 不注册信号监听，由调用方自行处理
func WithoutSignalHandler() Option {
	return func(o *groupOptions) {
		o.noSignalHandler = true
	}
}

// WithStopFlag 关联一个 StopFlag：Group.Cancel 与信号都会置位它。
// 未设置时 Group 内部自建一个，可通过 Group.StopFlag 取得。
func WithStopFlag(f *StopFlag) Option {
	return func(o *groupOptions) {
		if f != nil {
			o.stop = f
		}
	}
}
