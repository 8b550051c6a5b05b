package xlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

// 全局 Logger，面向 main 包和命令行工具。
// 库代码应通过 Option 显式注入 Logger。

var global atomic.Pointer[LoggerWithLevel]

func fallback() LoggerWithLevel {
	l, _, err := New().Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "xlog: build default logger: %v\n", err)
		return newLogger(slog.NewTextHandler(os.Stderr, nil), new(slog.LevelVar), false, nil)
	}
	return l
}

// Default 返回全局 Logger，首次调用时惰性创建（stderr、Info、text）。
func Default() LoggerWithLevel {
	if p := global.Load(); p != nil {
		return *p
	}
	l := fallback()
	if global.CompareAndSwap(nil, &l) {
		return l
	}
	return *global.Load()
}

// SetDefault 替换全局 Logger，nil 被忽略。
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	global.Store(&l)
}

// 全局便利函数。直接调用底层实现以保持 AddSource 的调用位置正确。

func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelDebug, msg, attrs)
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelInfo, msg, attrs)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelWarn, msg, attrs)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelError, msg, attrs)
}

//go:noinline
func globalLog(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l := Default()
	xl, ok := l.(*xlogger)
	if !ok {
		switch level {
		case slog.LevelDebug:
			l.Debug(ctx, msg, attrs...)
		case slog.LevelInfo:
			l.Info(ctx, msg, attrs...)
		case slog.LevelWarn:
			l.Warn(ctx, msg, attrs...)
		default:
			l.Error(ctx, msg, attrs...)
		}
		return
	}
	if xl.handler.Enabled(ctx, level) {
		xl.emit(ctx, level, msg, attrs, nil, 2)
	}
}
