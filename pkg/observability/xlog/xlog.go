package xlog

import (
	"context"
	"log/slog"
)

// Logger 是 worker、接收循环与 CLI 共用的日志接口。
//
// 第一个参数总是 ctx，属性只接受 slog.Attr，调用方不会误传奇数个 key-value。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Stack 以 Error 级别输出，并附带当前 goroutine 的堆栈（用于 worker panic）
	Stack(ctx context.Context, msg string, attrs ...slog.Attr)

	With(attrs ...slog.Attr) Logger
	WithGroup(name string) Logger
}

// Leveler 运行时调整级别，配置文件热加载 log.level 时使用
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 由 Builder.Build 返回
type LoggerWithLevel interface {
	Logger
	Leveler
}
