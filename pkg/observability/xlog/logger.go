package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var (
	_ Logger          = (*xlogger)(nil)
	_ LoggerWithLevel = (*xlogger)(nil)
)

const (
	stackInitSize = 4 << 10
	stackMaxSize  = 64 << 10
)

var stackBufs = sync.Pool{
	New: func() any {
		b := make([]byte, stackInitSize)
		return &b
	},
}

// xlogger 是 LoggerWithLevel 的 slog 实现。
// 派生 Logger（With/WithGroup）共享 level 与错误计数。
type xlogger struct {
	handler   slog.Handler
	level     *slog.LevelVar
	addSource bool
	onError   func(error)
	errs      *atomic.Uint64
	inOnError *atomic.Bool
}

func newLogger(h slog.Handler, lv *slog.LevelVar, addSource bool, onError func(error)) *xlogger {
	return &xlogger{
		handler:   h,
		level:     lv,
		addSource: addSource,
		onError:   onError,
		errs:      new(atomic.Uint64),
		inOnError: new(atomic.Bool),
	}
}

func (l *xlogger) derive(h slog.Handler) *xlogger {
	c := *l
	c.handler = h
	return &c
}

// emit 写出一条记录。skip 为从 emit 到业务代码之间的帧数。
//
//go:noinline
func (l *xlogger) emit(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, extra []slog.Attr, skip int) {
	var pc uintptr
	if l.addSource {
		var pcs [1]uintptr
		runtime.Callers(skip+2, pcs[:])
		pc = pcs[0]
	}
	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	r.AddAttrs(extra...)
	if err := l.handler.Handle(ctx, r); err != nil {
		l.reportError(err)
	}
}

// reportError 记录 Handler 写入失败。onError 回调内再次失败不会递归，
// 回调 panic 被吞掉并计数。
func (l *xlogger) reportError(err error) {
	l.errs.Add(1)
	if l.onError == nil || !l.inOnError.CompareAndSwap(false, true) {
		return
	}
	defer l.inOnError.Store(false)
	defer func() {
		if recover() != nil {
			l.errs.Add(1)
		}
	}()
	l.onError(err)
}

//go:noinline
func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if l.handler.Enabled(ctx, slog.LevelDebug) {
		l.emit(ctx, slog.LevelDebug, msg, attrs, nil, 1)
	}
}

//go:noinline
func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	if l.handler.Enabled(ctx, slog.LevelInfo) {
		l.emit(ctx, slog.LevelInfo, msg, attrs, nil, 1)
	}
}

//go:noinline
func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if l.handler.Enabled(ctx, slog.LevelWarn) {
		l.emit(ctx, slog.LevelWarn, msg, attrs, nil, 1)
	}
}

//go:noinline
func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	if l.handler.Enabled(ctx, slog.LevelError) {
		l.emit(ctx, slog.LevelError, msg, attrs, nil, 1)
	}
}

// Stack 以 Error 级别记录，并附带当前 goroutine 的堆栈（key 为 [KeyStack]）。
//
//go:noinline
func (l *xlogger) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	if !l.handler.Enabled(ctx, slog.LevelError) {
		return
	}
	l.emit(ctx, slog.LevelError, msg, attrs, []slog.Attr{slog.String(KeyStack, captureStack())}, 1)
}

// captureStack 返回当前 goroutine 的堆栈，超过 stackMaxSize 时截断。
func captureStack() string {
	bp, ok := stackBufs.Get().(*[]byte)
	if !ok {
		b := make([]byte, stackInitSize)
		bp = &b
	}
	buf := *bp
	n := runtime.Stack(buf, false)
	for n == len(buf) && len(buf) < stackMaxSize {
		buf = make([]byte, min(len(buf)*2, stackMaxSize))
		n = runtime.Stack(buf, false)
	}
	// 必须先拷贝再归还，否则池中缓冲区可能被其他 goroutine 覆盖
	s := string(buf[:n])
	stackBufs.Put(bp)
	return s
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return l.derive(l.handler.WithAttrs(attrs))
}

func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return l.derive(l.handler.WithGroup(name))
}

func (l *xlogger) SetLevel(level Level) { l.level.Set(slog.Level(level)) }

func (l *xlogger) GetLevel() Level { return Level(l.level.Level()) }

func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	return l.handler.Enabled(ctx, slog.Level(level))
}

// Discard 返回丢弃所有输出的 Logger。
func Discard() LoggerWithLevel {
	lv := new(slog.LevelVar)
	return newLogger(slog.DiscardHandler, lv, false, nil)
}
