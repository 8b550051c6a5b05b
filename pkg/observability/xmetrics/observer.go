// Package xmetrics 定义与后端无关的观测接口，并提供基于 OpenTelemetry 的实现。
//
// 一次观测对应一个 [Span]：Start 时创建 trace span，End 时结束 span 并记录
// 计数（xserve.operation.total）与耗时直方图（xserve.operation.duration），
// 指标按 component、operation、status 三个维度聚合。
//
//	ctx, span := xmetrics.Start(ctx, observer, xmetrics.SpanOptions{
//	    Component: "xpool",
//	    Operation: "task",
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// 未配置 Observer 时使用 [NoopObserver]，调用方无需判空。
package xmetrics

import (
	"context"
	"strconv"
	"time"
)

// Kind 观测跨度类型
type Kind int

const (
	KindInternal Kind = iota
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "Internal"
	case KindServer:
		return "Server"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Status 观测结果状态
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Attr 观测属性
type Attr struct {
	Key   string
	Value any
}

func String(key, value string) Attr { return Attr{Key: key, Value: value} }
func Int(key string, value int) Attr { return Attr{Key: key, Value: value} }
func Int64(key string, value int64) Attr { return Attr{Key: key, Value: value} }
func Bool(key string, value bool) Attr { return Attr{Key: key, Value: value} }
func Duration(key string, d time.Duration) Attr { return Attr{Key: key, Value: d} }

// SpanOptions 创建跨度的参数
type SpanOptions struct {
	Component string
	Operation string
	Kind      Kind
	Attrs     []Attr
}

// Result 跨度结束时的结果。Status 为空时由 Err 推导。
type Result struct {
	Status Status
	Err    error
	Attrs  []Attr
}

func (r Result) status() Status {
	if r.Status != "" {
		return r.Status
	}
	if r.Err != nil {
		return StatusError
	}
	return StatusOK
}

// Span 一次观测跨度，End 必须幂等。
type Span interface {
	End(result Result)
}

// Observer 观测接口
type Observer interface {
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

// NoopObserver 不做任何记录
type NoopObserver struct{}

func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

type NoopSpan struct{}

func (NoopSpan) End(Result) {}

// Start 用 observer 开始观测。
// 保证返回非 nil 的 ctx 与 Span：nil observer、nil ctx 以及实现返回的 nil 值都会被兜底。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	rctx, span := observer.Start(ctx, opts)
	if rctx == nil {
		rctx = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return rctx, span
}
