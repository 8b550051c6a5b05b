package xretry

import (
	"context"
	"math"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// DefaultAttempts 默认总尝试次数（含首次）
const DefaultAttempts = 5

// Retryer 重试执行器，可并发复用。
type Retryer struct {
	attempts uint
	backoff  Backoff
	onRetry  func(attempt int, err error)
}

// Option 配置 Retryer
type Option func(*Retryer)

// WithAttempts 设置总尝试次数，0 表示直到成功或 ctx 结束
func WithAttempts(n uint) Option {
	return func(r *Retryer) { r.attempts = n }
}

func WithBackoff(b Backoff) Option {
	return func(r *Retryer) {
		if b != nil {
			r.backoff = b
		}
	}
}

// WithOnRetry 每次可重试的失败后调用，attempt 从 1 开始
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(r *Retryer) { r.onRetry = fn }
}

func New(opts ...Option) *Retryer {
	r := &Retryer{attempts: DefaultAttempts, backoff: DefaultBackoff()}
	for _, o := range opts {
		if o != nil {
			o(r)
		}
	}
	return r
}

// Do 执行 fn 直到成功、返回 [Permanent] 错误、次数用尽或 ctx 结束。
// 返回最后一次的错误；Permanent 包装会被剥去。
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return ErrNilFunc
	}
	_, err := DoWithResult(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoWithResult 是带返回值的 Do。r 为 nil 时使用默认配置。
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	if r == nil {
		r = New()
	}
	v, err := retry.NewWithData[T](r.options(ctx)...).Do(func() (T, error) {
		return fn(ctx)
	})
	// 只剥去 fn 直接返回的那一层
	if pe, ok := err.(*PermanentError); ok { //nolint:errorlint
		err = pe.Err
	}
	return v, err
}

func (r *Retryer) options(ctx context.Context) []retry.Option {
	opts := []retry.Option{
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err) && !IsPermanent(err)
		}),
		// retry-go v5 的 n 从 1 开始
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			return r.backoff.NextDelay(toInt(n))
		}),
	}
	if r.attempts == 0 {
		opts = append(opts, retry.UntilSucceeded())
	} else {
		opts = append(opts, retry.Attempts(r.attempts))
	}
	if r.onRetry != nil {
		// OnRetry 的 n 从 0 开始
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			r.onRetry(toInt(n)+1, err)
		}))
	}
	return opts
}

func toInt(n uint) int {
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}
