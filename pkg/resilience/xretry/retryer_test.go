package xretry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fast = WithBackoff(ExponentialBackoff{Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2})

func TestDo_SucceedsAfterFailures(t *testing.T) {
	var calls atomic.Int32
	var retried []int
	r := New(fast, WithOnRetry(func(attempt int, _ error) { retried = append(retried, attempt) }))

	err := r.Do(context.Background(), func(context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("address already in use")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_Permanent(t *testing.T) {
	denied := errors.New("permission denied")
	var calls atomic.Int32
	err := New(fast).Do(context.Background(), func(context.Context) error {
		calls.Add(1)
		return Permanent(denied)
	})
	assert.Same(t, denied, err)
	assert.Equal(t, int32(1), calls.Load())

	// 被再次包装的 Permanent 也终止重试，但保留外层上下文
	calls.Store(0)
	err = New(fast).Do(context.Background(), func(context.Context) error {
		calls.Add(1)
		return fmt.Errorf("listen: %w", Permanent(denied))
	})
	assert.ErrorIs(t, err, denied)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_Exhausted(t *testing.T) {
	var calls atomic.Int32
	err := New(fast, WithAttempts(3)).Do(context.Background(), func(context.Context) error {
		return fmt.Errorf("attempt %d", calls.Add(1))
	})
	assert.EqualError(t, err, "attempt 3")
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_UntilContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	var calls atomic.Int32
	err := New(fast, WithAttempts(0)).Do(ctx, func(context.Context) error {
		calls.Add(1)
		return errors.New("busy")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, calls.Load(), int32(1))
}

func TestDoWithResult(t *testing.T) {
	v, err := DoWithResult(context.Background(), nil, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	//nolint:staticcheck // nil ctx 被拒绝
	_, err = DoWithResult(nil, New(), func(context.Context) (int, error) { return 0, nil })
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = DoWithResult[int](context.Background(), New(), nil)
	assert.ErrorIs(t, err, ErrNilFunc)
	assert.ErrorIs(t, New().Do(context.Background(), nil), ErrNilFunc)
}

func TestPermanentError(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	assert.False(t, IsPermanent(nil))
	assert.False(t, IsPermanent(errors.New("x")))
	assert.Equal(t, "xretry: permanent error", (&PermanentError{}).Error())
	inner := errors.New("inner")
	assert.Equal(t, "inner", Permanent(inner).Error())
	assert.Same(t, inner, errors.Unwrap(Permanent(inner)))
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff{Initial: 10 * time.Millisecond, Max: 100 * time.Millisecond, Multiplier: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 10 * time.Millisecond},
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{4, 80 * time.Millisecond},
		{5, 100 * time.Millisecond},
		{10000, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}

	// Multiplier < 1 视为 1
	assert.Equal(t, 10*time.Millisecond, ExponentialBackoff{Initial: 10 * time.Millisecond, Max: time.Second}.NextDelay(7))

	j := DefaultBackoff()
	for range 100 {
		d := j.NextDelay(1)
		assert.GreaterOrEqual(t, d, 45*time.Millisecond)
		assert.LessOrEqual(t, d, 55*time.Millisecond)
	}
}
