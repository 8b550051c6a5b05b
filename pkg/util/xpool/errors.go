package xpool

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidWorkers  = errors.New("xpool: invalid worker count")
	ErrInvalidCapacity = errors.New("xpool: invalid capacity")

	// ErrQueueFull 表示落点 worker 已满载，任务未被接收。
	ErrQueueFull = errors.New("xpool: queue is full")

	// ErrPoolStopped 表示 Pool 已开始关闭。
	ErrPoolStopped = errors.New("xpool: pool is stopped")

	// ErrTaskExited 是任务调用 runtime.Goexit 时记入 PanicError 的值
	ErrTaskExited = errors.New("xpool: task called runtime.Goexit")

	ErrNilTask    = errors.New("xpool: nil task")
	ErrNilContext = errors.New("xpool: nil context")
)

// PanicError 描述一个在 worker 内 panic 的任务。
// 仅用于日志和观测，不会返回给提交方。
type PanicError struct {
	Worker int
	Value  any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("xpool: task panicked on worker %d: %v", e.Worker, e.Value)
}

// Unwrap 在 panic 值本身是 error 时返回它。
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
