package xrun

import (
	"sync"
	"sync/atomic"
)

// StopFlag 进程级停止标志：初始为 false，只能被置位一次，永不复位。
//
// Stopped 只做一次原子读，适合在热循环中轮询；Done 供需要阻塞等待的一方使用。
// 零值不可用，请使用 NewStopFlag。
type StopFlag struct {
	set   atomic.Bool
	once  sync.Once
	done  chan struct{}
	cause atomic.Pointer[error]
}

// NewStopFlag 创建未置位的 StopFlag
func NewStopFlag() *StopFlag {
	return &StopFlag{done: make(chan struct{})}
}

// Stop 置位标志并记录原因。只有第一次调用返回 true，之后的调用不产生任何效果。
func (f *StopFlag) Stop(cause error) bool {
	first := false
	f.once.Do(func() {
		first = true
		if cause != nil {
			f.cause.Store(&cause)
		}
		f.set.Store(true)
		close(f.done)
	})
	return first
}

// Stopped 报告标志是否已置位
func (f *StopFlag) Stopped() bool {
	return f.set.Load()
}

// Done 返回在置位时关闭的 channel
func (f *StopFlag) Done() <-chan struct{} {
	return f.done
}

// Cause 返回第一次 Stop 传入的原因，未置位或原因为 nil 时返回 nil
func (f *StopFlag) Cause() error {
	if p := f.cause.Load(); p != nil {
		return *p
	}
	return nil
}
