package xpool

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultWorkers 默认 worker 数量
	DefaultWorkers = 4
	// DefaultCapacity 每个 worker 的默认容量，整池可吸收 DefaultCapacity × workers 的突发
	DefaultCapacity = 4

	maxWorkers  = 1 << 16
	maxCapacity = 1 << 24
)

var _ io.Closer = (*Pool)(nil)

// Task 一次性、无返回值的工作单元，由恰好一个 worker 执行恰好一次。
type Task func()

// job 是入队的 Task 及其入队时间
type job struct {
	fn     Task
	queued time.Time
}

// Pool 轮询分发任务的固定大小 worker 池。
//
// Pool 只是句柄：worker goroutine 持有内部的 state 而不引用 Pool，
// 因此未关闭的 Pool 不可达时能被 runtime.AddCleanup 感知。
type Pool struct {
	s *state
}

// state 由 Pool 句柄和所有 worker 共享。
type state struct {
	opts     options
	capacity int64

	// queues[i] 只有 worker i 读取；发送方必须持有 mu 读锁并确认 closed 为 false。
	queues  []chan job
	pending []paddedCounter

	// cursor 下一次提交的落点序号，溢出回绕无害
	cursor atomic.Uint64

	mu     sync.RWMutex
	closed bool

	running atomic.Int64
	done    chan struct{}

	submitted atomic.Uint64
	rejected  atomic.Uint64
	completed atomic.Uint64
	panicked  atomic.Uint64
}

// paddedCounter 独占缓存行，避免相邻 worker 的计数互相伪共享。
type paddedCounter struct {
	n atomic.Int64
	_ [56]byte
}

// New 创建并启动 workers 个 worker，每个 worker 最多持有 capacity 个未完成任务。
// 参数越界时返回错误且不启动任何 goroutine。
func New(workers, capacity int, opts ...Option) (*Pool, error) {
	if workers < 1 || workers > maxWorkers {
		return nil, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidWorkers, workers, maxWorkers)
	}
	if capacity < 1 || capacity > maxCapacity {
		return nil, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidCapacity, capacity, maxCapacity)
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	o.logger = o.logger.With(poolAttr(o.name))

	s := &state{
		opts:     o,
		capacity: int64(capacity),
		queues:   make([]chan job, workers),
		pending:  make([]paddedCounter, workers),
		done:     make(chan struct{}),
	}
	for i := range s.queues {
		s.queues[i] = make(chan job, capacity)
	}

	s.running.Store(int64(workers))
	for i := range workers {
		go s.work(i)
	}

	p := &Pool{s: s}
	runtime.AddCleanup(p, func(s *state) { s.close() }, s)
	return p, nil
}

// Submit 按轮询选择一个 worker 并尝试非阻塞入队。
//
// 入队成功返回 true；落点 worker 满载、Pool 已关闭或 task 为 nil 时返回 false，
// 此时任务仍归调用方所有。Submit 从不阻塞，也不会改投其他 worker。
func (p *Pool) Submit(task Task) bool {
	return p.s.submit(task) == nil
}

// TrySubmit 与 Submit 相同，但返回拒绝原因：
// [ErrQueueFull]、[ErrPoolStopped] 或 [ErrNilTask]。
func (p *Pool) TrySubmit(task Task) error {
	return p.s.submit(task)
}

func (s *state) submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}

	// 读锁与 Shutdown 中的 close(queues) 互斥：向 channel 发送不能与关闭并发
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.rejected.Add(1)
		return ErrPoolStopped
	}

	i := int((s.cursor.Add(1) - 1) % uint64(len(s.queues)))
	pc := &s.pending[i].n
	if pc.Add(1) > s.capacity {
		pc.Add(-1)
		s.rejected.Add(1)
		return ErrQueueFull
	}
	// pending 不超过 capacity，channel 缓冲必有空位
	select {
	case s.queues[i] <- job{fn: task, queued: time.Now()}:
		s.submitted.Add(1)
		return nil
	default:
		pc.Add(-1)
		s.rejected.Add(1)
		return ErrQueueFull
	}
}

// close 标记关闭并关闭所有 channel，幂等。返回是否为首次调用。
func (s *state) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	for _, q := range s.queues {
		close(q)
	}
	return true
}

// Shutdown 停止接收新任务并关闭所有 channel，阻塞直到每个 worker
// 执行完已入队任务并退出。可重复调用。不设等待上限。
func (p *Pool) Shutdown() {
	p.s.close()
	<-p.s.done
}

// ShutdownContext 与 Shutdown 相同，但最多等到 ctx 结束。
// ctx 先结束时返回 ctx.Err()，worker 仍在后台继续耗尽队列，可通过 Done 等待。
func (p *Pool) ShutdownContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	p.s.close()
	select {
	case <-p.s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 实现 io.Closer，等价于 Shutdown。
func (p *Pool) Close() error {
	p.Shutdown()
	return nil
}

// Done 返回在所有 worker 退出后关闭的 channel。
func (p *Pool) Done() <-chan struct{} {
	return p.s.done
}

// Stopped 报告 Pool 是否已开始关闭。
func (p *Pool) Stopped() bool {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	return p.s.closed
}

func (p *Pool) Name() string { return p.s.opts.name }

func (p *Pool) Workers() int { return len(p.s.queues) }

func (p *Pool) Capacity() int { return int(p.s.capacity) }

// Running 返回仍在运行的 worker 数量。
func (p *Pool) Running() int { return int(p.s.running.Load()) }

// Pending 返回 worker i 已接收但未完成的任务数，i 越界时返回 0。
func (p *Pool) Pending(i int) int {
	if i < 0 || i >= len(p.s.pending) {
		return 0
	}
	return int(p.s.pending[i].n.Load())
}

// Stats 返回计数快照。各字段分别读取，彼此之间不保证一致。
func (p *Pool) Stats() Stats {
	s := p.s
	st := Stats{
		Name:      s.opts.name,
		Workers:   len(s.queues),
		Capacity:  int(s.capacity),
		Running:   int(s.running.Load()),
		Submitted: s.submitted.Load(),
		Rejected:  s.rejected.Load(),
		Completed: s.completed.Load(),
		Panicked:  s.panicked.Load(),
		Pending:   make([]int, len(s.pending)),
	}
	for i := range s.pending {
		st.Pending[i] = int(s.pending[i].n.Load())
	}
	return st
}

// Stats Pool 运行计数
type Stats struct {
	Name     string `json:"name"`
	Workers  int    `json:"workers"`
	Capacity int    `json:"capacity"`
	Running  int    `json:"running"`
	// Submitted 被接收的任务数
	Submitted uint64 `json:"submitted"`
	Rejected  uint64 `json:"rejected"`
	// Completed 执行结束的任务数，含 panic 的任务
	Completed uint64 `json:"completed"`
	Panicked  uint64 `json:"panicked"`
	Pending   []int  `json:"pending"`
}
