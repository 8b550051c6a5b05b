package xhttpd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xserve/pkg/lifecycle/xrun"
	"github.com/omeyang/xserve/pkg/observability/xlog"
	"github.com/omeyang/xserve/pkg/observability/xmetrics"
	"github.com/omeyang/xserve/pkg/observability/xsampling"
	"github.com/omeyang/xserve/pkg/resilience/xretry"
	"github.com/omeyang/xserve/pkg/util/xkeylock"
	"github.com/omeyang/xserve/pkg/util/xlru"
	"github.com/omeyang/xserve/pkg/util/xnet"
	"github.com/omeyang/xserve/pkg/util/xpool"
)

// rejectTimeout 接收循环回写 503 的上限，避免慢客户端拖住接收循环
const rejectTimeout = time.Second

var _ xrun.Service = (*Server)(nil)

// Server 静态页面服务器。Run 只能调用一次。
type Server struct {
	cfg    Config
	routes *Routes
	pool   *xpool.Pool

	logger   xlog.Logger
	observer xmetrics.Observer
	stop     *xrun.StopFlag
	allow    *xnet.AllowList
	cache    *xlru.Cache[string, []byte]
	loads    *xkeylock.Locker
	access   xsampling.Sampler
	retryer  *xretry.Retryer

	ready    chan struct{}
	addr     net.Addr
	runOnce  sync.Once
	accepted atomic.Uint64
	rejected atomic.Uint64
	denied   atomic.Uint64
	served   atomic.Uint64
	failed   atomic.Uint64
}

// New 创建 Server。pool 归 Server 所有：Run 返回前会调用 pool.Shutdown。
func New(cfg Config, routes *Routes, pool *xpool.Pool, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if routes == nil {
		return nil, ErrNilRoutes
	}
	if pool == nil {
		return nil, ErrNilPool
	}
	s := &Server{
		cfg:      cfg,
		routes:   routes,
		pool:     pool,
		logger:   xlog.Default(),
		observer: xmetrics.NoopObserver{},
		retryer:  xretry.New(),
		ready:    make(chan struct{}),
	}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	if s.stop == nil {
		s.stop = xrun.NewStopFlag()
	}
	if s.cache != nil {
		var err error
		if s.loads, err = xkeylock.New(0); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With(xlog.Component("xhttpd"))
	return s, nil
}

// Ready 在监听成功后关闭
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr 返回实际监听地址，Ready 之前返回 nil。
func (s *Server) Addr() net.Addr {
	select {
	case <-s.ready:
		return s.addr
	default:
		return nil
	}
}

// Stop 置位停止标志，接收循环在下一个轮询周期退出。
func (s *Server) Stop() { s.stop.Stop(nil) }

// Run 监听并运行接收循环，直到停止标志置位或 ctx 结束。
// 正常停止返回 nil；绑定失败返回绑定错误。
func (s *Server) Run(ctx context.Context) error {
	err := ErrRunTwice
	s.runOnce.Do(func() { err = s.run(ctx) })
	return err
}

func (s *Server) run(ctx context.Context) error {
	ln, err := s.listen(ctx)
	if err != nil {
		// 未监听也要释放 worker
		s.pool.Shutdown()
		return err
	}
	s.addr = ln.Addr()
	close(s.ready)
	s.logger.Info(ctx, "listening",
		slog.String("addr", s.addr.String()),
		slog.Int("routes", s.routes.Len()),
		slog.Int("workers", s.pool.Workers()),
		slog.Int("capacity", s.pool.Capacity()),
		slog.String("allow", s.allow.String()),
	)

	s.acceptLoop(ctx, ln)

	closeErr := ln.Close()
	start := time.Now()
	s.pool.Shutdown()
	if s.loads != nil {
		_ = s.loads.Close()
	}
	s.logger.Info(ctx, "server stopped",
		xlog.Duration(time.Since(start)),
		slog.Uint64("accepted", s.accepted.Load()),
		slog.Uint64("rejected", s.rejected.Load()),
	)
	if closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		return fmt.Errorf("xhttpd: close listener: %w", closeErr)
	}
	return nil
}

func (s *Server) listen(ctx context.Context) (net.Listener, error) {
	var lc net.ListenConfig
	addr := s.cfg.Addr()
	attempt := func(ctx context.Context) (net.Listener, error) {
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err == nil {
			return ln, nil
		}
		// 只有端口占用值得等待
		if errors.Is(err, syscall.EADDRINUSE) {
			s.logger.Warn(ctx, "address in use, retrying", slog.String("addr", addr))
			return nil, err
		}
		return nil, xretry.Permanent(err)
	}
	ln, err := xretry.DoWithResult(ctx, s.retryer, attempt)
	if err != nil {
		return nil, fmt.Errorf("xhttpd: listen %s: %w", addr, err)
	}
	return ln, nil
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

// acceptLoop 在每次 Accept 之间检查停止条件。ctx 结束也会置位停止标志，
// 使共享该标志的其他组件一并停止。
func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	dl, _ := ln.(deadliner)
	for {
		if ctx.Err() != nil {
			s.stop.Stop(context.Cause(ctx))
		}
		if s.stop.Stopped() {
			return
		}
		if dl != nil {
			_ = dl.SetDeadline(time.Now().Add(s.cfg.PollInterval))
		}
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn(ctx, "accept failed", xlog.Err(err))
			s.pause(ctx)
			continue
		}
		s.dispatch(ctx, conn)
	}
}

// pause 在 Accept 出错（如文件描述符耗尽）后等待一个轮询周期
func (s *Server) pause(ctx context.Context) {
	t := time.NewTimer(s.cfg.PollInterval)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	case <-s.stop.Done():
	}
}

func (s *Server) dispatch(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr()
	if !s.allow.AllowsConn(remote) {
		s.denied.Add(1)
		s.logger.Debug(ctx, "connection denied", xlog.Remote(remote.String()))
		_ = conn.Close()
		return
	}
	s.accepted.Add(1)

	id := uuid.NewString()
	// 任务可能在 ctx 取消后才执行（排空阶段），不能继承取消
	tctx := context.WithoutCancel(ctx)
	err := s.pool.TrySubmit(func() { s.serve(tctx, conn, id) })
	if err == nil {
		return
	}
	s.rejected.Add(1)
	s.logger.Debug(ctx, "connection rejected",
		xlog.ConnID(id), xlog.Remote(remote.String()), xlog.Err(err))
	_ = conn.SetDeadline(time.Now().Add(min(rejectTimeout, s.cfg.IOTimeout)))
	if werr := overloaded().writeTo(conn, false); werr != nil {
		s.logger.Debug(ctx, "write 503 failed", xlog.ConnID(id), xlog.Err(werr))
	}
	_ = conn.Close()
}

// Stats 服务器计数快照
type Stats struct {
	Addr string `json:"addr"`
	// Accepted 通过白名单的连接数，含被拒绝的
	Accepted uint64      `json:"accepted"`
	Rejected uint64      `json:"rejected"`
	Denied   uint64      `json:"denied"`
	Served   uint64      `json:"served"`
	Failed   uint64      `json:"failed"`
	Routes   int         `json:"routes"`
	Pool     xpool.Stats `json:"pool"`
	Cache    *xlru.Stats `json:"cache,omitempty"`
}

func (s *Server) Stats() Stats {
	st := Stats{
		Accepted: s.accepted.Load(),
		Rejected: s.rejected.Load(),
		Denied:   s.denied.Load(),
		Served:   s.served.Load(),
		Failed:   s.failed.Load(),
		Routes:   s.routes.Len(),
		Pool:     s.pool.Stats(),
	}
	if a := s.Addr(); a != nil {
		st.Addr = a.String()
	}
	if s.cache != nil {
		cs := s.cache.Stats()
		st.Cache = &cs
	}
	return st
}
