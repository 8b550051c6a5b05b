package xhttpd

import (
	"github.com/omeyang/xserve/pkg/lifecycle/xrun"
	"github.com/omeyang/xserve/pkg/observability/xlog"
	"github.com/omeyang/xserve/pkg/observability/xmetrics"
	"github.com/omeyang/xserve/pkg/observability/xsampling"
	"github.com/omeyang/xserve/pkg/resilience/xretry"
	"github.com/omeyang/xserve/pkg/util/xlru"
	"github.com/omeyang/xserve/pkg/util/xnet"
)

// Option 配置 Server
type Option func(*Server)

func WithLogger(l xlog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithObserver(o xmetrics.Observer) Option {
	return func(s *Server) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithStopFlag 共享外部的停止标志。不设置时 Server 使用自己的标志，
// 只能通过 ctx 或 [Server.Stop] 停止。
func WithStopFlag(f *xrun.StopFlag) Option {
	return func(s *Server) {
		if f != nil {
			s.stop = f
		}
	}
}

// WithAllowList 只接受白名单内的来源地址
func WithAllowList(l *xnet.AllowList) Option {
	return func(s *Server) { s.allow = l }
}

// WithCache 用 c 缓存页面内容，键为文件路径。c 的生命周期由调用方管理。
func WithCache(c *xlru.Cache[string, []byte]) Option {
	return func(s *Server) { s.cache = c }
}

// WithRetryer 设置绑定端口时的重试策略
func WithRetryer(r *xretry.Retryer) Option {
	return func(s *Server) {
		if r != nil {
			s.retryer = r
		}
	}
}

// WithAccessLog 对被 sampler 选中的连接以 Info 级别输出访问日志，
// 采样 key 为连接 id。未设置时请求日志只在 Debug 级别输出。
func WithAccessLog(sampler xsampling.Sampler) Option {
	return func(s *Server) { s.access = sampler }
}
