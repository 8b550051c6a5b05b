package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xserve/pkg/config/xconf"
	"github.com/omeyang/xserve/pkg/lifecycle/xrun"
	"github.com/omeyang/xserve/pkg/observability/xlog"
	"github.com/omeyang/xserve/pkg/observability/xmetrics"
	"github.com/omeyang/xserve/pkg/observability/xsampling"
	"github.com/omeyang/xserve/pkg/server/xhttpd"
	"github.com/omeyang/xserve/pkg/util/xjson"
	"github.com/omeyang/xserve/pkg/util/xlru"
	"github.com/omeyang/xserve/pkg/util/xnet"
	"github.com/omeyang/xserve/pkg/util/xpool"
	"github.com/omeyang/xserve/pkg/util/xsys"
)

const adminShutdownTimeout = 5 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "启动服务器",
		Flags:  serveFlags(),
		Action: serve,
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, file, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := buildLogger(cmd, cfg.Log)
	if err != nil {
		return &usageError{err: err}
	}
	defer func() { _ = closeLog() }()
	xlog.SetDefault(logger)

	if cfg.Server.FileLimit > 0 {
		got, err := xsys.EnsureFileLimit(cfg.Server.FileLimit)
		switch {
		case err != nil:
			logger.Warn(ctx, "raise file limit failed", xlog.Err(err))
		case got < cfg.Server.FileLimit:
			logger.Warn(ctx, "file limit capped by hard limit",
				slog.Uint64("want", cfg.Server.FileLimit), slog.Uint64("got", got))
		}
	}

	routes, err := xhttpd.BuildRoutes(cfg.Server.Pages)
	if err != nil {
		return &usageError{err: err}
	}
	allow, err := xnet.ParseAllowList(cfg.Server.Allow)
	if err != nil {
		return &usageError{err: fmt.Errorf("server.allow: %w", err)}
	}

	observer, err := xmetrics.NewOTelObserver()
	if err != nil {
		return err
	}

	stop := xrun.NewStopFlag()
	opts := []xhttpd.Option{
		xhttpd.WithLogger(logger),
		xhttpd.WithObserver(observer),
		xhttpd.WithStopFlag(stop),
		xhttpd.WithAllowList(allow),
	}
	if cfg.Log.AccessSample > 0 {
		sampler, err := xsampling.FromRate(cfg.Log.AccessSample)
		if err != nil {
			return &usageError{err: err}
		}
		opts = append(opts, xhttpd.WithAccessLog(sampler))
	}
	if cfg.Server.CacheSize > 0 {
		cache, err := xlru.New[string, []byte](xlru.Config{Size: cfg.Server.CacheSize, TTL: cfg.Server.CacheTTL}, nil)
		if err != nil {
			return &usageError{err: fmt.Errorf("server.cache: %w", err)}
		}
		defer cache.Close()
		opts = append(opts, xhttpd.WithCache(cache))
	}

	pool, err := xpool.New(cfg.Pool.Workers, cfg.Pool.Capacity,
		xpool.WithLogger(logger),
		xpool.WithName("http"),
		xpool.WithObserver(observer),
	)
	if err != nil {
		return &usageError{err: err}
	}
	srv, err := xhttpd.New(cfg.Server, routes, pool, opts...)
	if err != nil {
		pool.Shutdown()
		return &usageError{err: err}
	}

	services := []xrun.Service{srv}
	if cfg.Admin.Address != "" {
		services = append(services, xrun.ServiceFunc(xrun.HTTPServer(adminServer(cfg.Admin.Address, srv, stop), adminShutdownTimeout)))
	}
	if cfg.Stats.Interval > 0 {
		services = append(services, xrun.ServiceFunc(xrun.Ticker(cfg.Stats.Interval, false, func(ctx context.Context) error {
			logStats(ctx, logger, srv.Stats())
			return nil
		})))
	}
	if file != nil && !cmd.IsSet(flagLogLevel) {
		w, err := xconf.Watch(file, levelReloader(ctx, logger))
		if err != nil {
			logger.Warn(ctx, "config watch disabled", xlog.Err(err))
		} else {
			services = append(services, w)
		}
	}

	return xrun.RunServicesWithOptions(ctx, []xrun.Option{
		xrun.WithLogger(logger),
		xrun.WithName("xserve"),
		xrun.WithStopFlag(stop),
	}, services...)
}

func buildLogger(cmd *cli.Command, c logConfig) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().
		SetOutput(cmd.Root().ErrWriter).
		SetLevelString(c.Level).
		SetFormat(c.Format)
	if c.File != "" {
		b = b.SetRotation(c.File)
	}
	return b.Build()
}

// levelReloader 配置文件变更后只应用 log.level，其余配置需要重启
func levelReloader(ctx context.Context, logger xlog.LoggerWithLevel) xconf.WatchCallback {
	return func(cfg xconf.Config, err error) {
		if err != nil {
			logger.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		s := cfg.Client().String("log.level")
		if s == "" {
			return
		}
		lvl, err := xlog.ParseLevel(s)
		if err != nil {
			logger.Warn(ctx, "ignore invalid log.level", xlog.Err(err))
			return
		}
		if lvl != logger.GetLevel() {
			logger.SetLevel(lvl)
			logger.Info(ctx, "log level changed", slog.String("level", lvl.String()))
		}
	}
}

func adminServer(addr string, srv *xhttpd.Server, stop *xrun.StopFlag) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = xjson.Encode(w, srv.Stats())
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if stop.Stopped() || srv.Addr() == nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

func logStats(ctx context.Context, logger xlog.Logger, st xhttpd.Stats) {
	attrs := []slog.Attr{
		slog.Uint64("accepted", st.Accepted),
		slog.Uint64("rejected", st.Rejected),
		slog.Uint64("denied", st.Denied),
		slog.Uint64("served", st.Served),
		slog.Uint64("failed", st.Failed),
		slog.Uint64("panicked", st.Pool.Panicked),
		slog.Any("pending", st.Pool.Pending),
	}
	if st.Cache != nil {
		attrs = append(attrs, slog.Uint64("cache_hits", st.Cache.Hits), slog.Uint64("cache_misses", st.Cache.Misses))
	}
	logger.Info(ctx, "stats", attrs...)
}
