package main

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xserve/pkg/config/xconf"
	"github.com/omeyang/xserve/pkg/observability/xlog"
	"github.com/omeyang/xserve/pkg/observability/xsampling"
	"github.com/omeyang/xserve/pkg/server/xhttpd"
	"github.com/omeyang/xserve/pkg/util/xpool"
)

// appConfig 完整配置。字段名即配置文件中的键。
type appConfig struct {
	Server xhttpd.Config `koanf:"server" json:"server"`
	Pool   poolConfig    `koanf:"pool" json:"pool"`
	Admin  adminConfig   `koanf:"admin" json:"admin"`
	Log    logConfig     `koanf:"log" json:"log"`
	Stats  statsConfig   `koanf:"stats" json:"stats"`
}

type poolConfig struct {
	Workers  int `koanf:"workers" json:"workers"`
	Capacity int `koanf:"capacity" json:"capacity"`
}

type adminConfig struct {
	// Address 为空时不启动管理端点
	Address string `koanf:"address" json:"address"`
}

type logConfig struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
	File   string `koanf:"file" json:"file"`
	// AccessSample 以 Info 级别输出访问日志的连接比例，0 关闭
	AccessSample float64 `koanf:"access_sample" json:"access_sample"`
}

type statsConfig struct {
	// Interval 为 0 时不定期输出统计日志
	Interval time.Duration `koanf:"interval" json:"interval"`
}

func defaultConfig() appConfig {
	return appConfig{
		Server: xhttpd.DefaultConfig(),
		Pool:   poolConfig{Workers: xpool.DefaultWorkers, Capacity: xpool.DefaultCapacity},
		Log:    logConfig{Level: "info", Format: "text"},
	}
}

// usageError 参数或配置错误，退出码 2
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usage(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// loadConfig 依次叠加默认值、配置文件、环境变量与命令行参数。
// 环境变量由 flag 的 Sources 读取，与命令行参数走同一条路径，
// 因此只需判断 flag 是否被设置。
func loadConfig(cmd *cli.Command) (appConfig, xconf.Config, error) {
	c := defaultConfig()

	var file xconf.Config
	if path := cmd.String(flagConfig); path != "" {
		var err error
		if file, err = xconf.New(path); err != nil {
			return c, nil, &usageError{err: err}
		}
		if err := file.Unmarshal("", &c); err != nil {
			return c, nil, &usageError{err: err}
		}
	}

	applyFlags(cmd, &c)
	if err := c.validate(); err != nil {
		return c, nil, &usageError{err: err}
	}
	return c, file, nil
}

func applyFlags(cmd *cli.Command, c *appConfig) {
	setString := func(name string, dst *string) {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}
	setInt := func(name string, dst *int) {
		if cmd.IsSet(name) {
			*dst = cmd.Int(name)
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if cmd.IsSet(name) {
			*dst = cmd.Duration(name)
		}
	}

	setString(flagPages, &c.Server.Pages)
	setString(flagLogLevel, &c.Log.Level)
	setString(flagLogFormat, &c.Log.Format)
	setString(flagLogFile, &c.Log.File)

	setString(flagAddress, &c.Server.Address)
	setInt(flagPort, &c.Server.Port)
	setInt(flagWorkers, &c.Pool.Workers)
	setInt(flagCapacity, &c.Pool.Capacity)
	setDuration(flagPollInterval, &c.Server.PollInterval)
	setDuration(flagIOTimeout, &c.Server.IOTimeout)
	setInt(flagCacheSize, &c.Server.CacheSize)
	setDuration(flagCacheTTL, &c.Server.CacheTTL)
	setString(flagAdminAddress, &c.Admin.Address)
	if cmd.IsSet(flagAccessSample) {
		c.Log.AccessSample = cmd.Float64(flagAccessSample)
	}
	setDuration(flagStatsInterval, &c.Stats.Interval)
	if cmd.IsSet(flagAllow) {
		c.Server.Allow = cmd.StringSlice(flagAllow)
	}
	if cmd.IsSet(flagFileLimit) {
		c.Server.FileLimit = cmd.Uint64(flagFileLimit)
	}
}

func (c appConfig) validate() error {
	var errs []error
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Server.Pages == "" {
		errs = append(errs, errors.New("server.pages: empty"))
	}
	if c.Pool.Workers <= 0 {
		errs = append(errs, fmt.Errorf("pool.workers: %w", xpool.ErrInvalidWorkers))
	}
	if c.Pool.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("pool.capacity: %w", xpool.ErrInvalidCapacity))
	}
	if _, err := xlog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: %w: %q", xlog.ErrUnknownFormat, c.Log.Format))
	}
	if c.Log.AccessSample < 0 || c.Log.AccessSample > 1 || math.IsNaN(c.Log.AccessSample) {
		errs = append(errs, fmt.Errorf("log.access_sample: %w: %v", xsampling.ErrInvalidRate, c.Log.AccessSample))
	}
	if c.Stats.Interval < 0 {
		errs = append(errs, fmt.Errorf("stats.interval: negative %s", c.Stats.Interval))
	}
	return errors.Join(errs...)
}
