package main

import (
	"github.com/urfave/cli/v3"

	"github.com/omeyang/xserve/pkg/server/xhttpd"
)

const (
	flagConfig    = "config"
	flagPages     = "pages"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagLogFile   = "log-file"

	flagAddress       = "address"
	flagPort          = "port"
	flagWorkers       = "workers"
	flagCapacity      = "capacity"
	flagPollInterval  = "poll-interval"
	flagIOTimeout     = "io-timeout"
	flagAllow         = "allow"
	flagFileLimit     = "file-limit"
	flagCacheSize     = "cache-size"
	flagCacheTTL      = "cache-ttl"
	flagAdminAddress  = "admin-address"
	flagStatsInterval = "stats-interval"
	flagAccessSample  = "access-sample"
	flagJSON          = "json"
)

// 默认值不写在 flag 上：flag 只在被显式设置（命令行或环境变量）时覆盖配置文件。
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "配置文件路径（.yaml/.yml/.json）",
			Sources: cli.EnvVars("XSERVE_CONFIG"),
		},
		&cli.StringFlag{
			Name:    flagPages,
			Usage:   "页面目录（默认 " + xhttpd.DefaultPages + "）",
			Sources: cli.EnvVars("XSERVE_PAGES"),
		},
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "日志级别 debug|info|warn|error（默认 info）",
			Sources: cli.EnvVars("XSERVE_LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    flagLogFormat,
			Usage:   "日志格式 text|json（默认 text）",
			Sources: cli.EnvVars("XSERVE_LOG_FORMAT"),
		},
		&cli.StringFlag{
			Name:    flagLogFile,
			Usage:   "日志文件，按大小轮转；为空输出到 stderr",
			Sources: cli.EnvVars("XSERVE_LOG_FILE"),
		},
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagAddress,
			Aliases: []string{"a"},
			Usage:   "监听地址（默认 " + xhttpd.DefaultAddress + "）",
			Sources: cli.EnvVars(xhttpd.EnvAddress),
		},
		&cli.IntFlag{
			Name:    flagPort,
			Aliases: []string{"p"},
			Usage:   "监听端口，0 由系统分配（默认 7879）",
			Sources: cli.EnvVars(xhttpd.EnvPort),
		},
		&cli.IntFlag{
			Name:    flagWorkers,
			Aliases: []string{"w"},
			Usage:   "worker 数（默认 4）",
			Sources: cli.EnvVars("XSERVE_WORKERS"),
		},
		&cli.IntFlag{
			Name:    flagCapacity,
			Usage:   "每个 worker 的容量，含正在执行的任务（默认 4）",
			Sources: cli.EnvVars("XSERVE_CAPACITY"),
		},
		&cli.DurationFlag{
			Name:  flagPollInterval,
			Usage: "停止标志轮询周期（默认 50ms）",
		},
		&cli.DurationFlag{
			Name:  flagIOTimeout,
			Usage: "单个连接的读写时限（默认 10s）",
		},
		&cli.StringSliceFlag{
			Name:  flagAllow,
			Usage: "来源地址白名单，可重复（IP、CIDR 或 a-b 区间）",
		},
		&cli.Uint64Flag{
			Name:  flagFileLimit,
			Usage: "启动时确保的最小打开文件数",
		},
		&cli.IntFlag{
			Name:  flagCacheSize,
			Usage: "页面缓存条目数，0 关闭缓存（默认 256）",
		},
		&cli.DurationFlag{
			Name:  flagCacheTTL,
			Usage: "页面缓存有效期（默认 30s）",
		},
		&cli.StringFlag{
			Name:    flagAdminAddress,
			Usage:   "管理端点地址（/stats、/healthz），为空不启动",
			Sources: cli.EnvVars("XSERVE_ADMIN_ADDRESS"),
		},
		&cli.DurationFlag{
			Name:  flagStatsInterval,
			Usage: "统计日志间隔，0 关闭",
		},
		&cli.Float64Flag{
			Name:  flagAccessSample,
			Usage: "以 Info 级别输出访问日志的连接比例 [0, 1]，0 关闭",
		},
	}
}
