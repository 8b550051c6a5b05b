package xhttpd

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// 环境变量名与默认值，与命令行参数共用。
const (
	EnvAddress = "XSERVE_ADDRESS"
	EnvPort    = "XSERVE_PORT"

	DefaultAddress      = "127.0.0.1"
	DefaultPort         = 7879
	DefaultPages        = "./pages"
	DefaultPollInterval = 50 * time.Millisecond
	DefaultIOTimeout    = 10 * time.Second
	DefaultCacheSize    = 256
	DefaultCacheTTL     = 30 * time.Second
)

// Config 服务器配置，对应配置文件的 server 段。
type Config struct {
	Address string `koanf:"address" json:"address"`
	// Port 为 0 时由系统分配端口
	Port  int    `koanf:"port" json:"port"`
	Pages string `koanf:"pages" json:"pages"`

	// PollInterval 是 Accept 的超时，即停止标志的最大观察延迟
	PollInterval time.Duration `koanf:"poll_interval" json:"poll_interval"`
	// IOTimeout 限制单个连接的读写总时长，任务因此不会无限占用 worker
	IOTimeout time.Duration `koanf:"io_timeout" json:"io_timeout"`

	// Allow 来源地址白名单（IP、CIDR 或区间），为空放行所有地址
	Allow []string `koanf:"allow" json:"allow"`
	// FileLimit 启动时确保的最小打开文件数，0 表示不调整
	FileLimit uint64 `koanf:"file_limit" json:"file_limit"`

	// CacheSize 为 0 时不缓存页面内容
	CacheSize int           `koanf:"cache_size" json:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl" json:"cache_ttl"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Address:      DefaultAddress,
		Port:         DefaultPort,
		Pages:        DefaultPages,
		PollInterval: DefaultPollInterval,
		IOTimeout:    DefaultIOTimeout,
		CacheSize:    DefaultCacheSize,
		CacheTTL:     DefaultCacheTTL,
	}
}

// Addr 返回 host:port
func (c Config) Addr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// Validate 在启动前检查配置
func (c Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, c.PollInterval)
	}
	if c.IOTimeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.IOTimeout)
	}
	if c.CacheSize < 0 || c.CacheTTL < 0 {
		return fmt.Errorf("%w: size %d ttl %s", ErrInvalidCache, c.CacheSize, c.CacheTTL)
	}
	return nil
}
