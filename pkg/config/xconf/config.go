// Package xconf 基于 koanf 加载 YAML/JSON 配置文件，并支持文件变更热加载。
//
//	cfg, err := xconf.New("/etc/xserve/xserve.yaml")
//	var c server.Config
//	err = cfg.Unmarshal("", &c)
//
// 热加载由 [Watcher] 完成：它监视配置文件所在目录，变更经防抖后调用
// Reload 并通知回调。Watcher 实现 Run(ctx) error，可直接交给 xrun 管理。
//
// 只负责"文件"这一层。默认值、环境变量与命令行参数的合并由调用方完成。
package xconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置格式
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var (
	ErrEmptyPath         = errors.New("xconf: empty config path")
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")
	ErrLoadFailed        = errors.New("xconf: failed to load config")
	ErrParseFailed       = errors.New("xconf: failed to parse config")
	ErrUnmarshalFailed   = errors.New("xconf: failed to unmarshal config")
	// ErrNotReloadable 从字节创建的配置不能 Reload 或 Watch
	ErrNotReloadable = errors.New("xconf: config is not backed by a file")
)

// Config 已加载的配置。所有方法并发安全。
type Config interface {
	// Client 返回当前的 koanf 实例。Reload 后会换成新实例。
	Client() *koanf.Koanf

	// Unmarshal 把 path 下的配置解到 target，path 为空表示整个配置。
	// 字段映射使用 `koanf` 标签。
	Unmarshal(path string, target any) error

	// Reload 重新读取文件。解析失败时保留旧配置。
	Reload() error

	Path() string
	Format() Format
}

const (
	delim = "."
	tag   = "koanf"
)

type koanfConfig struct {
	mu     sync.RWMutex
	k      *koanf.Koanf
	path   string
	format Format
}

// New 读取配置文件，格式由扩展名（.yaml/.yml/.json）决定。
func New(path string) (Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	c := &koanfConfig{path: path, format: format}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromBytes 从内存数据创建配置，空数据得到空配置。
func NewFromBytes(data []byte, format Format) (Config, error) {
	if format != FormatYAML && format != FormatJSON {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	k, err := parse(data, format)
	if err != nil {
		return nil, err
	}
	return &koanfConfig{k: k, format: format}, nil
}

func (c *koanfConfig) Client() *koanf.Koanf {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.k
}

func (c *koanfConfig) Unmarshal(path string, target any) error {
	k := c.Client()
	if err := k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

func (c *koanfConfig) Reload() error {
	if c.path == "" {
		return ErrNotReloadable
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := parse(data, c.format)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.k = k
	c.mu.Unlock()
	return nil
}

func (c *koanfConfig) Path() string { return c.path }

func (c *koanfConfig) Format() Format { return c.format }

func formatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
}

func parse(data []byte, format Format) (*koanf.Koanf, error) {
	k := koanf.New(delim)
	if len(data) == 0 {
		return k, nil
	}
	var p koanf.Parser = yaml.Parser()
	if format == FormatJSON {
		p = json.Parser()
	}
	if err := k.Load(rawbytes.Provider(data), p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}
