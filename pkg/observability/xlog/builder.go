package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/omeyang/xserve/pkg/observability/xrotate"
)

// Builder 构建 Logger。
//
// 所有 Set 方法可链式调用，第一个错误会被记住并由 Build 返回。
// Builder 不是并发安全的，且只应 Build 一次。
type Builder struct {
	output    io.Writer
	level     *slog.LevelVar
	format    string
	addSource bool
	onError   func(error)

	rotateFile string
	rotateOpts []xrotate.Option

	err error
}

// New 创建 Builder：stderr、Info 级别、text 格式。
func New() *Builder {
	return &Builder{
		output: os.Stderr,
		level:  new(slog.LevelVar),
		format: "text",
	}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// SetOutput 设置输出目标。与 SetRotation 互斥，后设置者生效。
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w == nil {
		return b.fail(ErrNilOutput)
	}
	b.output = w
	b.rotateFile = ""
	return b
}

func (b *Builder) SetLevel(level Level) *Builder {
	b.level.Set(slog.Level(level))
	return b
}

// SetLevelString 按字符串设置级别（debug/info/warn/error）。
func (b *Builder) SetLevelString(s string) *Builder {
	lv, err := ParseLevel(s)
	if err != nil {
		return b.fail(err)
	}
	return b.SetLevel(lv)
}

// SetFormat 设置输出格式：text 或 json。
func (b *Builder) SetFormat(format string) *Builder {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "", "text":
		b.format = "text"
	case "json":
		b.format = "json"
	default:
		return b.fail(fmt.Errorf("%w: %q", ErrUnknownFormat, format))
	}
	return b
}

func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetRotation 输出到按大小轮转的文件。文件在 Build 时打开。
func (b *Builder) SetRotation(filename string, opts ...xrotate.Option) *Builder {
	b.rotateFile = filename
	b.rotateOpts = opts
	return b
}

// SetOnError 设置 Handler 写入失败时的回调。
// 回调不得向同一 Logger 写日志。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// Build 返回 Logger、释放资源的 cleanup 函数（幂等）和配置错误。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	out := b.output
	var closer io.Closer
	if b.rotateFile != "" {
		r, err := xrotate.NewLumberjack(b.rotateFile, b.rotateOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("xlog: rotation: %w", err)
		}
		out, closer = r, r
	}

	opts := &slog.HandlerOptions{Level: b.level, AddSource: b.addSource}
	var h slog.Handler
	if b.format == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}

	var once sync.Once
	cleanup := func() error {
		var err error
		once.Do(func() {
			if closer != nil {
				err = closer.Close()
			}
		})
		return err
	}
	return newLogger(h, b.level, b.addSource, b.onError), cleanup, nil
}
