// Package xrotate 提供按大小轮转的日志文件写入器。
//
// [NewLumberjack] 基于 gopkg.in/natefinch/lumberjack.v2，返回的 [Rotator]
// 是 io.WriteCloser，可直接作为 xlog 的输出目标：
//
//	r, err := xrotate.NewLumberjack("/var/log/xserve/xserve.log",
//	    xrotate.WithMaxSize(100),
//	    xrotate.WithMaxBackups(3),
//	)
//
// 所有实现都是并发安全的。Close 之后 Write 和 Rotate 返回 [ErrClosed]。
package xrotate

import (
	"errors"
	"io"
)

var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器
type Rotator interface {
	io.WriteCloser

	// Rotate 立即关闭当前文件、将其改名为备份并打开新文件
	Rotate() error
}

var (
	ErrEmptyFilename     = errors.New("xrotate: filename is required")
	ErrInvalidMaxSize    = errors.New("xrotate: invalid max size")
	ErrInvalidMaxBackups = errors.New("xrotate: invalid max backups")
	ErrInvalidMaxAge     = errors.New("xrotate: invalid max age")
	// ErrNoCleanupPolicy 表示 MaxBackups 与 MaxAge 同时为 0，备份会无限增长
	ErrNoCleanupPolicy = errors.New("xrotate: no cleanup policy configured")
	ErrClosed          = errors.New("xrotate: rotator is closed")
)
