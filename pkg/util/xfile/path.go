// Package xfile 提供文件路径的规范化与安全拼接。
//
//   - [SanitizePath] 校验文件路径格式（空、空字节、".." 段、目录路径）
//   - [SafeJoin] 将相对路径拼接到基准目录，保证结果不逃逸出该目录
//   - [EnsureDir] 创建文件所在的父目录
//
// 本包只处理路径字符串，检查与实际打开文件之间存在 TOCTOU 窗口。
package xfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyPath     = errors.New("xfile: path is required")
	ErrInvalidPath   = errors.New("xfile: invalid path")
	ErrNullByte      = errors.New("xfile: path contains null byte")
	ErrPathTraversal = errors.New("xfile: path traversal detected")
	ErrPathEscaped   = errors.New("xfile: path escapes base directory")
)

// DefaultDirPerm 父目录默认权限
const DefaultDirPerm = 0o750

func hasDotDot(p string) bool {
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// SanitizePath 校验并规范化文件路径。
// 拒绝空路径、空字节、以分隔符结尾的目录路径和任何 ".." 路径段。
// 不限制路径所在目录，需要目录约束时使用 SafeJoin。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", ErrEmptyPath
	}
	if strings.IndexByte(filename, 0) >= 0 {
		return "", ErrNullByte
	}
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("%w: %q is a directory", ErrInvalidPath, filename)
	}
	cleaned := filepath.Clean(filename)
	if hasDotDot(cleaned) {
		return "", fmt.Errorf("%w: %q", ErrPathTraversal, filename)
	}
	if b := filepath.Base(cleaned); b == "." || b == string(filepath.Separator) {
		return "", fmt.Errorf("%w: no file name in %q", ErrInvalidPath, filename)
	}
	return cleaned, nil
}

// SafeJoin 将相对路径 rel 拼接到 base 下。
//
// rel 不能是绝对路径，也不能含 ".." 段；结果必定以 base 为前缀。
// 不解析符号链接。
func SafeJoin(base, rel string) (string, error) {
	if base == "" || rel == "" {
		return "", ErrEmptyPath
	}
	if strings.IndexByte(base, 0) >= 0 || strings.IndexByte(rel, 0) >= 0 {
		return "", ErrNullByte
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, rel)
	}
	if hasDotDot(rel) {
		return "", fmt.Errorf("%w: %q", ErrPathTraversal, rel)
	}
	cleanBase := filepath.Clean(base)
	joined := filepath.Join(cleanBase, rel)
	r, err := filepath.Rel(cleanBase, joined)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscaped, rel)
	}
	return joined, nil
}

// EnsureDir 以 DefaultDirPerm 创建 filename 的父目录，已存在时不报错。
func EnsureDir(filename string) error {
	if filename == "" {
		return ErrEmptyPath
	}
	if strings.IndexByte(filename, 0) >= 0 {
		return ErrNullByte
	}
	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, DefaultDirPerm)
}
