// Package xjson 格式化 JSON 输出，用于管理端点、命令行输出与调试日志。
package xjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var ErrMarshal = errors.New("xjson: marshal failed")

// PrettyE 返回两空格缩进的 JSON
func PrettyE(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMarshal, err)
	}
	return string(data), nil
}

// Pretty 失败时返回 "<marshal error: ...>"，不是合法 JSON，便于在日志中识别。
func Pretty(v any) string {
	s, err := PrettyE(v)
	if err != nil {
		return fmt.Sprintf("<marshal error: %v>", err)
	}
	return s
}

// Encode 把 v 以缩进格式写入 w，末尾带换行。不转义 HTML 字符。
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		var ute *json.UnsupportedTypeError
		var uve *json.UnsupportedValueError
		if errors.As(err, &ute) || errors.As(err, &uve) {
			return fmt.Errorf("%w: %w", ErrMarshal, err)
		}
		return err
	}
	return nil
}
