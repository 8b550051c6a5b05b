//go:build unix

package xsys

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// 测试替换以覆盖错误路径，替换期间不可 t.Parallel()。
var (
	getrlimit = unix.Getrlimit
	setrlimit = unix.Setrlimit
)

// mu 串行化 getrlimit→setrlimit 的读改写
var mu sync.Mutex

// GetFileLimit 返回当前的 soft 与 hard limit。
func GetFileLimit() (soft, hard uint64, err error) {
	var rl unix.Rlimit
	if err := getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, 0, fmt.Errorf("xsys: getrlimit RLIMIT_NOFILE: %w", err)
	}
	return rl.Cur, rl.Max, nil
}

// SetFileLimit 把 soft limit 设为 limit。hard limit 不足时一并提升，
// 这需要 CAP_SYS_RESOURCE；hard limit 永不降低。
func SetFileLimit(limit uint64) error {
	if err := validateFileLimit(limit); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()

	var rl unix.Rlimit
	if err := getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return fmt.Errorf("xsys: getrlimit RLIMIT_NOFILE: %w", err)
	}
	rl.Cur = limit
	rl.Max = max(rl.Max, limit)
	if err := setrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return fmt.Errorf("xsys: setrlimit RLIMIT_NOFILE: %w", err)
	}
	return nil
}

// EnsureFileLimit 保证 soft limit 至少为 want，但不超过 hard limit，
// 返回调整后的 soft limit。已满足时不做系统调用写入。
//
// 返回值小于 want 说明 hard limit 不够，由调用方决定是否告警。
func EnsureFileLimit(want uint64) (uint64, error) {
	if err := validateFileLimit(want); err != nil {
		return 0, err
	}
	mu.Lock()
	defer mu.Unlock()

	var rl unix.Rlimit
	if err := getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, fmt.Errorf("xsys: getrlimit RLIMIT_NOFILE: %w", err)
	}
	if rl.Cur >= want {
		return rl.Cur, nil
	}
	rl.Cur = min(want, rl.Max)
	if err := setrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, fmt.Errorf("xsys: setrlimit RLIMIT_NOFILE: %w", err)
	}
	return rl.Cur, nil
}
