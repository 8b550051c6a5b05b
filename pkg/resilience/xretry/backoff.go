package xretry

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// Backoff 计算第 attempt 次失败（从 1 开始）之后的等待时间
type Backoff interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff delay = initial * multiplier^(attempt-1)，叠加 ±jitter 比例抖动，
// 不超过 max。
type ExponentialBackoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// DefaultBackoff 50ms 起步，翻倍，上限 2s，10% 抖动
func DefaultBackoff() ExponentialBackoff {
	return ExponentialBackoff{
		Initial:    50 * time.Millisecond,
		Max:        2 * time.Second,
		Multiplier: 2,
		Jitter:     0.1,
	}
}

func (b ExponentialBackoff) NextDelay(attempt int) time.Duration {
	attempt = max(attempt, 1)
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	delay := float64(b.Initial) * math.Pow(mult, float64(attempt-1))
	if b.Jitter > 0 {
		delay *= 1 + (randFloat()*2-1)*min(b.Jitter, 1)
	}
	// Pow 溢出为 +Inf 后与 0 相乘得到 NaN，NaN 的比较恒为 false
	if math.IsNaN(delay) || delay < 0 || delay >= float64(b.Max) {
		return max(b.Max, 0)
	}
	return time.Duration(delay)
}

// randFloat 返回 [0,1)，crypto/rand 失败时返回 0.5（无抖动）
func randFloat() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0.5
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) / (1 << 53)
}
