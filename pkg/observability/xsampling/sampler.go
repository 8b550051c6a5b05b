package xsampling

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

var (
	ErrInvalidRate  = errors.New("xsampling: rate must be within [0, 1]")
	ErrInvalidCount = errors.New("xsampling: count must be positive")
)

// Sampler 所有实现并发安全
type Sampler interface {
	ShouldSample(key string) bool
}

type constSampler bool

func (s constSampler) ShouldSample(string) bool { return bool(s) }

// Always 总是采样
func Always() Sampler { return constSampler(true) }

// Never 从不采样
func Never() Sampler { return constSampler(false) }

// RateSampler 按 key 哈希的固定比率采样
type RateSampler struct {
	rate float64
	// threshold 哈希值小于它即采样
	threshold uint64
}

func NewRateSampler(rate float64) (*RateSampler, error) {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	s := &RateSampler{rate: rate}
	if rate < 1 {
		s.threshold = uint64(rate * (1 << 63) * 2)
	}
	return s, nil
}

func (s *RateSampler) ShouldSample(key string) bool {
	switch {
	case s.rate <= 0:
		return false
	case s.rate >= 1:
		return true
	case key == "":
		return rand.Float64() < s.rate
	}
	return xxhash.Sum64String(key) < s.threshold
}

func (s *RateSampler) Rate() float64 { return s.rate }

// CountSampler 每 n 次调用采样一次，第一次调用即采样
type CountSampler struct {
	n     uint64
	count atomic.Uint64
}

func NewCountSampler(n int) (*CountSampler, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	return &CountSampler{n: uint64(n)}, nil
}

func (s *CountSampler) ShouldSample(string) bool {
	return (s.count.Add(1)-1)%s.n == 0
}

// FromRate 把比率转换为 Sampler：0 为 Never，1 为 Always，其余为 RateSampler。
func FromRate(rate float64) (Sampler, error) {
	switch rate {
	case 0:
		return Never(), nil
	case 1:
		return Always(), nil
	}
	return NewRateSampler(rate)
}
