package xnet

import (
	"fmt"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// ParseRange 解析单个地址、CIDR 或 "start-end" 区间，忽略首尾空白。
// IPv4-mapped IPv6 地址按 IPv4 处理。
func ParseRange(s string) (netipx.IPRange, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "%") {
		return netipx.IPRange{}, fmt.Errorf("%w: %q", ErrZoneNotSupported, s)
	}

	if from, to, ok := strings.Cut(s, "-"); ok {
		start, err := netip.ParseAddr(strings.TrimSpace(from))
		if err != nil {
			return netipx.IPRange{}, fmt.Errorf("%w: %q: %w", ErrInvalidRange, s, err)
		}
		end, err := netip.ParseAddr(strings.TrimSpace(to))
		if err != nil {
			return netipx.IPRange{}, fmt.Errorf("%w: %q: %w", ErrInvalidRange, s, err)
		}
		r := netipx.IPRangeFrom(start.Unmap(), end.Unmap())
		if !r.IsValid() {
			return netipx.IPRange{}, fmt.Errorf("%w: %q: start after end or mixed families", ErrInvalidRange, s)
		}
		return r, nil
	}

	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netipx.IPRange{}, fmt.Errorf("%w: %q: %w", ErrInvalidRange, s, err)
		}
		if p.Addr().Is4In6() && p.Bits() >= 96 {
			p = netip.PrefixFrom(p.Addr().Unmap(), p.Bits()-96)
		}
		return netipx.RangeOfPrefix(p.Masked()), nil
	}

	a, err := netip.ParseAddr(s)
	if err != nil {
		return netipx.IPRange{}, fmt.Errorf("%w: %q: %w", ErrInvalidRange, s, err)
	}
	a = a.Unmap()
	return netipx.IPRangeFrom(a, a), nil
}
