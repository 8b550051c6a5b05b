package xnet

import (
	"net"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// AllowList 来源地址白名单，只读，可并发使用。
type AllowList struct {
	set *netipx.IPSet
}

// ParseAllowList 解析一组范围，空字符串被忽略。
// 没有任何有效条目时返回 nil（放行所有地址）。
func ParseAllowList(entries []string) (*AllowList, error) {
	var b netipx.IPSetBuilder
	n := 0
	for _, e := range entries {
		if strings.TrimSpace(e) == "" {
			continue
		}
		r, err := ParseRange(e)
		if err != nil {
			return nil, err
		}
		b.AddRange(r)
		n++
	}
	if n == 0 {
		return nil, nil
	}
	set, err := b.IPSet()
	if err != nil {
		return nil, err
	}
	return &AllowList{set: set}, nil
}

// Contains 判断 addr 是否在白名单内。nil 白名单放行一切，无效地址一律拒绝。
func (l *AllowList) Contains(addr netip.Addr) bool {
	if l == nil || l.set == nil {
		return true
	}
	if !addr.IsValid() {
		return false
	}
	return l.set.Contains(addr.Unmap().WithZone(""))
}

// AllowsConn 按连接的远端地址判断，非 TCP/UDP 地址只在 nil 白名单下放行。
func (l *AllowList) AllowsConn(remote net.Addr) bool {
	if l == nil || l.set == nil {
		return true
	}
	var ap netip.AddrPort
	switch a := remote.(type) {
	case *net.TCPAddr:
		ap = a.AddrPort()
	case *net.UDPAddr:
		ap = a.AddrPort()
	default:
		return false
	}
	return l.Contains(ap.Addr())
}

// Prefixes 返回合并后的最小 CIDR 集合，用于日志展示
func (l *AllowList) Prefixes() []netip.Prefix {
	if l == nil || l.set == nil {
		return nil
	}
	return l.set.Prefixes()
}

func (l *AllowList) String() string {
	ps := l.Prefixes()
	if ps == nil {
		return "*"
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}
