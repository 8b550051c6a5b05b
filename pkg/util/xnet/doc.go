// Package xnet 解析 IP 范围并构造来源地址白名单，基于 net/netip 与 go4.org/netipx。
//
// 支持的范围写法：
//
//	192.168.1.10               单个地址
//	10.0.0.0/8                 CIDR（主机位会被清零）
//	192.168.1.1-192.168.1.100  闭区间
//
// [AllowList] 用 [*netipx.IPSet] 存储合并后的范围，查询为 O(log n)。
// 零值或 nil 的 AllowList 放行所有地址。
package xnet
