package xnet

import "errors"

var (
	ErrInvalidRange = errors.New("xnet: invalid IP range")
	// ErrZoneNotSupported IPSet 会丢弃 zone，带 zone 的规则会静默失配
	ErrZoneNotSupported = errors.New("xnet: IPv6 zone is not supported")
)
