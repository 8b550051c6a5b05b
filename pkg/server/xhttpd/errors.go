package xhttpd

import "errors"

var (
	ErrInvalidAddress  = errors.New("xhttpd: invalid listen address")
	ErrInvalidPort     = errors.New("xhttpd: port must be in [0, 65535]")
	ErrInvalidInterval = errors.New("xhttpd: poll interval must be positive")
	ErrInvalidTimeout  = errors.New("xhttpd: io timeout must be positive")
	ErrInvalidCache    = errors.New("xhttpd: invalid cache settings")
	ErrPagesNotDir     = errors.New("xhttpd: pages path is not a directory")
	ErrNilRoutes       = errors.New("xhttpd: nil routes")
	ErrNilPool         = errors.New("xhttpd: nil pool")
	ErrRunTwice        = errors.New("xhttpd: Run called more than once")
)
