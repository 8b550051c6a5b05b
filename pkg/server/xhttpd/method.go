package xhttpd

// Method HTTP 请求方法
type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodPatch   Method = "PATCH"
)

// ParseMethod 识别标准方法名，区分大小写："get" 与 "Get" 都不是方法。
func ParseMethod(s string) (Method, bool) {
	switch m := Method(s); m {
	case MethodGet, MethodHead, MethodPost, MethodPut, MethodDelete,
		MethodConnect, MethodOptions, MethodTrace, MethodPatch:
		return m, true
	default:
		return "", false
	}
}

func (m Method) String() string { return string(m) }

// servable 只有 GET 与 HEAD 能读取静态页面
func (m Method) servable() bool {
	return m == MethodGet || m == MethodHead
}
