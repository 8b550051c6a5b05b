package xhttpd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxRequestBytes 请求行加头部的上限，超过视为畸形请求
const maxRequestBytes = 64 << 10

var errMalformed = errors.New("xhttpd: malformed request")

// request 解析后的请求，只保留路由所需字段
type request struct {
	method  Method
	target  string
	version string
}

// readRequest 读取一个请求的请求行与头部，主体被忽略。
//
// 连接在发送任何字节前关闭时返回 io.EOF。方法不是标准方法名时
// 返回 errMalformed：ParseMethod 区分大小写，"get" 不被当作方法。
func readRequest(r io.Reader) (*request, error) {
	br := bufio.NewReader(io.LimitReader(r, maxRequestBytes))
	if _, err := br.Peek(1); err != nil {
		return nil, err
	}
	req, err := http.ReadRequest(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}
	m, ok := ParseMethod(req.Method)
	if !ok {
		return nil, fmt.Errorf("%w: unknown method %q", errMalformed, req.Method)
	}
	if req.ProtoMajor != 1 {
		return nil, fmt.Errorf("%w: unsupported protocol %s", errMalformed, req.Proto)
	}
	return &request{method: m, target: req.RequestURI, version: req.Proto}, nil
}
