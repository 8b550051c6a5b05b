package xhttpd

import (
	"bufio"
	"io"
	"net/http"
	"strconv"
)

// response 一个完整的 HTTP/1.1 响应。连接总在响应后关闭。
type response struct {
	status      int
	contentType string
	body        []byte
	// header 额外头部，按顺序写出
	header [][2]string
}

func textResponse(status int) *response {
	return &response{
		status:      status,
		contentType: "text/plain; charset=utf-8",
		body:        []byte(http.StatusText(status) + "\n"),
	}
}

// overloaded 工作池拒绝时的响应
func overloaded() *response {
	r := textResponse(http.StatusServiceUnavailable)
	r.header = [][2]string{{"Retry-After", "1"}}
	return r
}

func methodNotAllowed() *response {
	r := textResponse(http.StatusMethodNotAllowed)
	r.header = [][2]string{{"Allow", "GET, HEAD"}}
	return r
}

// writeTo 写出状态行、头部与主体。omitBody 用于 HEAD：
// Content-Length 仍是主体长度，但主体不发送。
func (r *response) writeTo(w io.Writer, omitBody bool) error {
	bw := bufio.NewWriterSize(w, 512+len(r.body))
	bw.WriteString("HTTP/1.1 ")
	bw.WriteString(strconv.Itoa(r.status))
	bw.WriteByte(' ')
	bw.WriteString(http.StatusText(r.status))
	bw.WriteString("\r\n")

	writeHeader(bw, "Content-Length", strconv.Itoa(len(r.body)))
	if r.contentType != "" {
		writeHeader(bw, "Content-Type", r.contentType)
	}
	for _, h := range r.header {
		writeHeader(bw, h[0], h[1])
	}
	writeHeader(bw, "Connection", "close")
	bw.WriteString("\r\n")

	if !omitBody {
		bw.Write(r.body)
	}
	return bw.Flush()
}

func writeHeader(bw *bufio.Writer, k, v string) {
	bw.WriteString(k)
	bw.WriteString(": ")
	bw.WriteString(v)
	bw.WriteString("\r\n")
}
