package xhttpd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/omeyang/xserve/pkg/observability/xlog"
	"github.com/omeyang/xserve/pkg/observability/xmetrics"
)

// serve 是 worker 中执行的任务：读取一个请求，回写响应，关闭连接。
// 整个过程受 IOTimeout 约束。
func (s *Server) serve(ctx context.Context, conn net.Conn, id string) {
	start := time.Now()
	remote := conn.RemoteAddr().String()
	ctx, span := xmetrics.Start(ctx, s.observer, xmetrics.SpanOptions{
		Component: "xhttpd",
		Operation: "request",
		Kind:      xmetrics.KindServer,
		Attrs: []xmetrics.Attr{
			xmetrics.String("conn_id", id),
			xmetrics.String("remote", remote),
		},
	})
	defer conn.Close()

	_ = conn.SetDeadline(start.Add(s.cfg.IOTimeout))

	req, err := readRequest(conn)
	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrDeadlineExceeded) {
		// 客户端没发完请求就关闭了连接或超时，无从响应
		s.logger.Debug(ctx, "connection closed before request", xlog.ConnID(id), xlog.Err(err))
		span.End(xmetrics.Result{Status: xmetrics.StatusOK})
		return
	}

	var resp *response
	var method, target string
	if err != nil {
		resp = textResponse(http.StatusBadRequest)
	} else {
		method, target = req.method.String(), req.target
		resp = s.route(ctx, req)
	}

	head := req != nil && req.method == MethodHead
	werr := resp.writeTo(conn, head)
	if werr == nil {
		s.served.Add(1)
	} else {
		s.failed.Add(1)
	}

	attrs := []slog.Attr{
		xlog.ConnID(id), xlog.Remote(remote), xlog.Method(method), xlog.Path(target),
		xlog.StatusCode(resp.status), xlog.Duration(time.Since(start)),
	}
	switch {
	case werr != nil:
		s.logger.Warn(ctx, "write response failed", append(attrs, xlog.Err(werr))...)
	case err != nil:
		s.logger.Debug(ctx, "bad request", append(attrs, xlog.Err(err))...)
	case s.access != nil && s.access.ShouldSample(id):
		s.logger.Info(ctx, "access", attrs...)
	default:
		s.logger.Debug(ctx, "request served", attrs...)
	}

	result := xmetrics.Result{
		Err: werr,
		Attrs: []xmetrics.Attr{
			xmetrics.Int("status_code", resp.status),
			xmetrics.String("method", method),
			xmetrics.Int64("content_length", int64(len(resp.body))),
			xmetrics.Bool("body_omitted", head),
		},
	}
	span.End(result)
}

// route 为合法请求生成响应
func (s *Server) route(ctx context.Context, req *request) *response {
	if !req.method.servable() {
		return methodNotAllowed()
	}
	file, ok := s.routes.Lookup(req.target)
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
		file = s.routes.NotFound()
		if file == "" {
			return textResponse(http.StatusNotFound)
		}
	}
	body, err := s.load(ctx, file)
	if err != nil {
		s.logger.Error(ctx, "read page failed", xlog.Path(file), xlog.Err(err))
		return textResponse(http.StatusInternalServerError)
	}
	return &response{status: status, contentType: contentType(file), body: body}
}

// load 读取页面。启用缓存时，同一文件的并发未命中只读盘一次。
func (s *Server) load(ctx context.Context, file string) ([]byte, error) {
	if s.cache == nil {
		return readPage(file)
	}
	if b, ok := s.cache.Get(file); ok {
		return b, nil
	}
	unlock, err := s.loads.Lock(ctx, file)
	if err != nil {
		return readPage(file)
	}
	defer unlock()
	if b, ok := s.cache.Peek(file); ok {
		return b, nil
	}
	b, err := readPage(file)
	if err != nil {
		return nil, err
	}
	s.cache.Set(file, b)
	return b, nil
}

func readPage(file string) ([]byte, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("xhttpd: read %s: %w", file, err)
	}
	return b, nil
}
