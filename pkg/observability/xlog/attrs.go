package xlog

import (
	"log/slog"
	"time"
)

// 标准属性 key，日志检索时按这些字段过滤。
const (
	KeyError      = "error"
	KeyStack      = "stack"
	KeyDuration   = "duration"
	KeyComponent  = "component"
	KeyPool       = "pool"
	KeyWorker     = "worker"
	KeyConnID     = "conn_id"
	KeyRemote     = "remote"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatusCode = "status_code"
	KeyPanic      = "panic"
)

// Err 将 error 转为属性。nil 输出 "<nil>"，不会 panic。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "<nil>")
	}
	return slog.String(KeyError, err.Error())
}

// Duration 以 time.Duration.String() 的形式记录耗时
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Pool 记录 worker 池名称
func Pool(name string) slog.Attr {
	return slog.String(KeyPool, name)
}

// Worker 记录 worker 编号（0 起）
func Worker(id int) slog.Attr {
	return slog.Int(KeyWorker, id)
}

func ConnID(id string) slog.Attr {
	return slog.String(KeyConnID, id)
}

// Remote 记录对端地址
func Remote(addr string) slog.Attr {
	return slog.String(KeyRemote, addr)
}

func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

func StatusCode(code int) slog.Attr {
	return slog.Int(KeyStatusCode, code)
}

// Panic 记录 recover 得到的值
func Panic(v any) slog.Attr {
	return slog.Any(KeyPanic, v)
}
