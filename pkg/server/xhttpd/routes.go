package xhttpd

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/omeyang/xserve/pkg/util/xfile"
)

const (
	indexFile    = "index.html"
	notFoundFile = "not_found.html"
)

// servedExt 可被收录的扩展名及其 Content-Type
var servedExt = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
}

// Routes 路由到文件路径的只读映射，构建后可并发使用。
type Routes struct {
	root     string
	table    map[string]string
	notFound string
}

// BuildRoutes 递归遍历 dir 生成路由表。
//
//	dir/index.html        -> /
//	dir/index.css         -> /index.css
//	dir/howdy/index.html  -> /howdy/
//	dir/howdy/page.css    -> /howdy/page.css
//
// 任意层级的 not_found.html 都不进入路由表；dir 顶层的 not_found.html
// 用作 404 页面。符号链接与其他扩展名被忽略。
func BuildRoutes(dir string) (*Routes, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("xhttpd: stat pages: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPagesNotDir, dir)
	}

	r := &Routes{root: dir, table: make(map[string]string)}
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name := d.Name()
		if _, ok := servedExt[filepath.Ext(name)]; !ok || name == notFoundFile {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		route := "/" + filepath.ToSlash(rel)
		if name == indexFile {
			route = strings.TrimSuffix(route, indexFile)
		}
		r.table[route] = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("xhttpd: walk pages: %w", err)
	}

	nf, err := xfile.SafeJoin(dir, notFoundFile)
	if err != nil {
		return nil, err
	}
	if st, err := os.Stat(nf); err == nil && st.Mode().IsRegular() {
		r.notFound = nf
	}
	return r, nil
}

// NormalizeRoute 规范化请求目标：去掉查询串与片段，补齐前导 "/"，
// 把连续的 "/" 合并为一个。不做百分号解码，不解析 "." 与 ".."。
func NormalizeRoute(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	var b strings.Builder
	b.Grow(len(target) + 1)
	b.WriteByte('/')
	prevSlash := true
	for i := 0; i < len(target); i++ {
		c := target[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Lookup 返回请求目标对应的文件。末尾 "/" 可有可无：
// "/howdy" 与 "/howdy/" 都能匹配 /howdy/ 路由。
func (r *Routes) Lookup(target string) (file string, ok bool) {
	route := NormalizeRoute(target)
	if f, ok := r.table[route]; ok {
		return f, true
	}
	alt := route + "/"
	if strings.HasSuffix(route, "/") {
		alt = strings.TrimSuffix(route, "/")
	}
	f, ok := r.table[alt]
	return f, ok
}

// NotFound 返回 404 页面文件，没有时为空。
func (r *Routes) NotFound() string { return r.notFound }

func (r *Routes) Root() string { return r.root }

func (r *Routes) Len() int { return len(r.table) }

// Paths 返回排序后的全部路由
func (r *Routes) Paths() []string {
	ps := make([]string, 0, len(r.table))
	for p := range r.table {
		ps = append(ps, p)
	}
	slices.Sort(ps)
	return ps
}

// File 返回路由对应的文件，不做规范化
func (r *Routes) File(route string) string { return r.table[route] }

// contentType 按扩展名返回 Content-Type
func contentType(file string) string {
	if ct, ok := servedExt[path.Ext(filepath.ToSlash(file))]; ok {
		return ct
	}
	return "application/octet-stream"
}
